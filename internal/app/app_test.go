package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomspot-sniper/internal/config"
	"roomspot-sniper/internal/discord"
	"roomspot-sniper/internal/logger"
	"roomspot-sniper/internal/model"
	filerepo "roomspot-sniper/internal/repositories/file"
	"roomspot-sniper/internal/services/polling"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func (r *recordingNotifier) Notify(_ context.Context, listing model.Listing) error {
	r.mu.Lock()
	r.sent = append(r.sent, listing.ID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func testConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	return &config.Config{
		DiscordWebhookURL: "https://discord.invalid/webhook",
		RoomspotAPIURL:    apiURL,
		PollSchedule:      "@every 1h",
		RetryInterval:     30 * time.Minute,
		SeenStore:         config.StoreFile,
		SeenFile:          filepath.Join(t.TempDir(), "seen_listings.json"),
	}
}

func TestBuildWiresFileStoreAndDiscord(t *testing.T) {
	cfg := testConfig(t, "")

	application, err := NewBuilder(cfg, WithLogger(logger.Discard())).Build(context.Background())
	require.NoError(t, err)

	assert.IsType(t, &filerepo.SeenRepository{}, application.Repo)
	assert.IsType(t, &discord.Sender{}, application.Notifier)
	assert.Nil(t, application.Server)
}

func TestBuildFansOutToBothChannels(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.TelegramToken = "token"
	cfg.TelegramChat = "chat"
	cfg.HTTPPort = "0"

	application, err := NewBuilder(cfg, WithLogger(logger.Discard())).Build(context.Background())
	require.NoError(t, err)

	multi, ok := application.Notifier.(polling.MultiNotifier)
	require.True(t, ok)
	assert.Len(t, multi, 2)
	assert.NotNil(t, application.Server)
}

func TestBuildRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.PollSchedule = "sometimes"

	_, err := NewBuilder(cfg, WithLogger(logger.Discard())).Build(context.Background())
	assert.ErrorContains(t, err, "parse poll schedule")
}

func TestRunEndToEnd(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"2","street":"Kuipersdijk","houseNumber":"8","gemeenteGeoLocatieNaam":"Enschede"},
			{"id":"3","street":"Stationsplein","houseNumber":"3","gemeenteGeoLocatieNaam":"Enschede","netRent":800}
		]}`))
	}))
	defer api.Close()

	cfg := testConfig(t, api.URL)
	repo := filerepo.NewSeenRepository(cfg.SeenFile)
	require.NoError(t, repo.Save(context.Background(), model.NewSeenSet([]string{"1", "2"})))

	notifier := &recordingNotifier{done: make(chan struct{}, 4)}
	application, err := NewBuilder(cfg,
		WithLogger(logger.Discard()),
		WithNotifier(notifier),
		WithHTTPClient(api.Client()),
	).Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	select {
	case <-notifier.done:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification sent")
	}

	require.Eventually(t, func() bool {
		result, ok := application.PollService.LastResult()
		return ok && result.Outcome == polling.OutcomeCompleted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	notifier.mu.Lock()
	assert.Equal(t, []string{"3"}, notifier.sent)
	notifier.mu.Unlock()

	seen, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, seen.IDs())
}

func TestRunKeepsPollingWhenServerFails(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"7","street":"Oude Markt","gemeenteGeoLocatieNaam":"Enschede"}]}`))
	}))
	defer api.Close()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	notifier := &recordingNotifier{done: make(chan struct{}, 4)}
	application, err := NewBuilder(testConfig(t, api.URL),
		WithLogger(logger.Discard()),
		WithNotifier(notifier),
		WithHTTPClient(api.Client()),
		WithHTTPServer(&http.Server{Addr: taken.Addr().String(), ReadHeaderTimeout: time.Second}),
	).Build(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	select {
	case <-notifier.done:
	case err := <-done:
		t.Fatalf("run stopped before polling: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification sent")
	}

	require.Eventually(t, func() bool {
		result, ok := application.PollService.LastResult()
		return ok && result.Outcome == polling.OutcomeCompleted
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
