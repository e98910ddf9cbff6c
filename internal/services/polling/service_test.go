package polling

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomspot-sniper/internal/logger"
	"roomspot-sniper/internal/metrics"
	"roomspot-sniper/internal/model"
)

func newTestService(source *fakeSource, notifier *fakeNotifier, repo *memoryRepository) (*Service, *metrics.Metrics) {
	m := metrics.New()
	return NewService(source, notifier, repo, m, logger.Discard()), m
}

func TestRunCycleNotifiesOnlyNewListings(t *testing.T) {
	source := &fakeSource{listings: listings("2", "3")}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{ids: []string{"1", "2"}}
	service, m := newTestService(source, notifier, repo)

	seen, err := service.LoadSeen(context.Background())
	require.NoError(t, err)

	result := service.RunCycle(context.Background(), seen)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, []string{"3"}, notifier.sent)
	assert.Equal(t, []string{"1", "2", "3"}, repo.ids)
	assert.Equal(t, []string{"1", "2", "3"}, seen.IDs())
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, 3, result.SeenCount)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles.WithLabelValues("completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SeenSetSize))
}

func TestRunCycleSecondPassIsQuiet(t *testing.T) {
	source := &fakeSource{listings: listings("2", "3")}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{ids: []string{"1", "2"}}
	service, _ := newTestService(source, notifier, repo)
	seen := model.NewSeenSet(repo.ids)

	service.RunCycle(context.Background(), seen)
	result := service.RunCycle(context.Background(), seen)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, []string{"3"}, notifier.sent)
	assert.Equal(t, 2, repo.saves)
}

func TestRunCycleFailedNotificationIsStillMarkedSeen(t *testing.T) {
	source := &fakeSource{listings: listings("a", "b", "c")}
	notifier := &fakeNotifier{failOn: map[string]bool{"a": true}}
	repo := &memoryRepository{}
	service, m := newTestService(source, notifier, repo)
	seen := model.NewSeenSet(nil)

	result := service.RunCycle(context.Background(), seen)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, []string{"a", "b", "c"}, notifier.sent)
	assert.Equal(t, 1, result.NotifyFailed)
	assert.Equal(t, 2, result.Notified)
	assert.Equal(t, []string{"a", "b", "c"}, repo.ids)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))

	notifier.sent = nil
	service.RunCycle(context.Background(), seen)
	assert.Empty(t, notifier.sent)
}

func TestRunCycleDuplicateIDsInSnapshotNotifyOnce(t *testing.T) {
	source := &fakeSource{listings: listings("x", "x", "y")}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{}
	service, _ := newTestService(source, notifier, repo)

	result := service.RunCycle(context.Background(), model.NewSeenSet(nil))

	assert.Equal(t, []string{"x", "y"}, notifier.sent)
	assert.Equal(t, []string{"x", "y"}, repo.ids)
	assert.Equal(t, 2, result.New)
}

func TestRunCycleFetchErrorLeavesSeenUntouched(t *testing.T) {
	source := &fakeSource{err: errors.New("unexpected status: 502")}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{ids: []string{"1"}}
	service, _ := newTestService(source, notifier, repo)
	seen := model.NewSeenSet(repo.ids)

	result := service.RunCycle(context.Background(), seen)

	assert.Equal(t, OutcomeEmpty, result.Outcome)
	assert.ErrorContains(t, result.Err, "502")
	assert.Empty(t, notifier.sent)
	assert.Zero(t, repo.saves)
	assert.Equal(t, []string{"1"}, seen.IDs())
}

func TestRunCycleEmptySnapshot(t *testing.T) {
	source := &fakeSource{}
	repo := &memoryRepository{}
	service, m := newTestService(source, &fakeNotifier{}, repo)

	result := service.RunCycle(context.Background(), model.NewSeenSet(nil))

	assert.Equal(t, OutcomeEmpty, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Zero(t, repo.saves)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles.WithLabelValues("empty")))
}

func TestRunCycleRecoversFromPanic(t *testing.T) {
	source := &fakeSource{panicMsg: "boom"}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{ids: []string{"1"}}
	service, _ := newTestService(source, notifier, repo)
	seen := model.NewSeenSet(repo.ids)

	var result CycleResult
	assert.NotPanics(t, func() {
		result = service.RunCycle(context.Background(), seen)
	})

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorContains(t, result.Err, "boom")
	assert.Empty(t, notifier.sent)
	assert.Equal(t, []string{"1"}, seen.IDs())

	last, ok := service.LastResult()
	require.True(t, ok)
	assert.Equal(t, result.ID, last.ID)
}

func TestRunCyclePersistFailureKeepsIDsInMemory(t *testing.T) {
	source := &fakeSource{listings: listings("1")}
	notifier := &fakeNotifier{}
	repo := &memoryRepository{saveErr: errors.New("disk full")}
	service, _ := newTestService(source, notifier, repo)
	seen := model.NewSeenSet(nil)

	result := service.RunCycle(context.Background(), seen)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorContains(t, result.Err, "disk full")
	assert.True(t, seen.Contains("1"))
	assert.Equal(t, []string{"1"}, notifier.sent)
}

func TestLastResultBeforeAnyCycle(t *testing.T) {
	service, _ := newTestService(&fakeSource{}, &fakeNotifier{}, &memoryRepository{})

	_, ok := service.LastResult()
	assert.False(t, ok)
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := &fakeNotifier{}
	broken := &fakeNotifier{failOn: map[string]bool{"1": true}}
	multi := MultiNotifier{broken, ok}

	err := multi.Notify(context.Background(), model.Listing{ID: "1"})

	assert.ErrorContains(t, err, "webhook down")
	assert.Equal(t, []string{"1"}, ok.sent)
	assert.NoError(t, MultiNotifier{ok}.Notify(context.Background(), model.Listing{ID: "2"}))
}
