package polling

import (
	"context"
	"errors"

	"roomspot-sniper/internal/model"
)

type fakeSource struct {
	listings []model.Listing
	err      error
	panicMsg string
	calls    int
}

func (f *fakeSource) Source() string { return "fake" }

func (f *fakeSource) Fetch(context.Context) ([]model.Listing, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.listings, f.err
}

type fakeNotifier struct {
	sent   []string
	failOn map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, listing model.Listing) error {
	f.sent = append(f.sent, listing.ID)
	if f.failOn[listing.ID] {
		return errors.New("webhook down")
	}
	return nil
}

type memoryRepository struct {
	ids     []string
	saves   int
	saveErr error
}

func (m *memoryRepository) Load(context.Context) (*model.SeenSet, error) {
	return model.NewSeenSet(m.ids), nil
}

func (m *memoryRepository) Save(_ context.Context, seen *model.SeenSet) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ids = seen.IDs()
	return nil
}

func listings(ids ...string) []model.Listing {
	out := make([]model.Listing, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Listing{ID: id, Title: "Listing " + id})
	}
	return out
}

func ids(listings []model.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}
