package polling

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomspot-sniper/internal/metrics"
	"roomspot-sniper/internal/model"
	"roomspot-sniper/internal/repositories"
)

type Outcome string

const (
	// OutcomeCompleted means the cycle notified every new listing and
	// persisted the seen-set.
	OutcomeCompleted Outcome = "completed"
	// OutcomeEmpty means the fetch produced nothing; the seen-set was not
	// touched.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means the cycle was aborted by an error or panic.
	OutcomeFailed Outcome = "failed"
)

type CycleResult struct {
	ID           string
	Outcome      Outcome
	StartedAt    time.Time
	FinishedAt   time.Time
	Fetched      int
	New          int
	Notified     int
	NotifyFailed int
	SeenCount    int
	Err          error
}

type Service struct {
	source   ListingSource
	notifier Notifier
	repo     repositories.SeenRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu   sync.Mutex
	last *CycleResult
}

func NewService(source ListingSource, notifier Notifier, repo repositories.SeenRepository, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		notifier: notifier,
		repo:     repo,
		metrics:  m,
		logger:   logger,
	}
}

// LoadSeen reads the persisted seen-set. It is called once at startup.
func (s *Service) LoadSeen(ctx context.Context) (*model.SeenSet, error) {
	seen, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen listings: %w", err)
	}
	s.metrics.SeenSetSize.Set(float64(seen.Len()))
	s.logger.Info("loaded previously seen listings", "count", seen.Len())
	return seen, nil
}

// RunCycle performs fetch, diff, notify and persist once. Ids are added to
// seen as soon as they are found to be new, whatever the notification
// result. Nothing escapes: errors and panics end up in the result.
func (s *Service) RunCycle(ctx context.Context, seen *model.SeenSet) (result CycleResult) {
	result = CycleResult{ID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger.With("cycle_id", result.ID)

	defer func() {
		if r := recover(); r != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("panic: %v", r)
			log.Error("cycle panicked", "error", result.Err, "stack", string(debug.Stack()))
		}
		result.FinishedAt = time.Now()
		result.SeenCount = seen.Len()
		s.record(result)
	}()

	log.Info("fetching current listings", "source", s.source.Source())
	listings, err := s.source.Fetch(ctx)
	if err != nil {
		log.Warn("fetch failed", "source", s.source.Source(), "error", err)
		result.Err = err
	}
	result.Fetched = len(listings)
	log.Info("listings fetched", "count", len(listings))

	if len(listings) == 0 {
		result.Outcome = OutcomeEmpty
		return result
	}

	fresh := Diff(listings, seen)
	log.Debug("diff computed", "known", len(listings)-len(fresh), "new", len(fresh))

	for _, listing := range fresh {
		if !seen.Add(listing.ID) {
			log.Debug("listing repeated in snapshot", "id", listing.ID)
			continue
		}
		result.New++
		log.Info("new listing found", "id", listing.ID, "title", listing.Title)

		if err := s.notifier.Notify(ctx, listing); err != nil {
			result.NotifyFailed++
			log.Error("notification failed", "id", listing.ID, "error", err)
			continue
		}
		result.Notified++
	}

	if err := s.repo.Save(ctx, seen); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("persist seen listings: %w", err)
		log.Error("cycle failed", "error", result.Err)
		return result
	}

	result.Outcome = OutcomeCompleted
	log.Info("cycle finished",
		"fetched", result.Fetched,
		"new", result.New,
		"notified", result.Notified,
		"failed", result.NotifyFailed,
		"seen", seen.Len(),
	)
	return result
}

func (s *Service) record(result CycleResult) {
	s.metrics.Cycles.WithLabelValues(string(result.Outcome)).Inc()
	s.metrics.ListingsFetched.Set(float64(result.Fetched))
	s.metrics.NewListings.Add(float64(result.New))
	s.metrics.Notifications.WithLabelValues("sent").Add(float64(result.Notified))
	s.metrics.Notifications.WithLabelValues("failed").Add(float64(result.NotifyFailed))
	s.metrics.SeenSetSize.Set(float64(result.SeenCount))
	s.metrics.CycleDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())

	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()
}

// LastResult returns the most recent cycle, if any ran.
func (s *Service) LastResult() (CycleResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return CycleResult{}, false
	}
	return *s.last, true
}
