package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"

	"roomspot-sniper/internal/services/polling"
)

type StatusSource interface {
	LastResult() (polling.CycleResult, bool)
}

type Trigger interface {
	Trigger() bool
}

type Handler struct {
	status  StatusSource
	trigger Trigger
	metrics http.Handler
}

func NewHandler(status StatusSource, trigger Trigger, metrics http.Handler) *Handler {
	return &Handler{status: status, trigger: trigger, metrics: metrics}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Get("/status", h.handleStatus)
	r.Post("/poll", h.handlePoll)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Get("/", pprof.Index)
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.Get("/symbol", pprof.Symbol)
		r.Post("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/allocs", pprof.Handler("allocs").ServeHTTP)
		r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		r.Get("/heap", pprof.Handler("heap").ServeHTTP)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type cycleStatus struct {
	ID           string    `json:"id"`
	Outcome      string    `json:"outcome"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Fetched      int       `json:"fetched"`
	New          int       `json:"new"`
	Notified     int       `json:"notified"`
	NotifyFailed int       `json:"notify_failed"`
	SeenCount    int       `json:"seen_count"`
	Error        string    `json:"error,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	result, ok := h.status.LastResult()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"last_cycle": nil})
		return
	}

	status := cycleStatus{
		ID:           result.ID,
		Outcome:      string(result.Outcome),
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		Fetched:      result.Fetched,
		New:          result.New,
		Notified:     result.Notified,
		NotifyFailed: result.NotifyFailed,
		SeenCount:    result.SeenCount,
	}
	if result.Err != nil {
		status.Error = result.Err.Error()
	}
	writeJSON(w, http.StatusOK, map[string]any{"last_cycle": status})
}

// handlePoll wakes the loop; it never starts a cycle of its own, so cycles
// stay sequential.
func (h *Handler) handlePoll(w http.ResponseWriter, _ *http.Request) {
	message := "Poll triggered"
	if !h.trigger.Trigger() {
		message = "Poll already pending"
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
