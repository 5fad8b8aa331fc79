package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/services"
)

const checkTimeout = 5 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) error
}

// SweepReporter exposes the retention sweeper's latest outcome.
type SweepReporter interface {
	LastSweep() services.SweepStatus
}

type namedCheck struct {
	name    string
	checker HealthChecker
}

// HealthHandler serves the worker's probes. A sweep that has not completed
// within staleAfter marks the worker unhealthy.
type HealthHandler struct {
	checks     []namedCheck
	sweeps     SweepReporter
	staleAfter time.Duration
	now        func() time.Time
}

func NewHealthHandler(sweeps SweepReporter, staleAfter time.Duration) *HealthHandler {
	return &HealthHandler{
		sweeps:     sweeps,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// AddCheck registers a dependency probed by Health and Ready.
func (h *HealthHandler) AddCheck(name string, checker HealthChecker) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, checker: checker})
	return h
}

type SweepReport struct {
	LastRun      string `json:"last_run,omitempty"`
	LastDeleted  int64  `json:"last_deleted"`
	TotalDeleted int64  `json:"total_deleted"`
	LastError    string `json:"last_error,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Sweep     *SweepReport      `json:"sweep,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func (h *HealthHandler) runChecks(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(h.checks))
	healthy := true
	for _, c := range h.checks {
		if err := c.checker.Health(ctx); err != nil {
			healthy = false
			results[c.name] = "unhealthy: " + err.Error()
			continue
		}
		results[c.name] = "healthy"
	}
	return results, healthy
}

func (h *HealthHandler) sweepReport(now time.Time) (*SweepReport, string) {
	if h.sweeps == nil {
		return nil, ""
	}
	status := h.sweeps.LastSweep()
	report := &SweepReport{
		LastDeleted:  status.LastDeleted,
		TotalDeleted: status.TotalDeleted,
		LastError:    status.LastError,
	}
	if status.LastRun.IsZero() {
		return report, "pending"
	}
	report.LastRun = status.LastRun.UTC().Format(time.RFC3339)
	if h.staleAfter > 0 && now.Sub(status.LastRun) > h.staleAfter {
		return report, "stale"
	}
	if status.LastError != "" {
		return report, "failing"
	}
	return report, "healthy"
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	now := h.now()
	checks, healthy := h.runChecks(ctx)
	response := HealthResponse{
		Status:    "healthy",
		Checks:    checks,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	report, sweepState := h.sweepReport(now)
	if report != nil {
		response.Sweep = report
		response.Checks["retention_sweep"] = sweepState
		// A failed sweep is retried on the next tick; only a stalled loop counts.
		if sweepState == "stale" {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	if _, healthy := h.runChecks(ctx); !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}

// Routes registers the probes on mux.
func (h *HealthHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /live", h.Live)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
