package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/focusd/internal/focus"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
)

const maxHistoryLimit = 500

// FocusRequest is the body of POST /api/focus.
type FocusRequest struct {
	Enabled *bool `json:"enabled"`
}

// FocusResponse answers POST /api/focus.
type FocusResponse struct {
	ManualFocus bool `json:"manual_focus"`
}

// BlockedResponse answers POST /api/blocked.
type BlockedResponse struct {
	Success bool   `json:"success"`
	Count   uint64 `json:"count"`
}

// ResetResponse answers POST /api/stats/reset.
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthResponse answers POST /api/auth.
type AuthResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RulesResponse answers GET /api/rules.
type RulesResponse struct {
	Configured []focus.Rule `json:"configured"`
	Active     []focus.Rule `json:"active"`
}

type handlers struct {
	daemon       *Daemon
	errorAdapter *ferrors.HTTPErrorAdapter
}

func (h *handlers) commandContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), commandTimeout)
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.commandContext(r)
	defer cancel()
	snap, err := h.daemon.FocusStatus(ctx)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil || req.Enabled == nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError(`request body must be {"enabled": true|false}`).WithCause(err).Build())
		return
	}
	ctx, cancel := h.commandContext(r)
	defer cancel()
	manual, err := h.daemon.SetManualFocus(ctx, *req.Enabled)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FocusResponse{ManualFocus: manual})
}

func (h *handlers) handleBlocked(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.commandContext(r)
	defer cancel()
	count, err := h.daemon.RecordBlockedNavigation(ctx)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BlockedResponse{Success: true, Count: count})
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.commandContext(r)
	defer cancel()
	stats, err := h.daemon.Stats(ctx)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.commandContext(r)
	defer cancel()
	day, err := h.daemon.ResetStats(ctx)
	if err != nil {
		if day != "" {
			// Counters stay zeroed in memory; the next successful write persists them.
			slog.Warn("Stats reset but not persisted", logfields.DateKey(string(day)), logfields.Error(err))
		}
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Success: true, Message: fmt.Sprintf("Stats reset for %s", day)})
}

func (h *handlers) handleAuth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.daemon.Config().Signal.Timeout+commandTimeout)
	defer cancel()
	ok, err := h.daemon.Authenticate(ctx)
	if err != nil {
		slog.Warn("Calendar authentication failed", logfields.Error(err))
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: ok})
}

func (h *handlers) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{
		Configured: h.daemon.Rules(),
		Active:     h.daemon.Table().Rules(),
	})
}

func (h *handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	events, err := h.daemon.History(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	sessions, err := h.daemon.Sessions(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := h.daemon.PerformHealthChecks(r.Context())
	status := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func metricsHandler(d *Daemon) http.Handler {
	return metrics.HTTPHandler(d.Registry())
}

// parseLimit reads ?limit=n; absent means the store default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxHistoryLimit {
		return 0, ferrors.ValidationError(fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)).
			WithContext("limit", raw).
			Build()
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", logfields.Error(err))
	}
}
