package errors

import (
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: http.StatusBadRequest},
		{name: "auth", err: AuthError("no token").Build(), expected: http.StatusUnauthorized},
		{name: "enforcement", err: EnforcementError("table busy").Build(), expected: http.StatusBadGateway},
		{name: "daemon", err: DaemonError("loop stopped").Build(), expected: http.StatusServiceUnavailable},
		{name: "storage", err: StorageError("disk full").Build(), expected: http.StatusInternalServerError},
		{name: "wrapped classified", err: wrap(NewError(CategoryNotFound, "missing").Build()), expected: http.StatusNotFound},
		{name: "unclassified", err: stdErrors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.expected {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	req := httptest.NewRequest(http.MethodPost, "/api/focus", nil)
	rec := httptest.NewRecorder()

	err := ValidationError("invalid request body").WithContext("field", "enabled").Build()
	adapter.WriteErrorResponse(rec, req, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload HTTPErrorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &payload); jerr != nil {
		t.Fatalf("decode: %v", jerr)
	}
	if payload.Error != "invalid request body" || payload.Code != "validation" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Details["field"] != "enabled" {
		t.Fatalf("expected field detail, got %v", payload.Details)
	}
	if payload.Retryable {
		t.Fatal("validation errors are not retryable")
	}
}

func wrap(err error) error {
	return &wrapper{err: err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }
