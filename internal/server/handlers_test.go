package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xxkhanxx77/aura-poc-llm/internal/extract"
	"github.com/xxkhanxx77/aura-poc-llm/internal/llm"
	"github.com/xxkhanxx77/aura-poc-llm/internal/quota"
	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
	"github.com/xxkhanxx77/aura-poc-llm/internal/scoring"
	"github.com/xxkhanxx77/aura-poc-llm/internal/service"
)

func TestStatusForErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"quota exceeded", quota.ErrExceeded, http.StatusTooManyRequests},
		{"wrapped quota exceeded", fmt.Errorf("screening: %w", quota.ErrExceeded), http.StatusTooManyRequests},
		{"invalid model response", scoring.ErrInvalidResponse, http.StatusBadGateway},
		{"llm unavailable", llm.ErrUnavailable, http.StatusServiceUnavailable},
		{"run-level upstream failure", service.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"unsupported upload", extract.ErrUnsupportedFormat, http.StatusBadRequest},
		{"corrupt upload", extract.ErrCorrupt, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHealthzAlwaysHealthy(t *testing.T) {
	rec := httptest.NewRecorder()
	healthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyzReflectsDependencyCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	readinessCheckHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz with no check = %d, want %d", rec.Code, http.StatusOK)
	}

	down := func(ctx context.Context) error { return errors.New("db unreachable") }
	rec = httptest.NewRecorder()
	readinessCheckHandler(down)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing check = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
