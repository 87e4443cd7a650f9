package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openscribe/scribe/internal/diarize"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/transcript"
)

type stubProvider struct {
	err error
}

func (s *stubProvider) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (*transcribe.Result, error) {
	return &transcribe.Result{Segments: []transcript.Segment{}}, nil
}
func (s *stubProvider) Healthy(ctx context.Context) error { return s.err }
func (s *stubProvider) Name() string                      { return "stub" }
func (s *stubProvider) Model() string                     { return "base" }

type stubDiarizer struct {
	err error
}

func (s *stubDiarizer) Diarize(ctx context.Context, audioPath string, opts diarize.Options) (*diarize.Result, error) {
	return &diarize.Result{}, nil
}
func (s *stubDiarizer) Healthy(ctx context.Context) error { return s.err }
func (s *stubDiarizer) Name() string                      { return "stub-diarizer" }

func getHealth(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	h.ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return rec.Code, resp
}

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := NewHealthHandler(&stubProvider{}, &stubDiarizer{}, nil, nil, nil, "test", time.Now())
		code, resp := getHealth(t, h)
		if code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
		if resp.Status != "healthy" {
			t.Errorf("status = %q, want healthy", resp.Status)
		}
		if resp.Checks["whisper"] != "ok" || resp.Checks["diarizer"] != "ok" {
			t.Errorf("checks = %v, want whisper/diarizer ok", resp.Checks)
		}
		if resp.Checks["mqtt"] != "not_configured" {
			t.Errorf("mqtt check = %q, want not_configured", resp.Checks["mqtt"])
		}
	})

	t.Run("whisper_down_is_unhealthy", func(t *testing.T) {
		h := NewHealthHandler(&stubProvider{err: errors.New("refused")}, nil, nil, nil, nil, "test", time.Now())
		code, resp := getHealth(t, h)
		if code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", code)
		}
		if resp.Status != "unhealthy" {
			t.Errorf("status = %q, want unhealthy", resp.Status)
		}
	})

	t.Run("diarizer_down_is_degraded", func(t *testing.T) {
		h := NewHealthHandler(&stubProvider{}, &stubDiarizer{err: errors.New("refused")}, nil, nil, nil, "test", time.Now())
		code, resp := getHealth(t, h)
		if code != http.StatusOK {
			t.Errorf("status = %d, want 200 (degraded still serves)", code)
		}
		if resp.Status != "degraded" {
			t.Errorf("status = %q, want degraded", resp.Status)
		}
	})

	t.Run("no_diarizer_configured", func(t *testing.T) {
		h := NewHealthHandler(&stubProvider{}, nil, nil, nil, nil, "test", time.Now())
		code, resp := getHealth(t, h)
		if code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
		if resp.Status != "healthy" {
			t.Errorf("status = %q, want healthy without diarizer", resp.Status)
		}
		if resp.Checks["diarizer"] != "not_configured" {
			t.Errorf("diarizer check = %q, want not_configured", resp.Checks["diarizer"])
		}
	})
}
