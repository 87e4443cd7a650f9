package server

import (
	"context"
	"net/http"
	"time"

	"github.com/openscribe/scribe/internal/diarize"
	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/watch"
)

// HealthResponse reports daemon health and backend reachability.
type HealthResponse struct {
	Status        string               `json:"status"`
	Version       string               `json:"version"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Checks        map[string]string    `json:"checks"`
	Queue         *pipeline.QueueStats `json:"queue,omitempty"`
	Watcher       *watch.Status        `json:"watcher,omitempty"`
}

// EventsStatus abstracts the MQTT publisher for health checks.
type EventsStatus interface {
	IsConnected() bool
}

type HealthHandler struct {
	provider  transcribe.Provider
	diarizer  diarize.Provider
	events    EventsStatus
	pool      *pipeline.WorkerPool
	watcher   *watch.Watcher
	version   string
	startTime time.Time
}

func NewHealthHandler(provider transcribe.Provider, diarizer diarize.Provider, events EventsStatus, pool *pipeline.WorkerPool, watcher *watch.Watcher, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		provider:  provider,
		diarizer:  diarizer,
		events:    events,
		pool:      pool,
		watcher:   watcher,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// Transcription backend check. Unreachable means no request can
	// succeed, so the daemon is unhealthy.
	if err := h.provider.Healthy(ctx); err != nil {
		checks["whisper"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["whisper"] = "ok"
	}

	// Diarization is optional: processing degrades to the default speaker.
	if h.diarizer != nil {
		if err := h.diarizer.Healthy(ctx); err != nil {
			checks["diarizer"] = "error"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["diarizer"] = "ok"
		}
	} else {
		checks["diarizer"] = "not_configured"
	}

	if h.events != nil {
		if h.events.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Queue = &stats
	}
	if h.watcher != nil {
		ws := h.watcher.Status()
		resp.Watcher = &ws
	}

	WriteJSON(w, httpStatus, resp)
}
