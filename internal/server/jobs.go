package server

import (
	"encoding/json"
	"net/http"

	"github.com/openscribe/scribe/internal/audio"
	"github.com/openscribe/scribe/internal/pipeline"
)

// JobsHandler enqueues transcription jobs for audio already on the
// daemon's filesystem (e.g. dropped by an out-of-band sync).
type JobsHandler struct {
	pool *pipeline.WorkerPool
}

func NewJobsHandler(pool *pipeline.WorkerPool) *JobsHandler {
	return &JobsHandler{pool: pool}
}

type createJobRequest struct {
	AudioPath string `json:"audio_path"`
}

// Create handles POST /api/v1/jobs.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AudioPath == "" {
		WriteError(w, http.StatusBadRequest, "audio_path is required")
		return
	}
	if err := audio.Validate(req.AudioPath); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid audio file", err.Error())
		return
	}

	if !h.pool.Enqueue(pipeline.Job{AudioPath: req.AudioPath}) {
		WriteError(w, http.StatusServiceUnavailable, "transcription queue is full")
		return
	}

	stats := h.pool.Stats()
	WriteJSON(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"queue":  stats,
	})
}

// Stats handles GET /api/v1/queue.
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.pool.Stats())
}
