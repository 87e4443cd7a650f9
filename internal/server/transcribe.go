package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/openscribe/scribe/internal/audio"
	"github.com/openscribe/scribe/internal/format"
	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/transcript"
)

// maxUploadBytes caps transcription uploads at 1 GiB.
const maxUploadBytes = 1 << 30

// TranscribeHandler serves synchronous transcription of uploaded audio.
type TranscribeHandler struct {
	runner *pipeline.Runner
}

func NewTranscribeHandler(runner *pipeline.Runner) *TranscribeHandler {
	return &TranscribeHandler{runner: runner}
}

// TranscribeResponse is the synchronous transcription result.
type TranscribeResponse struct {
	Metadata  transcript.Metadata  `json:"metadata"`
	Segments  []transcript.Segment `json:"segments"`
	Artifacts []string             `json:"artifacts"`
}

// ServeHTTP handles POST /api/v1/transcribe: a multipart upload with the
// audio under the "file" field. The file is staged to a temp path, run
// through the full pipeline, and the finished transcript returned as JSON.
func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing multipart field \"file\"")
		return
	}
	defer file.Close()

	if !audio.Supported(header.Filename) {
		WriteErrorDetail(w, http.StatusBadRequest, "unsupported audio format",
			"supported: "+strings.Join(audio.SupportedExtensions(), ", "))
		return
	}

	stagePath, err := stageUpload(file, header.Filename)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to stage upload")
		WriteError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.RemoveAll(filepath.Dir(stagePath))

	tr, keys, err := h.runner.ProcessFile(r.Context(), stagePath)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("audio", header.Filename).Msg("transcription failed")
		status := http.StatusBadGateway
		if errors.Is(err, format.ErrInvalidSegment) || errors.Is(err, format.ErrUnsupportedFormat) {
			status = http.StatusUnprocessableEntity
		}
		WriteErrorDetail(w, status, "transcription failed", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, TranscribeResponse{
		Metadata:  tr.Metadata,
		Segments:  tr.Segments,
		Artifacts: keys,
	})
}

// stageUpload copies the upload to a temp file that keeps the original
// basename, so artifact names follow the source file stem.
func stageUpload(src io.Reader, filename string) (string, error) {
	dir, err := os.MkdirTemp("", "scribe-upload-*")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.RemoveAll(dir)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}
