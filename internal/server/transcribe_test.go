package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/storage"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/transcript"
)

// segmentedProvider returns a fixed transcript for any upload.
type segmentedProvider struct {
	err error
}

func (p *segmentedProvider) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (*transcribe.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &transcribe.Result{
		Language: "en",
		Duration: 1.6,
		Segments: []transcript.Segment{
			{Start: 0.622, End: 1.563, Text: "Hello, how's it going?"},
		},
	}, nil
}
func (p *segmentedProvider) Healthy(ctx context.Context) error { return nil }
func (p *segmentedProvider) Name() string                      { return "stub" }
func (p *segmentedProvider) Model() string                     { return "base" }

func newTestTranscribeHandler(t *testing.T, provider transcribe.Provider) *TranscribeHandler {
	t.Helper()
	runner := pipeline.NewRunner(pipeline.Options{
		Provider: provider,
		Store:    storage.NewLocalStore(t.TempDir()),
		Formats:  []string{"txt", "json", "srt", "vtt"},
		Log:      zerolog.Nop(),
	})
	return NewTranscribeHandler(runner)
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest("POST", "/api/v1/transcribe", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestTranscribeUpload(t *testing.T) {
	h := newTestTranscribeHandler(t, &segmentedProvider{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "meeting.wav", []byte("RIFF0000WAVE")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp TranscribeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Metadata.AudioFile != "meeting.wav" {
		t.Errorf("audio_file = %q, want meeting.wav", resp.Metadata.AudioFile)
	}
	if len(resp.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(resp.Segments))
	}
	if resp.Segments[0].Speaker != transcript.DefaultSpeaker {
		t.Errorf("speaker = %q, want default without diarizer", resp.Segments[0].Speaker)
	}
	if len(resp.Artifacts) != 4 {
		t.Errorf("artifacts = %v, want 4 keys", resp.Artifacts)
	}
}

func TestTranscribeUploadMissingFile(t *testing.T) {
	h := newTestTranscribeHandler(t, &segmentedProvider{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/transcribe", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribeUploadUnsupportedFormat(t *testing.T) {
	h := newTestTranscribeHandler(t, &segmentedProvider{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("plain text")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Detail == "" {
		t.Error("error detail should list supported extensions")
	}
}

func TestTranscribeUploadBackendFailure(t *testing.T) {
	h := newTestTranscribeHandler(t, &segmentedProvider{err: errors.New("model crashed")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "meeting.wav", []byte("RIFF")))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
