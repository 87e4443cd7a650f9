package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PyannoteClient calls a pyannote speaker-diarization HTTP sidecar. The
// sidecar requires a Hugging Face token to pull its pretrained pipeline.
type PyannoteClient struct {
	baseURL string
	hfToken string
	client  *http.Client
}

// NewPyannoteClient creates a pyannote sidecar client. hfToken may be empty;
// the sidecar then rejects requests and callers fall back to the default
// speaker label.
func NewPyannoteClient(baseURL, hfToken string, timeout time.Duration) *PyannoteClient {
	return &PyannoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hfToken: hfToken,
		client:  &http.Client{Timeout: timeout},
	}
}

func (pc *PyannoteClient) Name() string { return "pyannote" }

// Healthy checks that the diarization sidecar is reachable.
func (pc *PyannoteClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := pc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("diarizer health returned status %d", resp.StatusCode)
	}
	return nil
}

// Diarize uploads audio to the sidecar and returns its speaker turns.
func (pc *PyannoteClient) Diarize(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	if opts.MinSpeakers > 0 {
		w.WriteField("min_speakers", fmt.Sprintf("%d", opts.MinSpeakers))
	}
	if opts.MaxSpeakers > 0 {
		w.WriteField("max_speakers", fmt.Sprintf("%d", opts.MaxSpeakers))
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if pc.hfToken != "" {
		req.Header.Set("Authorization", "Bearer "+pc.hfToken)
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, string(body))
	}

	var pr pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	if pr.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", pr.Error)
	}

	result := &Result{
		Turns:       make([]Turn, len(pr.Segments)),
		NumSpeakers: pr.NumSpeakers,
	}
	for i, seg := range pr.Segments {
		result.Turns[i] = Turn{
			Speaker: seg.SpeakerID,
			Start:   seg.StartTime,
			End:     seg.EndTime,
		}
	}
	return result, nil
}

// --- sidecar wire types ---

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}
