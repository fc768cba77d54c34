/**
 * Remote Engine - HTTP adapter for recognition services.
 *
 * Heterogeneous backends (PaddleOCR, EasyOCR service wrappers, hosted
 * vision models) are reached over a single JSON contract, so adding one
 * is a configuration change rather than a code change.
 */

package engines

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/1004-Akash/mosip-decode/internal/logging"
	"github.com/1004-Akash/mosip-decode/internal/ocr"
)

// recognizeRequest is the JSON body sent to a recognition service.
type recognizeRequest struct {
	Image    string `json:"image"`  // base64 encoded image
	Format   string `json:"format"` // always "base64"
	Language string `json:"language,omitempty"`
}

// recognizeResponse is the JSON body a recognition service returns.
type recognizeResponse struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Boxes      []remoteBox `json:"boxes"`
	Error      string      `json:"error,omitempty"`
}

// remoteBox mirrors the wire shape of a text region: bbox as [x1,y1,x2,y2].
type remoteBox struct {
	Text       string  `json:"text"`
	BBox       []int   `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// RemoteEngine calls one recognition service endpoint.
type RemoteEngine struct {
	id         string
	url        string
	language   string
	httpClient *http.Client
	logger     *logging.Logger
}

// RemoteEngineConfig identifies one recognition service.
type RemoteEngineConfig struct {
	ID       string
	URL      string
	Language string
}

// NewRemoteEngine creates an adapter for a recognition service. The HTTP
// timeout is intentionally generous; the orchestrator enforces the real
// per-engine deadline through the context.
func NewRemoteEngine(cfg RemoteEngineConfig) (*RemoteEngine, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("remote engine id is required")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote engine %q: url is required", cfg.ID)
	}
	return &RemoteEngine{
		id:       cfg.ID,
		url:      cfg.URL,
		language: cfg.Language,
		httpClient: &http.Client{
			Timeout: 310 * time.Second,
		},
		logger: logging.NewLogger(cfg.ID),
	}, nil
}

// ID returns the engine identifier used in result maps.
func (e *RemoteEngine) ID() string { return e.id }

// Recognize posts the image to the recognition service and converts its
// response into an engine output.
func (e *RemoteEngine) Recognize(ctx context.Context, image []byte) (*ocr.EngineOutput, error) {
	reqBody, err := json.Marshal(&recognizeRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Format:   "base64",
		Language: e.language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("recognition service returned HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("recognition service error: %s", parsed.Error)
	}

	boxes := make([]ocr.TextBox, 0, len(parsed.Boxes))
	for _, b := range parsed.Boxes {
		if len(b.BBox) < 4 {
			continue
		}
		boxes = append(boxes, ocr.TextBox{
			Text: b.Text,
			BBox: ocr.BBox{
				X1: b.BBox[0],
				Y1: b.BBox[1],
				X2: b.BBox[2],
				Y2: b.BBox[3],
			},
			Confidence: b.Confidence,
			PageNum:    1,
		})
	}

	e.logger.Debug("recognition complete",
		"confidence", parsed.Confidence, "text_length", len(parsed.Text), "boxes", len(boxes))

	return &ocr.EngineOutput{
		Text:       parsed.Text,
		Confidence: parsed.Confidence,
		Boxes:      boxes,
	}, nil
}
