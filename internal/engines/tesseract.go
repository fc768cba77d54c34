/**
 * Tesseract Engine - local offline recognition via gosseract.
 *
 * The only in-process engine; everything else in the ensemble is a
 * remote recognition service.
 */

package engines

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/1004-Akash/mosip-decode/internal/ocr"
)

// TesseractEngine recognizes text with a local Tesseract installation.
type TesseractEngine struct {
	id       string
	language string
}

// TesseractConfig holds Tesseract configuration.
type TesseractConfig struct {
	// Language is the trained-data code, e.g. "eng" or "hin".
	Language string
}

// NewTesseractEngine creates the local Tesseract engine adapter.
func NewTesseractEngine(cfg *TesseractConfig) *TesseractEngine {
	lang := "eng"
	if cfg != nil && cfg.Language != "" {
		lang = cfg.Language
	}
	return &TesseractEngine{id: "tesseract", language: lang}
}

// ID returns the engine identifier used in result maps.
func (t *TesseractEngine) ID() string { return t.id }

// Recognize runs Tesseract over the image bytes and returns text plus
// word-level boxes. gosseract clients are not goroutine-safe, so one is
// created per call.
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (*ocr.EngineOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("failed to set language %q: %w", t.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	words, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		// Text without geometry is still a usable result.
		words = nil
	}

	boxes := make([]ocr.TextBox, 0, len(words))
	var confSum float64
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		conf := w.Confidence / 100.0
		confSum += conf
		boxes = append(boxes, ocr.TextBox{
			Text: w.Word,
			BBox: ocr.BBox{
				X1: w.Box.Min.X,
				Y1: w.Box.Min.Y,
				X2: w.Box.Max.X,
				Y2: w.Box.Max.Y,
			},
			Confidence: conf,
			PageNum:    1,
		})
	}

	confidence := estimateConfidence(text)
	if len(boxes) > 0 {
		confidence = confSum / float64(len(boxes))
	}

	return &ocr.EngineOutput{
		Text:       text,
		Confidence: confidence,
		Boxes:      boxes,
	}, nil
}

// estimateConfidence scores text quality when word-level confidences are
// unavailable (older tesseract builds without iterator support).
func estimateConfidence(text string) float64 {
	confidence := 0.5

	if len(text) > 1000 {
		confidence += 0.1
	}
	if len(text) > 5000 {
		confidence += 0.1
	}

	if len(strings.Fields(text)) > 100 {
		confidence += 0.1
	}

	alphaCount := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			alphaCount++
		}
	}
	if len(text) > 0 {
		alphaRatio := float64(alphaCount) / float64(len(text))
		if alphaRatio > 0.5 && alphaRatio < 0.9 {
			confidence += 0.1
		}
	}

	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence
}
