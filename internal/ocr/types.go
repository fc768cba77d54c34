/**
 * OCR Types - Shared data structures for the recognition ensemble
 *
 * Every value here is built once per request and never mutated afterwards;
 * each fusion stage produces a fresh value instead of editing in place.
 */

package ocr

// EngineStatus describes the outcome of one engine invocation.
type EngineStatus string

const (
	StatusSuccess     EngineStatus = "success"
	StatusFailed      EngineStatus = "failed"
	StatusEmptyOutput EngineStatus = "empty_output"
	StatusTimeout     EngineStatus = "timeout"
)

// BBox is an axis-aligned rectangle in source-image pixel space.
// Invariant: X2 >= X1, Y2 >= Y1, coordinates never negative.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BBox) Height() int { return b.Y2 - b.Y1 }

// Area returns the pixel area of the box.
func (b BBox) Area() int { return b.Width() * b.Height() }

// IoU computes intersection-over-union with another box. Returns 0 when
// the union is empty.
func (b BBox) IoU(o BBox) float64 {
	ix := min(b.X2, o.X2) - max(b.X1, o.X1)
	iy := min(b.Y2, o.Y2) - max(b.Y1, o.Y1)
	if ix < 0 {
		ix = 0
	}
	if iy < 0 {
		iy = 0
	}
	inter := ix * iy
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// TextBox is a recognized text region with its confidence and source page.
type TextBox struct {
	Text       string  `json:"text"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	PageNum    int     `json:"page_num"`
}

// EngineResult is the outcome of one engine for one image. Exactly one is
// produced per configured engine per page, whatever the outcome.
type EngineResult struct {
	EngineID   string       `json:"engine_id"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Boxes      []TextBox    `json:"boxes"`
	Status     EngineStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

// FusedResult is the single combined output for one page.
type FusedResult struct {
	Text         string    `json:"text"`
	Confidence   float64   `json:"confidence"`
	Boxes        []TextBox `json:"boxes"`
	SourceModels []string  `json:"source_models"`
	FusionMethod string    `json:"fusion_method"`
}

// PageResult pairs the raw per-engine outputs of one page with its fusion.
type PageResult struct {
	PageNumber    int                     `json:"page_number"`
	EngineOutputs map[string]EngineResult `json:"engine_outputs"`
	FusedResult   FusedResult             `json:"fused_result"`
}

// DocumentResult is the top-level multi-page result. The fused text is the
// page-ordered concatenation joined by PageBreakDelimiter and its
// confidence is the arithmetic mean of the per-page fused confidences.
type DocumentResult struct {
	PageCount                 int                     `json:"page_count"`
	Pages                     []PageResult            `json:"pages"`
	AggregatedEngineOutputs   map[string]EngineResult `json:"aggregated_engine_outputs"`
	FusedResult               FusedResult             `json:"fused_result"`
	DetectedLanguage          string                  `json:"detected_language"`
	LanguageConfidence        float64                 `json:"language_confidence"`
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
