/**
 * Ensemble Orchestrator - runs every configured recognition engine
 * concurrently against one image and collects every outcome.
 *
 * An engine that errors, times out or returns nothing is still recorded;
 * nothing is ever silently dropped from the result map.
 */

package ocr

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/1004-Akash/mosip-decode/internal/errors"
	"github.com/1004-Akash/mosip-decode/internal/logging"
)

// DefaultEngineTimeout bounds a single engine invocation.
const DefaultEngineTimeout = 300 * time.Second

// EngineOutput is what a recognition backend produces for one image.
type EngineOutput struct {
	Text       string
	Confidence float64
	Boxes      []TextBox
}

// Engine is the single polymorphic capability the orchestrator calls.
// Concrete backends (local Tesseract, remote recognition services) are
// variants behind this interface and are added without touching the
// orchestrator.
type Engine interface {
	ID() string
	Recognize(ctx context.Context, image []byte) (*EngineOutput, error)
}

// Ensemble fans one image out to a fixed set of engines.
type Ensemble struct {
	engines []Engine
	timeout time.Duration
	log     *logging.Logger
}

// NewEnsemble builds an orchestrator over the given engines. An empty
// engine set is the one fatal configuration error: there is nothing to
// orchestrate.
func NewEnsemble(engines []Engine, perEngineTimeout time.Duration) (*Ensemble, error) {
	if len(engines) == 0 {
		return nil, apperrors.NewNoEnginesConfiguredError()
	}
	if perEngineTimeout <= 0 {
		perEngineTimeout = DefaultEngineTimeout
	}
	return &Ensemble{
		engines: engines,
		timeout: perEngineTimeout,
		log:     logging.NewLogger("ensemble"),
	}, nil
}

// EngineIDs returns the engine identifiers in declaration order. Fusion
// uses this order for all of its tie-breaks.
func (e *Ensemble) EngineIDs() []string {
	ids := make([]string, len(e.engines))
	for i, eng := range e.engines {
		ids[i] = eng.ID()
	}
	return ids
}

// RunEnsemble invokes all engines concurrently against the same image and
// returns only after every engine has completed or timed out. Each entry
// of the returned map is owned by the caller afterwards.
//
// Caller cancellation propagates into every in-flight engine call, but the
// returned map is still well-formed: cancelled engines are recorded with
// status timeout rather than surfaced as an error.
func (e *Ensemble) RunEnsemble(ctx context.Context, image []byte) map[string]EngineResult {
	// Each goroutine writes only its own slot; the channel join is the
	// only synchronization needed.
	slots := make([]EngineResult, len(e.engines))
	done := make(chan int, len(e.engines))

	for i, eng := range e.engines {
		go func(i int, eng Engine) {
			slots[i] = e.runOne(ctx, eng, image)
			done <- i
		}(i, eng)
	}

	for range e.engines {
		<-done
	}

	results := make(map[string]EngineResult, len(e.engines))
	for _, res := range slots {
		results[res.EngineID] = res
	}
	return results
}

// runOne executes a single engine bounded by the per-engine timeout and
// converts every failure mode into a status on the result.
func (e *Ensemble) runOne(ctx context.Context, eng Engine, image []byte) EngineResult {
	engCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		out *EngineOutput
		err error
	}
	ch := make(chan outcome, 1)

	start := time.Now()
	go func() {
		out, err := eng.Recognize(engCtx, image)
		ch <- outcome{out: out, err: err}
	}()

	select {
	case <-engCtx.Done():
		// Abandon the call; no partial text is used.
		e.log.Warn("engine abandoned", "engine", eng.ID(), "after", time.Since(start), "reason", engCtx.Err())
		return EngineResult{
			EngineID: eng.ID(),
			Status:   StatusTimeout,
			Boxes:    []TextBox{},
			Error:    engCtx.Err().Error(),
		}
	case oc := <-ch:
		if oc.err != nil {
			e.log.Warn("engine failed", "engine", eng.ID(), "error", oc.err)
			return EngineResult{
				EngineID: eng.ID(),
				Status:   StatusFailed,
				Boxes:    []TextBox{},
				Error:    oc.err.Error(),
			}
		}
		return e.sanitize(eng.ID(), oc.out, time.Since(start))
	}
}

// sanitize normalizes a raw engine output into an EngineResult, clamping
// out-of-range confidences and classifying empty text.
func (e *Ensemble) sanitize(engineID string, out *EngineOutput, took time.Duration) EngineResult {
	res := EngineResult{
		EngineID: engineID,
		Status:   StatusSuccess,
		Boxes:    []TextBox{},
	}
	if out != nil {
		res.Text = out.Text
		res.Confidence = clampConfidence(out.Confidence)
		if out.Boxes != nil {
			res.Boxes = out.Boxes
		}
	}
	if strings.TrimSpace(res.Text) == "" {
		res.Status = StatusEmptyOutput
		res.Confidence = 0
	}
	e.log.Info("engine completed",
		"engine", engineID, "status", res.Status,
		"confidence", res.Confidence, "text_length", len(res.Text), "took", took)
	return res
}

// clampConfidence forces a confidence into [0,1]; NaN becomes 0.
func clampConfidence(c float64) float64 {
	if c != c || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
