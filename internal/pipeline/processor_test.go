/**
 * Document Pipeline Tests
 *
 * End-to-end pipeline runs against scripted recognition engines: page
 * numbering, aggregation, language detection, field verification and the
 * empty-document rejection.
 */

package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/1004-Akash/mosip-decode/internal/ocr"
	"github.com/1004-Akash/mosip-decode/internal/verification"
)

// scriptedEngine returns a fixed output for every image.
type scriptedEngine struct {
	id         string
	text       string
	confidence float64
	err        error
}

func (s *scriptedEngine) ID() string { return s.id }

func (s *scriptedEngine) Recognize(ctx context.Context, image []byte) (*ocr.EngineOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ocr.EngineOutput{
		Text:       s.text,
		Confidence: s.confidence,
		Boxes: []ocr.TextBox{
			{Text: s.text, BBox: ocr.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: s.confidence},
		},
	}, nil
}

// staticDetector pins language detection for deterministic assertions.
type staticDetector struct{}

func (staticDetector) Detect(text string) (string, float64) { return "en", 0.99 }

func newTestProcessor(t *testing.T, engines []ocr.Engine) *DocumentProcessor {
	t.Helper()
	ensemble, err := ocr.NewEnsemble(engines, time.Second)
	if err != nil {
		t.Fatalf("NewEnsemble failed: %v", err)
	}
	proc, err := NewDocumentProcessor(&ProcessorConfig{
		Ensemble: ensemble,
		Fuser:    ocr.NewFuser(ocr.FusionConfig{}, ocr.NewDictionary(nil), ensemble.EngineIDs()),
		Detector: staticDetector{},
		Verifier: verification.NewVerifier(verification.DefaultConfig(), nil),
	})
	if err != nil {
		t.Fatalf("NewDocumentProcessor failed: %v", err)
	}
	return proc
}

func TestProcessDocumentRejectsEmptyRequest(t *testing.T) {
	proc := newTestProcessor(t, []ocr.Engine{
		&scriptedEngine{id: "a", text: "x", confidence: 0.9},
	})

	_, err := proc.ProcessDocument(context.Background(), &ProcessRequest{JobID: "job-1"})
	if err == nil {
		t.Fatal("expected error for request with no pages")
	}
}

func TestProcessDocumentMultiPage(t *testing.T) {
	proc := newTestProcessor(t, []ocr.Engine{
		&scriptedEngine{id: "a", text: "Name: John Smith", confidence: 0.9},
		&scriptedEngine{id: "b", text: "Name: John Smith", confidence: 0.8},
	})

	result, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:  "job-2",
		Pages:  [][]byte{[]byte("page1"), []byte("page2"), []byte("page3")},
		Fields: map[string]string{"name": "John Smith"},
	})
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	doc := result.Document
	if doc.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", doc.PageCount)
	}
	if got := strings.Count(doc.FusedResult.Text, "--- Page Break ---"); got != 2 {
		t.Errorf("expected 2 page breaks in fused text, got %d", got)
	}
	if doc.DetectedLanguage != "en" || doc.LanguageConfidence != 0.99 {
		t.Errorf("expected pinned language detection, got %q/%v", doc.DetectedLanguage, doc.LanguageConfidence)
	}

	// Every box must carry its source page.
	for _, p := range doc.Pages {
		for _, b := range p.FusedResult.Boxes {
			if b.PageNum != p.PageNumber {
				t.Errorf("page %d box stamped with page %d", p.PageNumber, b.PageNum)
			}
		}
		for id, out := range p.EngineOutputs {
			for _, b := range out.Boxes {
				if b.PageNum != p.PageNumber {
					t.Errorf("page %d engine %q box stamped with page %d", p.PageNumber, id, b.PageNum)
				}
			}
		}
	}

	if result.Verification == nil {
		t.Fatal("expected verification report when fields are supplied")
	}
	field := result.Verification.Fields["name"]
	if field.MatchStatus != verification.StatusMatch {
		t.Errorf("expected name field to match, got %q (ocr value %q)", field.MatchStatus, field.OCRValue)
	}
}

func TestProcessDocumentSkipsVerificationWithoutFields(t *testing.T) {
	proc := newTestProcessor(t, []ocr.Engine{
		&scriptedEngine{id: "a", text: "hello", confidence: 0.9},
	})

	result, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID: "job-3",
		Pages: [][]byte{[]byte("page1")},
	})
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if result.Verification != nil {
		t.Error("expected no verification report without fields")
	}
}

// TestProcessDocumentSurvivesEngineFailure checks the pipeline completes
// when one engine keeps failing, on the other engine's output.
func TestProcessDocumentSurvivesEngineFailure(t *testing.T) {
	proc := newTestProcessor(t, []ocr.Engine{
		&scriptedEngine{id: "good", text: "document text", confidence: 0.9},
		&scriptedEngine{id: "bad", err: context.DeadlineExceeded},
	})

	result, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID: "job-4",
		Pages: [][]byte{[]byte("page1")},
	})
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if result.Document.FusedResult.Text != "document text" {
		t.Errorf("expected surviving engine's text, got %q", result.Document.FusedResult.Text)
	}

	bad := result.Document.Pages[0].EngineOutputs["bad"]
	if bad.Status != ocr.StatusFailed {
		t.Errorf("failing engine should be recorded as failed, got %q", bad.Status)
	}
}

func TestUpdateJobStatusWithoutStorage(t *testing.T) {
	proc := newTestProcessor(t, []ocr.Engine{
		&scriptedEngine{id: "a", text: "x", confidence: 0.9},
	})

	if err := proc.UpdateJobStatus(context.Background(), "job-5", "processing", nil); err != nil {
		t.Errorf("status update without storage should be a no-op, got %v", err)
	}
}
