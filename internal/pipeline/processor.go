/**
 * Document Processor for the OCR verification worker
 *
 * Runs the per-request pipeline:
 * - recognition ensemble per page (all engines in parallel)
 * - fusion of per-engine outputs into one result per page
 * - document aggregation with page-break delimiters
 * - language detection on the fused text
 * - optional field verification against the user field map
 * - persistence of the result and job status
 */

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/1004-Akash/mosip-decode/internal/logging"
	"github.com/1004-Akash/mosip-decode/internal/ocr"
	"github.com/1004-Akash/mosip-decode/internal/storage"
	"github.com/1004-Akash/mosip-decode/internal/verification"
)

// DocumentProcessorInterface defines the interface for document processing
type DocumentProcessorInterface interface {
	ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error
}

// ProcessRequest represents one document processing request. Pages carry
// preprocessed, ready-to-recognize images; preprocessing happens upstream.
type ProcessRequest struct {
	JobID    string
	UserID   string
	Filename string
	Pages    [][]byte
	Fields   map[string]string
	Metadata map[string]interface{}
}

// ProcessResult represents the processing outcome
type ProcessResult struct {
	Document         ocr.DocumentResult
	Verification     *verification.Report
	ResultID         string
	CacheHits        int
	ProcessingTimeMs int64
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Ensemble *ocr.Ensemble
	Fuser    *ocr.Fuser
	Detector ocr.LanguageDetector
	Verifier *verification.Verifier
	// Storage may be nil; processing then skips persistence.
	Storage *storage.Manager
}

// DocumentProcessor handles document processing
type DocumentProcessor struct {
	ensemble *ocr.Ensemble
	fuser    *ocr.Fuser
	detector ocr.LanguageDetector
	verifier *verification.Verifier
	storage  *storage.Manager
	log      *logging.Logger
}

// NewDocumentProcessor creates a new document processor
func NewDocumentProcessor(cfg *ProcessorConfig) (*DocumentProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Ensemble == nil {
		return nil, fmt.Errorf("ensemble is required")
	}
	if cfg.Fuser == nil {
		return nil, fmt.Errorf("fuser is required")
	}

	detector := cfg.Detector
	if detector == nil {
		detector = ocr.NewLanguageDetector()
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = verification.NewVerifier(verification.DefaultConfig(), nil)
	}

	return &DocumentProcessor{
		ensemble: cfg.Ensemble,
		fuser:    cfg.Fuser,
		detector: detector,
		verifier: verifier,
		storage:  cfg.Storage,
		log:      logging.NewLogger("processor"),
	}, nil
}

// ProcessDocument processes a document through the complete pipeline.
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	startTime := time.Now()
	log := p.log.WithJob(req.JobID)

	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no pages to process")
	}

	log.Info("starting document pipeline",
		"filename", req.Filename, "pages", len(req.Pages), "fields", len(req.Fields))

	// Step 1: per-page ensemble + fusion.
	result := &ProcessResult{}
	pages := make([]ocr.PageResult, 0, len(req.Pages))
	for i, image := range req.Pages {
		pageNum := i + 1

		outputs, fused, hit := p.recognizePage(ctx, image)
		if hit {
			result.CacheHits++
			log.Info("page served from cache", "page", pageNum)
		}

		// Boxes must carry their source page before aggregation.
		outputs = stampEngineOutputs(outputs, pageNum)
		fused = stampFused(fused, pageNum)

		pages = append(pages, ocr.PageResult{
			PageNumber:    pageNum,
			EngineOutputs: outputs,
			FusedResult:   fused,
		})
		log.Info("page fused",
			"page", pageNum, "confidence", fused.Confidence,
			"sources", len(fused.SourceModels), "text_length", len(fused.Text))
	}

	// Step 2: document aggregation.
	doc := ocr.Aggregate(pages)

	// Step 3: language detection on the fused text.
	doc.DetectedLanguage, doc.LanguageConfidence = p.detector.Detect(doc.FusedResult.Text)
	log.Info("language detected",
		"language", doc.DetectedLanguage, "confidence", doc.LanguageConfidence)

	result.Document = doc

	// Step 4: field verification, when the caller supplied fields.
	if len(req.Fields) > 0 {
		result.Verification = p.verifier.Verify(doc.FusedResult.Text, doc.FusedResult.Confidence, req.Fields)
		log.Info("verification complete",
			"fields", result.Verification.Summary.TotalFields,
			"matches", result.Verification.Summary.Matches,
			"match_rate", result.Verification.Summary.MatchRate)
	}

	// Step 5: persistence.
	if p.storage != nil {
		resultID, err := p.storage.StoreResult(ctx, &storage.ResultRecord{
			JobID:              req.JobID,
			UserID:             req.UserID,
			Filename:           req.Filename,
			PageCount:          doc.PageCount,
			Confidence:         doc.FusedResult.Confidence,
			DetectedLanguage:   doc.DetectedLanguage,
			DocumentResult:     doc,
			VerificationReport: result.Verification,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store result: %w", err)
		}
		result.ResultID = resultID
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	log.Info("pipeline complete",
		"confidence", doc.FusedResult.Confidence,
		"page_count", doc.PageCount, "took_ms", result.ProcessingTimeMs)
	return result, nil
}

// recognizePage runs the ensemble and fusion for one image, consulting
// the cache first when one is configured.
func (p *DocumentProcessor) recognizePage(ctx context.Context, image []byte) (map[string]ocr.EngineResult, ocr.FusedResult, bool) {
	if p.storage != nil && p.storage.Cache() != nil {
		if outputs, fused, ok := p.storage.Cache().GetPage(ctx, image); ok {
			return outputs, fused, true
		}
	}

	outputs := p.ensemble.RunEnsemble(ctx, image)
	fused := p.fuser.Fuse(outputs)

	if p.storage != nil && p.storage.Cache() != nil {
		p.storage.Cache().PutPage(ctx, image, outputs, fused)
	}
	return outputs, fused, false
}

// UpdateJobStatus updates job status in the database; a missing storage
// backend makes this a no-op so the pipeline stays testable in isolation.
func (p *DocumentProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error {
	if p.storage == nil {
		return nil
	}
	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Metadata: metadata,
	}
	if metadata != nil {
		if confidence, ok := metadata["confidence"].(float64); ok {
			update.Confidence = confidence
		}
		if processingTime, ok := metadata["processingTime"].(int64); ok {
			update.ProcessingTimeMs = processingTime
		}
		if errorMsg, ok := metadata["error"].(string); ok {
			update.ErrorCode = "PROCESSING_ERROR"
			update.ErrorMessage = errorMsg
		}
	}
	return p.storage.UpdateJobStatus(ctx, update)
}

// stampEngineOutputs rewrites every engine box with the page number,
// producing fresh values rather than mutating the inputs.
func stampEngineOutputs(outputs map[string]ocr.EngineResult, pageNum int) map[string]ocr.EngineResult {
	stamped := make(map[string]ocr.EngineResult, len(outputs))
	for id, res := range outputs {
		res.Boxes = stampBoxes(res.Boxes, pageNum)
		stamped[id] = res
	}
	return stamped
}

func stampFused(fused ocr.FusedResult, pageNum int) ocr.FusedResult {
	fused.Boxes = stampBoxes(fused.Boxes, pageNum)
	return fused
}

func stampBoxes(boxes []ocr.TextBox, pageNum int) []ocr.TextBox {
	stamped := make([]ocr.TextBox, len(boxes))
	for i, b := range boxes {
		b.PageNum = pageNum
		stamped[i] = b
	}
	return stamped
}
