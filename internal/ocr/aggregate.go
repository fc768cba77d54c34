package ocr

import (
	"strings"
)

// PageBreakDelimiter joins per-page fused texts in the document result.
// It is explicit and parseable so reporting layers can split pages back
// apart.
const PageBreakDelimiter = "\n\n--- Page Break ---\n\n"

// Aggregate folds per-page results into one document-level result. Page
// order is preserved exactly as given; boxes are expected to arrive with
// their page numbers already stamped.
func Aggregate(pages []PageResult) DocumentResult {
	doc := DocumentResult{
		PageCount:               len(pages),
		Pages:                   pages,
		AggregatedEngineOutputs: aggregateEngineOutputs(pages),
	}

	texts := make([]string, len(pages))
	boxes := []TextBox{}
	sum := 0.0
	sourceSet := make(map[string]bool)
	var sources []string
	for i, p := range pages {
		texts[i] = p.FusedResult.Text
		boxes = append(boxes, p.FusedResult.Boxes...)
		sum += p.FusedResult.Confidence
		for _, s := range p.FusedResult.SourceModels {
			if !sourceSet[s] {
				sourceSet[s] = true
				sources = append(sources, s)
			}
		}
	}

	confidence := 0.0
	if len(pages) > 0 {
		confidence = clampConfidence(sum / float64(len(pages)))
	}
	if sources == nil {
		sources = []string{}
	}

	doc.FusedResult = FusedResult{
		Text:         strings.Join(texts, PageBreakDelimiter),
		Confidence:   confidence,
		Boxes:        boxes,
		SourceModels: sources,
		FusionMethod: FusionMethod,
	}
	return doc
}

// aggregateEngineOutputs applies the same join/concatenate/average rules
// per engine across its per-page outputs, so a caller can audit a single
// engine's full-document performance independently of fusion.
func aggregateEngineOutputs(pages []PageResult) map[string]EngineResult {
	type engineAgg struct {
		texts  []string
		boxes  []TextBox
		sum    float64
		n      int
		status EngineStatus
	}

	aggs := make(map[string]*engineAgg)
	var order []string
	for _, p := range pages {
		for _, id := range orderedEngineIDs(p.EngineOutputs) {
			out := p.EngineOutputs[id]
			agg, ok := aggs[id]
			if !ok {
				agg = &engineAgg{status: out.Status}
				aggs[id] = agg
				order = append(order, id)
			}
			agg.texts = append(agg.texts, out.Text)
			agg.boxes = append(agg.boxes, out.Boxes...)
			agg.sum += out.Confidence
			agg.n++
			// Any successful page marks the engine usable overall.
			if out.Status == StatusSuccess {
				agg.status = StatusSuccess
			}
		}
	}

	results := make(map[string]EngineResult, len(aggs))
	for _, id := range order {
		agg := aggs[id]
		confidence := 0.0
		if agg.n > 0 {
			confidence = clampConfidence(agg.sum / float64(agg.n))
		}
		if agg.boxes == nil {
			agg.boxes = []TextBox{}
		}
		results[id] = EngineResult{
			EngineID:   id,
			Text:       strings.Join(agg.texts, PageBreakDelimiter),
			Confidence: confidence,
			Boxes:      agg.boxes,
			Status:     agg.status,
		}
	}
	return results
}

// orderedEngineIDs sorts map keys so aggregation is deterministic.
func orderedEngineIDs(m map[string]EngineResult) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}
