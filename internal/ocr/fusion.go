/**
 * Fusion Engine - combines per-engine results for one page into a single
 * output via confidence-weighted selection, edit-distance token
 * correction, dictionary validation and bounding-box merging.
 *
 * Fusion is a pure function of its inputs: no randomness, no clock, and
 * every tie is broken by engine declaration order, so identical inputs
 * always fuse to byte-identical results.
 */

package ocr

import (
	"strings"
)

// FusionMethod names the combination strategy stamped on every result.
const FusionMethod = "confidence_weighted_with_validation"

// FusionConfig carries the fusion thresholds. Zero values fall back to
// the defaults below.
type FusionConfig struct {
	// MinConfidence excludes low-confidence successes from the voting
	// pool (default 0.5). Zero means the default; pass a negative value
	// to disable the gate and admit every success.
	MinConfidence float64
	// TokenSimilarity is the normalized similarity at which tokens from
	// different engines are considered to agree (default 0.7).
	TokenSimilarity float64
	// DictionarySimilarity is the minimum similarity for a dictionary
	// substitution (default 0.7).
	DictionarySimilarity float64
	// BoxOverlap is the IoU at which two boxes refer to the same text
	// region (default 0.3).
	BoxOverlap float64
}

func (c FusionConfig) withDefaults() FusionConfig {
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.5
	}
	if c.TokenSimilarity == 0 {
		c.TokenSimilarity = 0.7
	}
	if c.DictionarySimilarity == 0 {
		c.DictionarySimilarity = 0.7
	}
	if c.BoxOverlap == 0 {
		c.BoxOverlap = 0.3
	}
	return c
}

// Fuser combines per-engine outputs for one page. The dictionary is a
// shared read-only resource; a Fuser is safe for concurrent use.
type Fuser struct {
	cfg  FusionConfig
	dict *Dictionary
	// engineOrder fixes the declaration order used for every tie-break.
	engineOrder []string
}

// NewFuser builds a fuser over the given engine declaration order.
func NewFuser(cfg FusionConfig, dict *Dictionary, engineOrder []string) *Fuser {
	if dict == nil {
		dict = NewDefaultDictionary()
	}
	return &Fuser{
		cfg:         cfg.withDefaults(),
		dict:        dict,
		engineOrder: append([]string(nil), engineOrder...),
	}
}

// Fuse combines the per-engine results for one image. All engines having
// failed is a normal outcome and yields an empty zero-confidence result.
func (f *Fuser) Fuse(results map[string]EngineResult) FusedResult {
	pool := f.selectPool(results)
	if len(pool) == 0 {
		return FusedResult{
			Text:         "",
			Confidence:   0,
			Boxes:        []TextBox{},
			SourceModels: []string{},
			FusionMethod: FusionMethod,
		}
	}

	// Stage A: mean pool confidence, primary text from the best member.
	var sum float64
	primary := pool[0]
	for _, r := range pool {
		sum += r.Confidence
		if r.Confidence > primary.Confidence {
			primary = r
		}
	}
	fusedConfidence := clampConfidence(sum / float64(len(pool)))

	// Stage B: positional token correction against the other members.
	others := make([][]string, 0, len(pool)-1)
	for _, r := range pool {
		if r.EngineID != primary.EngineID {
			others = append(others, tokenize(r.Text))
		}
	}
	corrected := f.correctTokens(tokenize(primary.Text), others)

	// Stage C: dictionary validation of the corrected tokens.
	validated := f.validateTokens(corrected)

	sources := make([]string, len(pool))
	for i, r := range pool {
		sources[i] = r.EngineID
	}

	return FusedResult{
		Text:         strings.Join(validated, " "),
		Confidence:   fusedConfidence,
		Boxes:        f.mergeBoxes(pool),
		SourceModels: sources,
		FusionMethod: FusionMethod,
	}
}

// selectPool applies the Stage A confidence gate. Successful results at or
// above MinConfidence form the pool; if that leaves nothing, the single
// best successful result is used regardless of threshold. No successes at
// all means an empty pool. The returned slice follows engine declaration
// order.
func (f *Fuser) selectPool(results map[string]EngineResult) []EngineResult {
	ordered := f.orderedResults(results)

	var pool []EngineResult
	for _, r := range ordered {
		if r.Status == StatusSuccess && r.Confidence >= f.cfg.MinConfidence {
			pool = append(pool, r)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	// Threshold fallback: the highest-confidence success, ties going to
	// the earliest-declared engine.
	var best *EngineResult
	for i := range ordered {
		r := &ordered[i]
		if r.Status != StatusSuccess {
			continue
		}
		if best == nil || r.Confidence > best.Confidence {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	return []EngineResult{*best}
}

// orderedResults lays the map out in engine declaration order, appending
// any result whose engine is not declared (sorted inline by id) so nothing
// is ever dropped.
func (f *Fuser) orderedResults(results map[string]EngineResult) []EngineResult {
	ordered := make([]EngineResult, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, id := range f.engineOrder {
		if r, ok := results[id]; ok {
			ordered = append(ordered, r)
			seen[id] = true
		}
	}
	var extra []string
	for id := range results {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	// Insertion sort keeps undeclared engines deterministic too.
	for i := 1; i < len(extra); i++ {
		for j := i; j > 0 && extra[j] < extra[j-1]; j-- {
			extra[j], extra[j-1] = extra[j-1], extra[j]
		}
	}
	for _, id := range extra {
		ordered = append(ordered, results[id])
	}
	return ordered
}

// correctTokens implements Stage B: for each primary token position, when
// a strict majority of the other outputs agree on a token (within the
// similarity threshold) that differs from the primary token, the majority
// token wins. A single dissenting output is never a majority, so in a
// two-member pool the primary text always stands. Words unique to the
// primary engine are preserved.
func (f *Fuser) correctTokens(primary []string, others [][]string) []string {
	if len(others) == 0 {
		return primary
	}
	out := make([]string, len(primary))
	for i, tok := range primary {
		candidates := make([]string, 0, len(others))
		for _, toks := range others {
			if i < len(toks) {
				candidates = append(candidates, toks[i])
			}
		}
		out[i] = tok
		if len(candidates) == 0 {
			continue
		}
		// Pick the candidate with the most agreeing outputs; earlier
		// candidates win ties, which follows declaration order.
		bestTok := ""
		bestAgree := 0
		for _, c := range candidates {
			agree := 0
			for _, other := range candidates {
				if Similarity(c, other) >= f.cfg.TokenSimilarity {
					agree++
				}
			}
			if agree > bestAgree {
				bestAgree = agree
				bestTok = c
			}
		}
		if bestTok != tok && bestAgree >= 2 && bestAgree*2 > len(others) {
			out[i] = bestTok
		}
	}
	return out
}

// validateTokens implements Stage C: every token unknown to the dictionary
// is replaced by its closest known word when similar enough, and kept
// untouched otherwise so proper nouns survive.
func (f *Fuser) validateTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok
		if f.dict.Contains(tok) {
			continue
		}
		if match, sim := f.dict.Closest(tok); sim >= f.cfg.DictionarySimilarity {
			out[i] = match
		}
	}
	return out
}

// mergeBoxes implements Stage D: boxes from all pool members (declaration
// order) are grouped by IoU >= BoxOverlap and only the highest-confidence
// member of each group survives, with its page number untouched.
func (f *Fuser) mergeBoxes(pool []EngineResult) []TextBox {
	var all []TextBox
	for _, r := range pool {
		all = append(all, r.Boxes...)
	}

	merged := make([]TextBox, 0, len(all))
	used := make([]bool, len(all))
	for i := range all {
		if used[i] {
			continue
		}
		best := all[i]
		used[i] = true
		for j := i + 1; j < len(all); j++ {
			if used[j] {
				continue
			}
			if all[i].BBox.IoU(all[j].BBox) >= f.cfg.BoxOverlap {
				used[j] = true
				if all[j].Confidence > best.Confidence {
					best = all[j]
				}
			}
		}
		merged = append(merged, best)
	}
	return merged
}

// tokenize splits on whitespace; empty text yields no tokens.
func tokenize(text string) []string {
	return strings.Fields(text)
}
