package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
	"github.com/askedlabs/asked-cli/internal/logger"
)

// Extraction defaults.
const (
	DefaultMinTokens   = 3
	DefaultMaxTokens   = 200
	DefaultRefineBatch = 30
)

// interrogatives is the fixed set of tokens that mark a sentence as a
// question candidate when it appears first.
var interrogatives = map[string]struct{}{
	"what": {}, "why": {}, "how": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "would": {}, "could": {}, "can": {},
	"do": {}, "does": {}, "did": {}, "is": {}, "are": {},
}

// sentenceSplit segments text at terminal punctuation, keeping the
// punctuation with the sentence.
var sentenceSplit = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)

// Candidate is a Stage-1 question candidate with its provenance.
// ExtraSources stays empty until deduplication merges contributors
// from other sources into the representative.
type Candidate struct {
	Text         string
	Source       domain.SourceRef
	ExtraSources []domain.SourceRef
}

// AllSources returns the candidate's provenance as a single list.
func (c Candidate) AllSources() []domain.SourceRef {
	return append([]domain.SourceRef{c.Source}, c.ExtraSources...)
}

// ExtractorConfig tunes the extraction pipeline.
type ExtractorConfig struct {
	// MinTokens and MaxTokens bound accepted sentence lengths.
	MinTokens int
	MaxTokens int

	// RefineBatchSize is the number of candidates per Stage-2 batch.
	RefineBatchSize int

	// Dedup enables run-level merging of semantically near-duplicate
	// questions. Off by default: every surviving candidate becomes its
	// own record with exactly one source.
	Dedup bool

	// DedupThreshold is the cosine similarity above which two candidates
	// are considered the same question.
	DedupThreshold float64
}

// withDefaults fills zero fields.
func (c ExtractorConfig) withDefaults() ExtractorConfig {
	if c.MinTokens <= 0 {
		c.MinTokens = DefaultMinTokens
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.RefineBatchSize <= 0 {
		c.RefineBatchSize = DefaultRefineBatch
	}
	if c.DedupThreshold <= 0 {
		c.DedupThreshold = 0.90
	}
	return c
}

// Extractor mines interviewer questions from source text in two
// stages: cheap deterministic heuristics tuned for recall, then an
// optional refinement pass over candidate strings only. The refiner
// is optional; when it is nil or fails, Stage-1 output is used and the
// run is marked degraded.
type Extractor struct {
	cfg     ExtractorConfig
	refiner driven.Refiner
}

// NewExtractor creates an extractor. refiner may be nil.
func NewExtractor(cfg ExtractorConfig, refiner driven.Refiner) *Extractor {
	return &Extractor{cfg: cfg.withDefaults(), refiner: refiner}
}

// HeuristicCandidates runs Stage 1 over free text. A sentence is a
// candidate iff it ends with a question mark or begins with an
// interrogative token, and its token count falls inside the configured
// window. Deterministic, no external calls, O(n) in sentences.
func (e *Extractor) HeuristicCandidates(text string) []string {
	sentences := splitSentences(text)

	var candidates []string
	for _, sentence := range sentences {
		if e.isCandidate(sentence) {
			candidates = append(candidates, ensureQuestionMark(sentence))
		}
	}
	return candidates
}

// CandidatesFromSource runs Stage 1 over a raw source, attaching
// provenance. Segment-based sources carry per-question media
// timestamps; plain-text sources carry the source reference as-is.
func (e *Extractor) CandidatesFromSource(raw *domain.RawSource) []Candidate {
	var out []Candidate

	if len(raw.Segments) > 0 {
		for _, seg := range raw.Segments {
			for _, text := range e.HeuristicCandidates(seg.Text) {
				ref := raw.Ref
				ref.MediaTimestamp = seg.Start
				out = append(out, Candidate{Text: text, Source: ref})
			}
		}
		return out
	}

	for _, text := range e.HeuristicCandidates(raw.Text) {
		out = append(out, Candidate{Text: text, Source: raw.Ref})
	}
	return out
}

// Refine runs Stage 2 over candidates in fixed-size batches. The
// refiner sees candidate strings only, never surrounding source text.
// Per batch the output may only shrink; a failing batch falls back to
// its Stage-1 input and flips the degraded flag instead of failing the
// ingestion.
func (e *Extractor) Refine(ctx context.Context, candidates []Candidate) (refined []Candidate, degraded bool) {
	if e.refiner == nil {
		logger.Debug("No refiner configured, keeping %d heuristic candidates", len(candidates))
		return candidates, true
	}

	for start := 0; start < len(candidates); start += e.cfg.RefineBatchSize {
		end := min(start+e.cfg.RefineBatchSize, len(candidates))
		batch := candidates[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		cleaned, err := e.refiner.RefineBatch(ctx, texts)
		if err != nil {
			logger.Warn("Refinement batch %d-%d failed, falling back to heuristics: %v", start, end, err)
			refined = append(refined, batch...)
			degraded = true
			continue
		}
		if len(cleaned) > len(batch) {
			logger.Warn("Refiner returned %d questions for %d candidates, truncating", len(cleaned), len(batch))
			cleaned = cleaned[:len(batch)]
		}

		refined = append(refined, matchRefined(batch, cleaned)...)
	}

	logger.Info("Refinement: %d candidates -> %d questions (degraded=%t)", len(candidates), len(refined), degraded)
	return refined, degraded
}

// matchRefined maps refined strings back to candidate provenance.
// A refined string inherits the source of the candidate it matches;
// rewritten strings inherit the source of the first unclaimed
// candidate, preserving batch order.
func matchRefined(batch []Candidate, cleaned []string) []Candidate {
	claimed := make([]bool, len(batch))
	out := make([]Candidate, 0, len(cleaned))

	for _, text := range cleaned {
		idx := -1
		for i, c := range batch {
			if !claimed[i] && strings.EqualFold(strings.TrimSpace(c.Text), strings.TrimSpace(text)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i := range batch {
				if !claimed[i] {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			break
		}
		claimed[idx] = true
		out = append(out, Candidate{Text: strings.TrimSpace(text), Source: batch[idx].Source})
	}
	return out
}

// Dedup merges semantically near-duplicate candidates discovered across
// the whole run into one representative that accumulates every
// contributing source. Greedy single-pass clustering over normalized
// embeddings: a candidate joins the first cluster whose representative
// scores at or above the threshold.
//
// Only called when the dedup switch is on; callers must pass one
// embedding per candidate, aligned by index.
func (e *Extractor) Dedup(candidates []Candidate, embeddings [][]float32) ([]Candidate, [][]float32, error) {
	if len(candidates) != len(embeddings) {
		return nil, nil, fmt.Errorf("%w: %d candidates, %d embeddings", domain.ErrInvalidInput, len(candidates), len(embeddings))
	}

	var (
		reps    []Candidate
		repVecs [][]float32
	)

	for i, cand := range candidates {
		merged := false
		for j := range reps {
			if dotProduct(repVecs[j], embeddings[i]) >= float32(e.cfg.DedupThreshold) {
				reps[j] = mergeSources(reps[j], cand)
				merged = true
				break
			}
		}
		if !merged {
			reps = append(reps, cand)
			repVecs = append(repVecs, embeddings[i])
		}
	}

	logger.Info("Deduplication: %d candidates -> %d representatives", len(candidates), len(reps))
	return reps, repVecs, nil
}

// DedupEnabled reports whether the run-level dedup switch is on.
func (e *Extractor) DedupEnabled() bool {
	return e.cfg.Dedup
}

// mergeSources folds a duplicate's provenance into the representative.
// Sources carries the accumulated refs in a Candidate via ExtraSources.
func mergeSources(rep, dup Candidate) Candidate {
	rep.ExtraSources = append(rep.ExtraSources, dup.Source)
	rep.ExtraSources = append(rep.ExtraSources, dup.ExtraSources...)
	return rep
}

// isCandidate applies the Stage-1 rules to one sentence.
func (e *Extractor) isCandidate(sentence string) bool {
	tokens := strings.Fields(strings.ToLower(sentence))
	if len(tokens) < e.cfg.MinTokens || len(tokens) > e.cfg.MaxTokens {
		return false
	}

	if strings.HasSuffix(sentence, "?") {
		return true
	}

	first := strings.Trim(tokens[0], ",.;:!\"'")
	_, ok := interrogatives[first]
	return ok
}

// splitSentences segments text at terminal punctuation. A trailing
// fragment without punctuation is kept as its own sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	consumed := 0
	for _, m := range sentenceSplit.FindAllStringSubmatchIndex(text, -1) {
		s := strings.TrimSpace(text[m[2]:m[3]])
		if s != "" {
			sentences = append(sentences, s)
		}
		consumed = m[1]
	}
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// ensureQuestionMark appends a terminal question mark to accepted
// candidates that begin with an interrogative but trail off without one.
func ensureQuestionMark(sentence string) string {
	sentence = strings.TrimSpace(sentence)
	if strings.HasSuffix(sentence, "?") {
		return sentence
	}
	sentence = strings.TrimRight(sentence, ".!")
	return sentence + "?"
}

// dotProduct computes the inner product of two equal-length vectors.
// For unit-normalized vectors this is the cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
