package domain

import (
	"strings"
	"time"
	"unicode"
)

// SubjectStatus describes the indexing state of a subject.
type SubjectStatus string

const (
	// StatusIndexed means at least one ingestion completed with questions.
	StatusIndexed SubjectStatus = "indexed"

	// StatusEmpty means ingestion ran but produced no questions.
	StatusEmpty SubjectStatus = "empty"
)

// SourceCounts tallies indexed sources by type.
type SourceCounts struct {
	Video   int
	Audio   int
	Article int
}

// Total returns the number of sources across all types.
func (c SourceCounts) Total() int {
	return c.Video + c.Audio + c.Article
}

// Add returns the element-wise sum of two tallies.
func (c SourceCounts) Add(d SourceCounts) SourceCounts {
	return SourceCounts{
		Video:   c.Video + d.Video,
		Audio:   c.Audio + d.Audio,
		Article: c.Article + d.Article,
	}
}

// RegistryEntry is the per-subject bookkeeping record. It is the only
// mutable rollup state in the system: counts are additive and
// LastIndexedAt moves forward after every ingestion.
type RegistryEntry struct {
	// Subject is the display name of the indexed entity.
	Subject string

	// LastIndexedAt is when the subject was last (incrementally) ingested.
	// It governs the freshness decision.
	LastIndexedAt time.Time

	// SourceCounts tallies ingested sources by type.
	SourceCounts SourceCounts

	// QuestionCount is the number of question records indexed.
	QuestionCount int

	// Status reflects whether any questions have been indexed.
	Status SubjectStatus
}

// Slug converts a subject name to its stable partition key.
// "Virat Kohli" -> "virat_kohli". Partition keys name the per-subject
// vector file and scope every store query.
func Slug(subject string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(strings.ToLower(subject)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
