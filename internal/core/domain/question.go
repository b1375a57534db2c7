package domain

import "time"

// SourceType identifies the media kind a question was mined from.
// The set is closed: video, audio and article are the only variants.
type SourceType string

const (
	SourceVideo   SourceType = "video"
	SourceAudio   SourceType = "audio"
	SourceArticle SourceType = "article"
)

// Valid reports whether the source type is one of the closed set.
func (t SourceType) Valid() bool {
	switch t {
	case SourceVideo, SourceAudio, SourceArticle:
		return true
	}
	return false
}

// SourceRef is the provenance of a question: where it was asked.
type SourceRef struct {
	// Type is the media kind of the source.
	Type SourceType

	// URL is the location of the source.
	URL string

	// Title is the human-readable title of the source.
	Title string

	// MediaTimestamp is the offset in seconds into the recording where
	// the question was asked. Zero for articles.
	MediaTimestamp float64
}

// QuestionRecord is one interview question indexed for a subject.
// Records are immutable once persisted and are never edited in place;
// they are removed only by an explicit full reset of the subject.
type QuestionRecord struct {
	// ID is assigned by a per-subject monotonically increasing counter.
	// Once assigned it is never reused or reassigned.
	ID int64

	// Subject is the entity the question was asked to.
	Subject string

	// Text is the question itself. Never empty.
	Text string

	// Sources lists every source that asked this question. With
	// deduplication disabled there is exactly one entry; with
	// deduplication enabled a merged record accumulates all contributors.
	Sources []SourceRef

	// CapturedAt is when the record was indexed.
	CapturedAt time.Time
}

// Validate checks the record's structural invariants.
func (q QuestionRecord) Validate() error {
	if q.Text == "" {
		return ErrEmptyText
	}
	if q.Subject == "" {
		return ErrInvalidInput
	}
	if len(q.Sources) == 0 {
		return ErrInvalidInput
	}
	for _, src := range q.Sources {
		if !src.Type.Valid() {
			return ErrUnsupportedType
		}
	}
	return nil
}

// Match is a retrieval hit: a previously-asked question together with
// its cosine similarity to the query.
type Match struct {
	Record QuestionRecord
	Score  float64
}
