package domain

// SourceSpec describes one source to ingest. It is the caller-facing
// side of the tagged source variant: the Type selects the connector.
type SourceSpec struct {
	// Type selects the connector (video, audio, article).
	Type SourceType

	// URL is the media URL, feed URL or article URL.
	URL string

	// Title is an optional display title; connectors fill it in from the
	// source when empty.
	Title string
}

// TranscriptSegment is a timestamped span of transcribed speech.
type TranscriptSegment struct {
	// Start is the offset in seconds from the beginning of the recording.
	Start float64

	// Text is the transcribed speech for the span.
	Text string
}

// RawSource is what a connector produces: plain text with provenance.
// The core never sees download, transcription or scraping mechanics.
type RawSource struct {
	// Ref is the provenance carried onto every question mined from this
	// source. Ref.MediaTimestamp is zero; per-question timestamps come
	// from Segments.
	Ref SourceRef

	// Text is the full source text. Used when Segments is empty.
	Text string

	// Segments holds timestamped transcript spans for spoken sources.
	// Empty for articles.
	Segments []TranscriptSegment
}
