package domain

// Action is the workflow path chosen for a request.
type Action string

const (
	// ActionIngest builds a subject's index from scratch.
	ActionIngest Action = "INGEST"

	// ActionRetrieve answers from the existing index without fetching.
	ActionRetrieve Action = "RETRIEVE"

	// ActionIncrementalIngest fetches new sources and appends to the
	// existing index without discarding records.
	ActionIncrementalIngest Action = "INCREMENTAL_INGEST"
)

// Decision is the output of the decision policy: the chosen action plus
// a human-readable reason for observability.
type Decision struct {
	Action Action
	Reason string
}
