package types

import "errors"

// Error taxonomy shared by the orchestrators. Callers match with errors.Is;
// upstream causes are attached with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidParameter signals bad configuration such as a chunk overlap
	// that is not smaller than the chunk size.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUpstreamUnavailable signals that the embedding, generation or
	// store service could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrInvalidInput signals text the provider rejects, e.g. over the
	// embedding token limit.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound signals a reference to a missing document.
	ErrNotFound = errors.New("not found")

	// ErrGenerationUnavailable signals that the answer LLM call failed;
	// the caller degrades to returning raw sources.
	ErrGenerationUnavailable = errors.New("generation unavailable")
)

// Ingestion outcomes. Skipping is deliberate, not an error.
const (
	IngestStatusIngested = "ingested"
	IngestStatusSkipped  = "skipped"
	IngestStatusFailed   = "failed"
)

// Skip reasons reported on IngestStatusSkipped.
const (
	SkipReasonEmptyContent = "empty content"
	SkipReasonTooShort     = "content below minimum length"
	SkipReasonDuplicate    = "document already ingested"
)
