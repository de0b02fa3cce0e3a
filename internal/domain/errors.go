package domain

import "errors"

var (
	// ErrDocumentParse marks a document that could not be rasterized or
	// parsed. The document is excluded; the batch continues.
	ErrDocumentParse = errors.New("document parse failure")

	// ErrStageExecution marks a work item that failed inside a stage. The
	// item is excluded; the batch continues.
	ErrStageExecution = errors.New("stage execution failure")

	// ErrConfiguration marks an invalid stage-flag combination or an
	// unknown aggregation name. Raised before any work is submitted.
	ErrConfiguration = errors.New("configuration error")

	// ErrResourceUnavailable marks a resource pool that cannot be sized or
	// reached. Fatal to the whole run.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrExternalTool marks a non-zero exit or malformed output from an
	// external subprocess. Treated as ErrDocumentParse by the orchestrator.
	ErrExternalTool = errors.New("external tool failure")
)
