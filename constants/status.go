package constants

// OCRStatus is the canonical status of an uploaded document.
// Stable values (store these exact strings in DB).
type OCRStatus string

const (
	OCRStatusPending           OCRStatus = "pending"
	OCRStatusCompleted         OCRStatus = "completed"
	OCRStatusFailed            OCRStatus = "failed"
	OCRStatusUnsupportedFormat OCRStatus = "unsupported_format" // pdf
	OCRStatusInvalidFormat     OCRStatus = "invalid_format"     // anything that is not an image or pdf
)

// ApplicationStatus is the review lifecycle of a loan application. Only
// pending is written here; review tooling moves it forward.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusReviewed ApplicationStatus = "reviewed"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// OutcomeStatus is what the pipeline reports back to the calling workflow.
type OutcomeStatus string

const (
	OutcomeNoData   OutcomeStatus = "no_data"
	OutcomePartial  OutcomeStatus = "partial"
	OutcomeComplete OutcomeStatus = "complete"
)
