package dto

// Lifecycle outcome verbs accepted by the status endpoint. Legacy modality
// spellings are resolved through NormalizeModality before reaching the core.
const (
	OutcomeUnderReview       = "under_review"
	OutcomeApproveExposition = "approve_exposition"
	OutcomeApproveOral       = "approve_oral"
	OutcomeReject            = "reject"
)

// StatusChangeRequest describes a lifecycle transition.
type StatusChangeRequest struct {
	Outcome string `json:"outcome" validate:"required"`
}

// VisibilityRequest toggles grade disclosure to the author.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}
