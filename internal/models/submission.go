package models

import "time"

// Modality is an independent approval track for a submission.
type Modality string

const (
	// ModalityExposition is the written exposition track.
	ModalityExposition Modality = "exposition"
	// ModalityOral is the oral presentation track.
	ModalityOral Modality = "oral"
)

// Modalities lists every known modality.
func Modalities() []Modality {
	return []Modality{ModalityExposition, ModalityOral}
}

// Valid reports whether the modality is one of the known tracks.
func (m Modality) Valid() bool {
	return m == ModalityExposition || m == ModalityOral
}

const (
	// SubmissionStatusDraft indicates the author is still editing.
	SubmissionStatusDraft = "draft"
	// SubmissionStatusSubmitted indicates the work was handed in but review has not started.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusUnderReview indicates reviewers are evaluating the work.
	SubmissionStatusUnderReview = "under_review"
	// SubmissionStatusRejected is the absorbing failure outcome.
	SubmissionStatusRejected = "rejected"
)

// Submission is a work item progressing through the review workflow.
// Approval outcomes are independent per-modality flags layered on top of
// the shared status field; rejection clears both.
type Submission struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CallID             uint      `gorm:"not null;index" json:"call_id"`
	AuthorID           uint      `gorm:"not null;index" json:"author_id"`
	Title              string    `gorm:"size:255;not null" json:"title"`
	Abstract           string    `gorm:"type:text" json:"abstract"`
	Body               string    `gorm:"type:text" json:"body"`
	Status             string    `gorm:"size:32;not null;default:draft" json:"status"`
	ApprovedExposition bool      `gorm:"not null;default:false" json:"approved_exposition"`
	ApprovedOral       bool      `gorm:"not null;default:false" json:"approved_oral"`
	Finalized          bool      `gorm:"not null;default:false" json:"finalized"`
	GradeVisible       bool      `gorm:"not null;default:false" json:"grade_visible"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Call               Call      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"call"`
}

// InReview reports whether the submission left the author's hands.
func (s Submission) InReview() bool {
	switch s.Status {
	case SubmissionStatusUnderReview, SubmissionStatusRejected:
		return true
	}
	return s.ApprovedExposition || s.ApprovedOral
}

// Editable reports whether the author may still mutate the submission:
// the call window must be open and the status must not have entered review.
func (s Submission) Editable(now time.Time) bool {
	return s.Call.WindowOpen(now) && !s.InReview()
}

// Approved reports whether the given modality has been approved.
func (s Submission) Approved(modality Modality) bool {
	switch modality {
	case ModalityExposition:
		return s.ApprovedExposition
	case ModalityOral:
		return s.ApprovedOral
	}
	return false
}
