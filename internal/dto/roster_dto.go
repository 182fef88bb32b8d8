package dto

import (
	"time"

	"github.com/evalhub/review-api/internal/models"
)

// RosterAssignRequest describes the payload for assigning reviewers.
type RosterAssignRequest struct {
	Modality    string `json:"modality" validate:"required"`
	ReviewerIDs []uint `json:"reviewer_ids" validate:"required,min=1,max=2,dive,gt=0"`
}

// RosterRevokeRequest describes the payload for revoking an assignment.
type RosterRevokeRequest struct {
	ReviewerID uint   `json:"reviewer_id" validate:"required,gt=0"`
	Modality   string `json:"modality" validate:"required"`
}

// RosterRestoreRequest describes the payload for restoring a revoked slot.
type RosterRestoreRequest struct {
	ReviewerID uint   `json:"reviewer_id" validate:"required,gt=0"`
	Modality   string `json:"modality" validate:"required"`
}

// RosterBulkAssignRequest applies one reviewer set across many submissions.
type RosterBulkAssignRequest struct {
	SubmissionIDs []uint `json:"submission_ids" validate:"required,min=1,dive,gt=0"`
	Modality      string `json:"modality" validate:"required"`
	ReviewerIDs   []uint `json:"reviewer_ids" validate:"required,min=1,max=2,dive,gt=0"`
}

// RosterBulkAssignItem reports the outcome for one submission of a bulk
// assignment; one failed item never aborts its validated siblings.
type RosterBulkAssignItem struct {
	SubmissionID uint   `json:"submission_id"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// ReviewerLite summarizes a reviewer in roster responses.
type ReviewerLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AssignmentResponse serializes a reviewer assignment slot.
type AssignmentResponse struct {
	ID           uint         `json:"id"`
	SubmissionID uint         `json:"submission_id"`
	ReviewerID   uint         `json:"reviewer_id"`
	Modality     string       `json:"modality"`
	Revoked      bool         `json:"revoked"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Reviewer     ReviewerLite `json:"reviewer"`
}

// RosterResponse groups a submission's assignment slots with the active
// counts consumed as the quorum signal.
type RosterResponse struct {
	SubmissionID uint                 `json:"submission_id"`
	Assignments  []AssignmentResponse `json:"assignments"`
	ActiveCounts map[string]int       `json:"active_counts"`
}

// NewAssignmentResponse maps an assignment model into its API shape.
func NewAssignmentResponse(assignment models.ReviewerAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           assignment.ID,
		SubmissionID: assignment.SubmissionID,
		ReviewerID:   assignment.ReviewerID,
		Modality:     string(assignment.Modality),
		Revoked:      assignment.Revoked,
		CreatedAt:    assignment.CreatedAt,
		UpdatedAt:    assignment.UpdatedAt,
		Reviewer: ReviewerLite{
			ID:    assignment.Reviewer.ID,
			Name:  assignment.Reviewer.Name,
			Email: assignment.Reviewer.Email,
		},
	}
}

// NewRosterResponse builds the roster view for one submission.
func NewRosterResponse(submissionID uint, assignments []models.ReviewerAssignment) RosterResponse {
	response := RosterResponse{
		SubmissionID: submissionID,
		Assignments:  make([]AssignmentResponse, 0, len(assignments)),
		ActiveCounts: map[string]int{},
	}
	for _, modality := range models.Modalities() {
		response.ActiveCounts[string(modality)] = 0
	}
	for _, assignment := range assignments {
		response.Assignments = append(response.Assignments, NewAssignmentResponse(assignment))
		if !assignment.Revoked {
			response.ActiveCounts[string(assignment.Modality)]++
		}
	}
	return response
}
