package models

import "time"

// Reviewer is a directory record for someone who may evaluate submissions.
type Reviewer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewerAssignment binds a reviewer to one modality of one submission.
// Revoking keeps the row so the slot can be restored; at most one
// non-revoked row may exist per (submission, reviewer, modality) triple.
type ReviewerAssignment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index:idx_roster_slot,unique,priority:1" json:"submission_id"`
	ReviewerID   uint      `gorm:"not null;index:idx_roster_slot,unique,priority:2" json:"reviewer_id"`
	Modality     Modality  `gorm:"size:16;not null;index:idx_roster_slot,unique,priority:3" json:"modality"`
	Revoked      bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Reviewer     Reviewer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"reviewer"`
}

// ActiveAssignmentLimit is the quorum ceiling per (submission, modality).
const ActiveAssignmentLimit = 2
