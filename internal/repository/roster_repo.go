package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/evalhub/review-api/internal/models"
)

// RosterTx is the transactional view handed to roster mutations. Every
// write issued through it commits or rolls back with the guarded check.
type RosterTx struct {
	tx *gorm.DB
}

// Save persists an assignment inside the guarded transaction.
func (t RosterTx) Save(assignment *models.ReviewerAssignment) error {
	return t.tx.Save(assignment).Error
}

// Create inserts an assignment inside the guarded transaction.
func (t RosterTx) Create(assignment *models.ReviewerAssignment) error {
	return t.tx.Create(assignment).Error
}

// RosterRepository defines data operations for reviewer assignments.
// Mutate serialises read-check-write sequences per (submission, modality)
// so two concurrent assigns cannot both observe count=1 and commit a third
// active slot.
type RosterRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.ReviewerAssignment, error)
	ListActive(ctx context.Context, submissionID uint, modality models.Modality) ([]models.ReviewerAssignment, error)
	ActiveCount(ctx context.Context, submissionID uint, modality models.Modality) (int, error)
	HasActiveForReviewer(ctx context.Context, submissionID, reviewerID uint) (bool, error)
	Mutate(ctx context.Context, submissionID uint, modality models.Modality, fn func(tx RosterTx, current []models.ReviewerAssignment) error) error
}

type rosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository instantiates the repository.
func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.ReviewerAssignment, error) {
	var assignments []models.ReviewerAssignment
	if err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("submission_id = ?", submissionID).
		Order("modality ASC, reviewer_id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *rosterRepository) ListActive(ctx context.Context, submissionID uint, modality models.Modality) ([]models.ReviewerAssignment, error) {
	var assignments []models.ReviewerAssignment
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND modality = ? AND revoked = ?", submissionID, modality, false).
		Order("reviewer_id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *rosterRepository) ActiveCount(ctx context.Context, submissionID uint, modality models.Modality) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewerAssignment{}).
		Where("submission_id = ? AND modality = ? AND revoked = ?", submissionID, modality, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *rosterRepository) HasActiveForReviewer(ctx context.Context, submissionID, reviewerID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReviewerAssignment{}).
		Where("submission_id = ? AND reviewer_id = ? AND revoked = ?", submissionID, reviewerID, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rosterRepository) Mutate(ctx context.Context, submissionID uint, modality models.Modality, fn func(tx RosterTx, current []models.ReviewerAssignment) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("submission_id = ? AND modality = ?", submissionID, modality)
		// sqlite serialises writers on its own and rejects FOR UPDATE syntax
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var current []models.ReviewerAssignment
		if err := query.Order("reviewer_id ASC").Find(&current).Error; err != nil {
			return err
		}

		return fn(RosterTx{tx: tx}, current)
	})
}
