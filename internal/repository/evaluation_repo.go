package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
)

// EvaluationRepository defines data operations for reviewer evaluations.
type EvaluationRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error)
	GetByReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Evaluation, error)
	Upsert(ctx context.Context, evaluation *models.Evaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("reviewer_id ASC").
		Find(&evaluations).Error; err != nil {
		return nil, err
	}
	return evaluations, nil
}

func (r *evaluationRepository) GetByReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND reviewer_id = ?", submissionID, reviewerID).
		First(&evaluation).Error; err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

// Upsert overwrites any prior evaluation from the same reviewer so
// resubmission stays idempotent.
func (r *evaluationRepository) Upsert(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Evaluation
		err := tx.Where("submission_id = ? AND reviewer_id = ?", evaluation.SubmissionID, evaluation.ReviewerID).
			First(&existing).Error
		switch {
		case err == nil:
			existing.Scores = evaluation.Scores
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*evaluation = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(evaluation).Error
		default:
			return err
		}
	})
}
