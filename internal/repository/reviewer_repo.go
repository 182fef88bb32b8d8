package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
)

// ReviewerRepository defines data operations for the reviewer directory.
type ReviewerRepository interface {
	List(ctx context.Context) ([]models.Reviewer, error)
	GetByID(ctx context.Context, id uint) (models.Reviewer, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Reviewer, error)
	Create(ctx context.Context, reviewer *models.Reviewer) error
}

type reviewerRepository struct {
	db *gorm.DB
}

// NewReviewerRepository instantiates the repository.
func NewReviewerRepository(db *gorm.DB) ReviewerRepository {
	return &reviewerRepository{db: db}
}

func (r *reviewerRepository) List(ctx context.Context) ([]models.Reviewer, error) {
	var reviewers []models.Reviewer
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&reviewers).Error; err != nil {
		return nil, err
	}
	return reviewers, nil
}

func (r *reviewerRepository) GetByID(ctx context.Context, id uint) (models.Reviewer, error) {
	var reviewer models.Reviewer
	if err := r.db.WithContext(ctx).First(&reviewer, id).Error; err != nil {
		return models.Reviewer{}, err
	}
	return reviewer, nil
}

func (r *reviewerRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Reviewer, error) {
	var reviewers []models.Reviewer
	if len(ids) == 0 {
		return reviewers, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&reviewers).Error; err != nil {
		return nil, err
	}
	return reviewers, nil
}

func (r *reviewerRepository) Create(ctx context.Context, reviewer *models.Reviewer) error {
	return r.db.WithContext(ctx).Create(reviewer).Error
}
