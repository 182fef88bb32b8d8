package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
)

// CallRepository defines data operations for calls.
type CallRepository interface {
	List(ctx context.Context) ([]models.Call, error)
	GetByID(ctx context.Context, id uint) (models.Call, error)
	Create(ctx context.Context, call *models.Call) error
}

type callRepository struct {
	db *gorm.DB
}

// NewCallRepository instantiates the repository.
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

func (r *callRepository) List(ctx context.Context) ([]models.Call, error) {
	var calls []models.Call
	if err := r.db.WithContext(ctx).Order("submission_opens_at DESC").Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}

func (r *callRepository) GetByID(ctx context.Context, id uint) (models.Call, error) {
	var call models.Call
	if err := r.db.WithContext(ctx).First(&call, id).Error; err != nil {
		return models.Call{}, err
	}
	return call, nil
}

func (r *callRepository) Create(ctx context.Context, call *models.Call) error {
	return r.db.WithContext(ctx).Create(call).Error
}
