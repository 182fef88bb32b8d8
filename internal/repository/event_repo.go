package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
)

// EventRepository defines data operations for learning events.
type EventRepository interface {
	GetByID(ctx context.Context, id uint) (models.Event, error)
	Create(ctx context.Context, event *models.Event) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository instantiates the repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}
	return event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}
