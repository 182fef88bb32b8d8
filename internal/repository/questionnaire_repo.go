package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/review-api/internal/models"
)

// QuestionnaireRepository defines data operations for questionnaires,
// questions and alternatives. Structural mutations that touch sibling
// ordering run inside a transaction so positions stay contiguous.
type QuestionnaireRepository interface {
	GetByID(ctx context.Context, id uint) (models.Questionnaire, error)
	GetByEventID(ctx context.Context, eventID uint) (models.Questionnaire, error)
	Create(ctx context.Context, questionnaire *models.Questionnaire) error
	Update(ctx context.Context, questionnaire *models.Questionnaire) error

	GetQuestion(ctx context.Context, id uint) (models.Question, error)
	NextQuestionPosition(ctx context.Context, questionnaireID uint) (int, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, question models.Question) error

	GetAlternative(ctx context.Context, id uint) (models.Alternative, error)
	NextAlternativePosition(ctx context.Context, questionID uint) (int, error)
	CreateAlternative(ctx context.Context, alternative *models.Alternative) error
	DeleteAlternative(ctx context.Context, alternative models.Alternative) error
	SetCorrectExclusive(ctx context.Context, questionID, alternativeID uint) error
}

type questionnaireRepository struct {
	db *gorm.DB
}

// NewQuestionnaireRepository instantiates the repository.
func NewQuestionnaireRepository(db *gorm.DB) QuestionnaireRepository {
	return &questionnaireRepository{db: db}
}

func (r *questionnaireRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Questions.Alternatives", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *questionnaireRepository) GetByID(ctx context.Context, id uint) (models.Questionnaire, error) {
	var questionnaire models.Questionnaire
	if err := r.baseQuery(ctx).First(&questionnaire, id).Error; err != nil {
		return models.Questionnaire{}, err
	}
	return questionnaire, nil
}

func (r *questionnaireRepository) GetByEventID(ctx context.Context, eventID uint) (models.Questionnaire, error) {
	var questionnaire models.Questionnaire
	if err := r.baseQuery(ctx).Where("event_id = ?", eventID).First(&questionnaire).Error; err != nil {
		return models.Questionnaire{}, err
	}
	return questionnaire, nil
}

func (r *questionnaireRepository) Create(ctx context.Context, questionnaire *models.Questionnaire) error {
	return r.db.WithContext(ctx).Create(questionnaire).Error
}

func (r *questionnaireRepository) Update(ctx context.Context, questionnaire *models.Questionnaire) error {
	return r.db.WithContext(ctx).Omit("Questions").Save(questionnaire).Error
}

func (r *questionnaireRepository) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Preload("Alternatives", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *questionnaireRepository) NextQuestionPosition(ctx context.Context, questionnaireID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("questionnaire_id = ?", questionnaireID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

func (r *questionnaireRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionnaireRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Omit("Alternatives").Save(question).Error
}

// DeleteQuestion removes the question and closes the position gap left
// behind so sibling ordinals stay contiguous from 1.
func (r *questionnaireRepository) DeleteQuestion(ctx context.Context, question models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.Alternative{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Question{}, question.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("questionnaire_id = ? AND position > ?", question.QuestionnaireID, question.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
}

func (r *questionnaireRepository) GetAlternative(ctx context.Context, id uint) (models.Alternative, error) {
	var alternative models.Alternative
	if err := r.db.WithContext(ctx).First(&alternative, id).Error; err != nil {
		return models.Alternative{}, err
	}
	return alternative, nil
}

func (r *questionnaireRepository) NextAlternativePosition(ctx context.Context, questionID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Alternative{}).
		Where("question_id = ?", questionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

func (r *questionnaireRepository) CreateAlternative(ctx context.Context, alternative *models.Alternative) error {
	return r.db.WithContext(ctx).Create(alternative).Error
}

// DeleteAlternative removes the alternative and re-sequences its siblings.
func (r *questionnaireRepository) DeleteAlternative(ctx context.Context, alternative models.Alternative) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Alternative{}, alternative.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Alternative{}).
			Where("question_id = ? AND position > ?", alternative.QuestionID, alternative.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
}

// SetCorrectExclusive marks one alternative correct and unmarks every
// sibling in the same transaction, so the question never ends up with two
// correct alternatives.
func (r *questionnaireRepository) SetCorrectExclusive(ctx context.Context, questionID, alternativeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Alternative{}).
			Where("question_id = ? AND id <> ?", questionID, alternativeID).
			UpdateColumn("correct", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Alternative{}).
			Where("question_id = ? AND id = ?", questionID, alternativeID).
			UpdateColumn("correct", true).Error
	})
}
