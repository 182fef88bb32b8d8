package models

import "time"

// Event is a learning event that owns exactly one questionnaire.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionnaireWeightTotal is the exact total question weights must reach
// before a questionnaire may be published.
const QuestionnaireWeightTotal = 10.0

// QuestionnaireWeightTolerance is the two-decimal rounding tolerance applied
// to the weight-sum check.
const QuestionnaireWeightTolerance = 0.01

// Questionnaire is a weighted question set tied 1:1 to a learning event.
// Structure is frozen once published; metadata stays editable.
type Questionnaire struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	EventID       uint       `gorm:"not null;uniqueIndex" json:"event_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	PassThreshold float64    `gorm:"not null;default:60" json:"pass_threshold"`
	MaxAttempts   int        `gorm:"not null;default:1" json:"max_attempts"`
	TimeLimitMin  int        `gorm:"not null;default:0" json:"time_limit_min"`
	Required      bool       `gorm:"not null;default:false" json:"required"`
	Published     bool       `gorm:"not null;default:false" json:"published"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Questions     []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

const (
	// QuestionKindMultipleChoice requires alternatives with exactly one correct.
	QuestionKindMultipleChoice = "multiple_choice"
	// QuestionKindFreeText has no alternatives.
	QuestionKindFreeText = "free_text"
)

// Question is one weighted entry of a questionnaire, ordered by position.
type Question struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	QuestionnaireID uint          `gorm:"not null;index" json:"questionnaire_id"`
	Kind            string        `gorm:"size:32;not null" json:"kind"`
	Body            string        `gorm:"type:text;not null" json:"body"`
	Weight          float64       `gorm:"not null" json:"weight"`
	Position        int           `gorm:"not null" json:"position"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Alternatives    []Alternative `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"alternatives"`
}

// Alternative is one selectable answer of a multiple-choice question.
type Alternative struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Correct    bool      `gorm:"not null;default:false" json:"correct"`
	Position   int       `gorm:"not null" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
