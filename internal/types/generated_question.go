package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedQuestion holds one reflection question produced for a detected
// pattern. At most one unanswered question exists per pattern; answering
// flips IsAnswered and the row is never deleted.
type GeneratedQuestion struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PatternID    uuid.UUID      `gorm:"type:uuid;index;not null;column:pattern_id" json:"pattern_id"`
	UserID       uuid.UUID      `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	QuestionText string         `gorm:"not null;column:question_text" json:"question_text"`
	QuestionType string         `gorm:"column:question_type" json:"question_type"`
	ContextData  datatypes.JSON `gorm:"column:context_data" json:"context_data"`
	IsAnswered   bool           `gorm:"not null;default:false;column:is_answered" json:"is_answered"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (GeneratedQuestion) TableName() string {
	return "generated_questions"
}

func (q *GeneratedQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
