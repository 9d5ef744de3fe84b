package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReflectionSession is the append-only record of one answered question.
// Sessions survive pattern rescans that delete their pattern row.
type ReflectionSession struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatternID              uuid.UUID `gorm:"type:uuid;index;not null;column:pattern_id" json:"pattern_id"`
	AIQuestion             string    `gorm:"column:ai_question" json:"ai_question"`
	UserAnswer             string    `gorm:"column:user_answer" json:"user_answer"`
	ReflectionQualityScore int       `gorm:"column:reflection_quality_score" json:"reflection_quality_score"`
	CreatedAt              time.Time `gorm:"not null" json:"created_at"`
}

func (ReflectionSession) TableName() string {
	return "reflection_sessions"
}

func (s *ReflectionSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
