package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot records one uploaded statement image and the raw extraction result,
// kept for audit even when no transaction draft was accepted.
type Snapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	ImgPath   string         `gorm:"column:img_path" json:"img_path"`
	OCRResult datatypes.JSON `gorm:"column:ocr_result" json:"ocr_result"`
	AtTime    time.Time      `gorm:"not null;column:at_time" json:"at_time"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

func (s *Snapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.AtTime.IsZero() {
		s.AtTime = time.Now().UTC()
	}
	return nil
}
