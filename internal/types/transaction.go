package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Transaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	SnapshotID *uuid.UUID `gorm:"type:uuid;column:snapshot_id" json:"snapshot_id,omitempty"`
	Date       time.Time  `gorm:"type:date;not null;column:date" json:"date"`
	Merchant   string     `gorm:"not null;column:merchant" json:"merchant"`
	Amount     float64    `gorm:"not null;column:amount" json:"amount"`
	Category   string     `gorm:"column:category" json:"category,omitempty"`
	Verified   bool       `gorm:"not null;default:false;column:verified" json:"verified"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DateKey is the calendar-day bucket used by the impulse-cluster rule.
func (t *Transaction) DateKey() string {
	return t.Date.Format("2006-01-02")
}
