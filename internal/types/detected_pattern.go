package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DetectedPattern is one behavioral event found by the pattern engine. Rows
// for a user are replaced wholesale on every scan, never merged.
type DetectedPattern struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID      `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	PatternCode           PatternCode    `gorm:"not null;column:pattern_code" json:"pattern_code"`
	BiasMapping           string         `gorm:"not null;column:bias_mapping" json:"bias_mapping"`
	Details               datatypes.JSON `gorm:"column:details" json:"details"`
	TriggerTransactionIDs datatypes.JSON `gorm:"column:trigger_transaction_ids" json:"trigger_transaction_ids"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
}

func (DetectedPattern) TableName() string {
	return "detected_patterns"
}

func (p *DetectedPattern) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewDetectedPattern builds a row from a typed details record, deriving the
// pattern code and bias mapping from the record itself.
func NewDetectedPattern(userID uuid.UUID, details PatternDetails, triggerIDs []uuid.UUID) (*DetectedPattern, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal pattern details: %w", err)
	}
	triggersJSON, err := json.Marshal(triggerIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal trigger ids: %w", err)
	}
	code := details.Code()
	return &DetectedPattern{
		UserID:                userID,
		PatternCode:           code,
		BiasMapping:           BiasFor(code),
		Details:               datatypes.JSON(detailsJSON),
		TriggerTransactionIDs: datatypes.JSON(triggersJSON),
	}, nil
}

// DetailsMap decodes the details column into a generic map for prompt
// building and API responses.
func (p *DetectedPattern) DetailsMap() map[string]any {
	out := map[string]any{}
	if len(p.Details) > 0 {
		_ = json.Unmarshal(p.Details, &out)
	}
	return out
}

// TriggerIDs decodes the trigger transaction id list.
func (p *DetectedPattern) TriggerIDs() []uuid.UUID {
	var out []uuid.UUID
	if len(p.TriggerTransactionIDs) > 0 {
		_ = json.Unmarshal(p.TriggerTransactionIDs, &out)
	}
	return out
}
