package types

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConceptEmbedding stores the embedded text of one knowledge-base concept.
// The catalogue is tiny, so vectors are kept as JSON and ranked in process.
type ConceptEmbedding struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConceptID string         `gorm:"uniqueIndex;not null;column:concept_id" json:"concept_id"`
	Content   string         `gorm:"column:content" json:"content"`
	Embedding datatypes.JSON `gorm:"column:embedding" json:"embedding"`
}

func (ConceptEmbedding) TableName() string {
	return "concept_embeddings"
}

func (e *ConceptEmbedding) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *ConceptEmbedding) Vector() []float32 {
	var out []float32
	if len(e.Embedding) > 0 {
		_ = json.Unmarshal(e.Embedding, &out)
	}
	return out
}

func (e *ConceptEmbedding) SetVector(v []float32) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.Embedding = datatypes.JSON(raw)
	return nil
}
