package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

type ConceptEmbeddingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, embedding *types.ConceptEmbedding) (*types.ConceptEmbedding, error)
	GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID string) (*types.ConceptEmbedding, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ConceptEmbedding, error)
}

type conceptEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) ConceptEmbeddingRepo {
	return &conceptEmbeddingRepo{db: db, log: baseLog.With("repo", "ConceptEmbeddingRepo")}
}

func (cr *conceptEmbeddingRepo) Create(ctx context.Context, tx *gorm.DB, embedding *types.ConceptEmbedding) (*types.ConceptEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(embedding).Error; err != nil {
		return nil, err
	}
	return embedding, nil
}

func (cr *conceptEmbeddingRepo) GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID string) (*types.ConceptEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.ConceptEmbedding
	if err := transaction.WithContext(ctx).
		Where("concept_id = ?", conceptID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *conceptEmbeddingRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ConceptEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.ConceptEmbedding
	if err := transaction.WithContext(ctx).
		Order("concept_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
