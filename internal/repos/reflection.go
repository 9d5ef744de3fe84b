package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

// ReflectionRepo is append-only: sessions are never updated or deleted.
type ReflectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.ReflectionSession) (*types.ReflectionSession, error)
	ListByPattern(ctx context.Context, tx *gorm.DB, patternID uuid.UUID) ([]*types.ReflectionSession, error)
}

type reflectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReflectionRepo(db *gorm.DB, baseLog *logger.Logger) ReflectionRepo {
	return &reflectionRepo{db: db, log: baseLog.With("repo", "ReflectionRepo")}
}

func (rr *reflectionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ReflectionSession) (*types.ReflectionSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (rr *reflectionRepo) ListByPattern(ctx context.Context, tx *gorm.DB, patternID uuid.UUID) ([]*types.ReflectionSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.ReflectionSession
	if err := transaction.WithContext(ctx).
		Where("pattern_id = ?", patternID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
