package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

type PatternRepo interface {
	// ReplaceForUser deletes every pattern row for the user and inserts the
	// new set in one transaction. Scans are replace-semantics, not additive.
	ReplaceForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, patterns []*types.DetectedPattern) ([]*types.DetectedPattern, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, patternID, userID uuid.UUID) (*types.DetectedPattern, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.DetectedPattern, error)
}

type patternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatternRepo(db *gorm.DB, baseLog *logger.Logger) PatternRepo {
	return &patternRepo{db: db, log: baseLog.With("repo", "PatternRepo")}
}

func (pr *patternRepo) ReplaceForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, patterns []*types.DetectedPattern) ([]*types.DetectedPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	err := transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("user_id = ?", userID).Delete(&types.DetectedPattern{}).Error; err != nil {
			return err
		}
		if len(patterns) == 0 {
			return nil
		}
		return inner.Create(&patterns).Error
	})
	if err != nil {
		return nil, err
	}
	return patterns, nil
}

func (pr *patternRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, patternID, userID uuid.UUID) (*types.DetectedPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.DetectedPattern
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", patternID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *patternRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.DetectedPattern, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.DetectedPattern
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
