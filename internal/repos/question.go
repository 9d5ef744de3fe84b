package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, question *types.GeneratedQuestion) (*types.GeneratedQuestion, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, questionID, userID uuid.UUID) (*types.GeneratedQuestion, error)
	// GetUnansweredByPattern returns the open question for a pattern, if any.
	// The lifecycle keeps at most one.
	GetUnansweredByPattern(ctx context.Context, tx *gorm.DB, patternID uuid.UUID) (*types.GeneratedQuestion, error)
	ListUnansweredByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GeneratedQuestion, error)
	MarkAnswered(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (qr *questionRepo) Create(ctx context.Context, tx *gorm.DB, question *types.GeneratedQuestion) (*types.GeneratedQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	if err := transaction.WithContext(ctx).Create(question).Error; err != nil {
		return nil, err
	}
	return question, nil
}

func (qr *questionRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, questionID, userID uuid.UUID) (*types.GeneratedQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	var result types.GeneratedQuestion
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", questionID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (qr *questionRepo) GetUnansweredByPattern(ctx context.Context, tx *gorm.DB, patternID uuid.UUID) (*types.GeneratedQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	var result types.GeneratedQuestion
	if err := transaction.WithContext(ctx).
		Where("pattern_id = ? AND is_answered = ?", patternID, false).
		Order("created_at ASC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (qr *questionRepo) ListUnansweredByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GeneratedQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	var results []*types.GeneratedQuestion
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_answered = ?", userID, false).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (qr *questionRepo) MarkAnswered(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.GeneratedQuestion{}).
		Where("id = ?", questionID).
		Update("is_answered", true).Error
}
