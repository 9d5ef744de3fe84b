package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

type TransactionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, transactions []*types.Transaction) ([]*types.Transaction, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, txID uuid.UUID) (*types.Transaction, error)
	// ListVerifiedDateAsc feeds the pattern engine: verified rows only,
	// date ascending, insertion order breaking ties.
	ListVerifiedDateAsc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Transaction, error)
	ListByUserDateDesc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Transaction, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, userID, txID uuid.UUID) (int64, error)
	DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "TransactionRepo")}
}

func (tr *transactionRepo) Create(ctx context.Context, tx *gorm.DB, transactions []*types.Transaction) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(transactions) == 0 {
		return []*types.Transaction{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (tr *transactionRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, txID uuid.UUID) (*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var result types.Transaction
	if err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", txID, userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *transactionRepo) ListVerifiedDateAsc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Transaction
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND verified = ?", userID, true).
		Order("date ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *transactionRepo) ListByUserDateDesc(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Transaction
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *transactionRepo) DeleteByID(ctx context.Context, tx *gorm.DB, userID, txID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", txID, userID).
		Delete(&types.Transaction{})
	return res.RowsAffected, res.Error
}

func (tr *transactionRepo) DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Transaction{})
	return res.RowsAffected, res.Error
}
