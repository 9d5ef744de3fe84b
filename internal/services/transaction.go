package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/budgelabs/budge-backend/internal/pkg/errors"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/types"
)

type TransactionInput struct {
	UserID   string
	Date     time.Time
	Merchant string
	Amount   float64
	Category string
}

type DashboardStats struct {
	TotalSpent        float64            `json:"total_spent"`
	TxCount           int                `json:"tx_count"`
	TopCategory       string             `json:"top_category,omitempty"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
}

type TransactionService interface {
	Create(ctx context.Context, input TransactionInput) (*types.Transaction, error)
	List(ctx context.Context, userID string) ([]*types.Transaction, error)
	Stats(ctx context.Context, userID string) (*DashboardStats, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
	DeleteOne(ctx context.Context, userID, txID string) error
}

type transactionService struct {
	db       *gorm.DB
	log      *logger.Logger
	txRepo   repos.TransactionRepo
	userRepo repos.UserRepo
}

func NewTransactionService(db *gorm.DB, log *logger.Logger, txRepo repos.TransactionRepo, userRepo repos.UserRepo) TransactionService {
	return &transactionService{
		db:       db,
		log:      log.With("service", "TransactionService"),
		txRepo:   txRepo,
		userRepo: userRepo,
	}
}

// categoryKeywords drives the keyword-based auto-categorization of manual
// entries with no category.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Food & Dining", []string{"starbucks", "coffee", "cafe", "restaurant", "dining", "burger", "pizza", "dunkin", "mcdonalds"}},
	{"Transportation", []string{"uber", "lyft", "taxi", "gas", "shell", "fuel", "parking", "metro"}},
	{"Shopping", []string{"amazon", "shopping", "store", "walmart", "target", "myntra", "flipkart", "clothing"}},
	{"Entertainment", []string{"netflix", "spotify", "movie", "cinema", "hulu", "games"}},
	{"Bills & Utilities", []string{"bill", "utility", "rent", "electric", "water", "internet"}},
	{"Groceries", []string{"grocery", "market", "foods", "trader"}},
}

func CategorizeMerchant(merchant string) string {
	m := strings.ToLower(merchant)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(m, kw) {
				return entry.category
			}
		}
	}
	return "Uncategorized"
}

func (ts *transactionService) Create(ctx context.Context, input TransactionInput) (*types.Transaction, error) {
	uid, err := uuid.Parse(input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id", apperrors.ErrInvalidIdentifier)
	}
	if _, err := ts.userRepo.EnsureExists(ctx, nil, uid); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	category := input.Category
	if category == "" {
		category = CategorizeMerchant(input.Merchant)
	}

	tx := &types.Transaction{
		UserID:   uid,
		Date:     input.Date,
		Merchant: input.Merchant,
		Amount:   input.Amount,
		Category: category,
		Verified: true,
	}
	created, err := ts.txRepo.Create(ctx, nil, []*types.Transaction{tx})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (ts *transactionService) List(ctx context.Context, userID string) ([]*types.Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return []*types.Transaction{}, nil
	}
	return ts.txRepo.ListByUserDateDesc(ctx, nil, uid)
}

func (ts *transactionService) Stats(ctx context.Context, userID string) (*DashboardStats, error) {
	empty := &DashboardStats{CategoryBreakdown: map[string]float64{}}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return empty, nil
	}
	txs, err := ts.txRepo.ListByUserDateDesc(ctx, nil, uid)
	if err != nil {
		ts.log.Warn("Stats query failed, returning empty stats", "user_id", uid, "error", err)
		return empty, nil
	}

	stats := &DashboardStats{CategoryBreakdown: map[string]float64{}}
	for _, tx := range txs {
		stats.TotalSpent += tx.Amount
		stats.TxCount++
		cat := tx.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		stats.CategoryBreakdown[cat] += tx.Amount
	}
	var topAmount float64
	for cat, amount := range stats.CategoryBreakdown {
		if amount > topAmount || (amount == topAmount && (stats.TopCategory == "" || cat < stats.TopCategory)) {
			topAmount = amount
			stats.TopCategory = cat
		}
	}
	return stats, nil
}

func (ts *transactionService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: user id", apperrors.ErrInvalidIdentifier)
	}
	return ts.txRepo.DeleteAllForUser(ctx, nil, uid)
}

func (ts *transactionService) DeleteOne(ctx context.Context, userID, txID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("%w: user id", apperrors.ErrInvalidIdentifier)
	}
	tid, err := uuid.Parse(txID)
	if err != nil {
		return fmt.Errorf("%w: transaction id", apperrors.ErrInvalidIdentifier)
	}
	if _, err := ts.txRepo.GetByIDForUser(ctx, nil, uid, tid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: transaction", apperrors.ErrNotFound)
		}
		return err
	}
	_, err = ts.txRepo.DeleteByID(ctx, nil, uid, tid)
	return err
}
