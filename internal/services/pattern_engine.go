package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/app"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/types"
)

// ScanLock serializes scans per user. The redis client provides a distributed
// implementation; NewLocalScanLock covers single-process deployments.
type ScanLock interface {
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), err error)
}

type localScanLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLocalScanLock() ScanLock {
	return &localScanLock{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (l *localScanLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	userMu, ok := l.locks[userID]
	if !ok {
		userMu = &sync.Mutex{}
		l.locks[userID] = userMu
	}
	l.mu.Unlock()
	userMu.Lock()
	return userMu.Unlock, nil
}

type PatternEngine interface {
	// Scan detects patterns over the user's verified transactions and
	// replaces the user's stored pattern set with the result. A malformed
	// user id is treated as "no transactions" and returns an empty slice.
	Scan(ctx context.Context, userID string) ([]*types.DetectedPattern, error)
}

type patternEngine struct {
	db          *gorm.DB
	log         *logger.Logger
	txRepo      repos.TransactionRepo
	patternRepo repos.PatternRepo
	lock        ScanLock
	rules       []patternRule
}

func NewPatternEngine(db *gorm.DB, log *logger.Logger, txRepo repos.TransactionRepo, patternRepo repos.PatternRepo, lock ScanLock, thresholds app.PatternThresholds) PatternEngine {
	if lock == nil {
		lock = NewLocalScanLock()
	}
	return &patternEngine{
		db:          db,
		log:         log.With("service", "PatternEngine"),
		txRepo:      txRepo,
		patternRepo: patternRepo,
		lock:        lock,
		rules: []patternRule{
			latteFactorRule{thresholds},
			impulseClusterRule{thresholds},
			bigSplurgeRule{thresholds},
			subscriptionTrapRule{thresholds},
		},
	}
}

func (pe *patternEngine) Scan(ctx context.Context, userID string) ([]*types.DetectedPattern, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		pe.log.Debug("Scan requested with malformed user id, returning empty", "user_id", userID)
		return []*types.DetectedPattern{}, nil
	}

	release, err := pe.lock.Acquire(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	defer release()

	txs, err := pe.txRepo.ListVerifiedDateAsc(ctx, nil, uid)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txs) == 0 {
		return []*types.DetectedPattern{}, nil
	}

	var patterns []*types.DetectedPattern
	for _, rule := range pe.rules {
		for _, draft := range rule.Evaluate(txs) {
			row, err := types.NewDetectedPattern(uid, draft.details, draft.triggers)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, row)
		}
	}

	if _, err := pe.patternRepo.ReplaceForUser(ctx, nil, uid, patterns); err != nil {
		return nil, fmt.Errorf("replace patterns: %w", err)
	}
	pe.log.Info("Pattern scan complete", "user_id", uid, "transactions", len(txs), "patterns", len(patterns))
	return patterns, nil
}

type patternDraft struct {
	details  types.PatternDetails
	triggers []uuid.UUID
}

// patternRule is one independent detector. A transaction may contribute to
// multiple rules.
type patternRule interface {
	Evaluate(txs []*types.Transaction) []patternDraft
}

// groupBy buckets transactions by key, preserving first-seen key order so
// scan output is deterministic for identical input.
func groupBy(txs []*types.Transaction, key func(*types.Transaction) (string, bool)) ([]string, map[string][]*types.Transaction) {
	var order []string
	groups := map[string][]*types.Transaction{}
	for _, tx := range txs {
		k, ok := key(tx)
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], tx)
	}
	return order, groups
}

func sumAmounts(txs []*types.Transaction) float64 {
	var total float64
	for _, tx := range txs {
		total += tx.Amount
	}
	return total
}

func triggerIDs(txs []*types.Transaction) []uuid.UUID {
	ids := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return ids
}

// latteFactorRule: repeated small purchases at the same merchant.
type latteFactorRule struct {
	t app.PatternThresholds
}

func (r latteFactorRule) Evaluate(txs []*types.Transaction) []patternDraft {
	order, groups := groupBy(txs, func(tx *types.Transaction) (string, bool) {
		return tx.Merchant, tx.Amount < r.t.LatteMaxAmount
	})
	var drafts []patternDraft
	for _, merchant := range order {
		group := groups[merchant]
		if len(group) < r.t.LatteMinCount {
			continue
		}
		total := sumAmounts(group)
		drafts = append(drafts, patternDraft{
			details: types.LatteFactorDetails{
				Merchant:   merchant,
				Count:      len(group),
				TotalSpent: total,
				AvgAmount:  total / float64(len(group)),
			},
			triggers: triggerIDs(group),
		})
	}
	return drafts
}

// impulseClusterRule: many purchases on a single calendar day, any amount.
type impulseClusterRule struct {
	t app.PatternThresholds
}

func (r impulseClusterRule) Evaluate(txs []*types.Transaction) []patternDraft {
	order, groups := groupBy(txs, func(tx *types.Transaction) (string, bool) {
		return tx.DateKey(), true
	})
	var drafts []patternDraft
	for _, day := range order {
		group := groups[day]
		if len(group) < r.t.ImpulseMinCount {
			continue
		}
		drafts = append(drafts, patternDraft{
			details: types.ImpulseClusterDetails{
				Date:       day,
				Count:      len(group),
				TotalSpent: sumAmounts(group),
			},
			triggers: triggerIDs(group),
		})
	}
	return drafts
}

var splurgeCategories = map[string]struct{}{
	"Shopping":      {},
	"Entertainment": {},
	"Electronics":   {},
}

// bigSplurgeRule: a single large discretionary purchase.
type bigSplurgeRule struct {
	t app.PatternThresholds
}

func (r bigSplurgeRule) Evaluate(txs []*types.Transaction) []patternDraft {
	var drafts []patternDraft
	for _, tx := range txs {
		if tx.Amount <= r.t.SplurgeMinAmount {
			continue
		}
		if _, ok := splurgeCategories[tx.Category]; !ok {
			continue
		}
		drafts = append(drafts, patternDraft{
			details: types.BigSplurgeDetails{
				Merchant: tx.Merchant,
				Amount:   tx.Amount,
				Date:     tx.DateKey(),
			},
			triggers: []uuid.UUID{tx.ID},
		})
	}
	return drafts
}

// subscriptionTrapRule: repeated identical (merchant, amount) charges. No
// minimum spacing is required, so two same-day identical charges qualify.
type subscriptionTrapRule struct {
	t app.PatternThresholds
}

func (r subscriptionTrapRule) Evaluate(txs []*types.Transaction) []patternDraft {
	order, groups := groupBy(txs, func(tx *types.Transaction) (string, bool) {
		return fmt.Sprintf("%s|%.2f", tx.Merchant, tx.Amount), tx.Amount > r.t.SubscriptionMinAmount
	})
	var drafts []patternDraft
	for _, k := range order {
		group := groups[k]
		if len(group) < r.t.SubscriptionMinCount {
			continue
		}
		drafts = append(drafts, patternDraft{
			details: types.SubscriptionTrapDetails{
				Merchant:  group[0].Merchant,
				Amount:    group[0].Amount,
				Frequency: "recurring",
			},
			triggers: triggerIDs(group),
		})
	}
	return drafts
}
