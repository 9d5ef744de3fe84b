package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/types"
)

type TransactionDraft struct {
	Date     string  `json:"date"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type ExtractedReceipt struct {
	Transactions []TransactionDraft `json:"transactions"`
}

// IngestService turns a bank-statement screenshot into transaction drafts via
// a schema-constrained multimodal generation call. Extraction failure yields
// an empty draft list, never an error to the caller.
type IngestService interface {
	ProcessImage(ctx context.Context, userID string, image []byte, mimeType string) (*ExtractedReceipt, error)
}

type ingestService struct {
	db              *gorm.DB
	log             *logger.Logger
	client          GenerativeClient
	generateTimeout time.Duration
}

func NewIngestService(db *gorm.DB, log *logger.Logger, client GenerativeClient, generateTimeout time.Duration) IngestService {
	return &ingestService{
		db:              db,
		log:             log.With("service", "IngestService"),
		client:          client,
		generateTimeout: generateTimeout,
	}
}

var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"transactions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date":     {Type: genai.TypeString, Description: "ISO 8601 format YYYY-MM-DD"},
					"merchant": {Type: genai.TypeString, Description: "Normalized merchant name"},
					"amount":   {Type: genai.TypeNumber},
					"currency": {Type: genai.TypeString},
				},
				Required: []string{"date", "merchant", "amount"},
			},
		},
	},
	Required: []string{"transactions"},
}

const extractionPrompt = `Analyze this bank statement image.
Extract all visible transactions.
Normalize merchant names (e.g., remove 'NY #1234' from 'Starbucks').
If the year is missing, assume the current year.
Ignore running balances.
Return ONLY valid JSON matching the schema.`

func (is *ingestService) ProcessImage(ctx context.Context, userID string, image []byte, mimeType string) (*ExtractedReceipt, error) {
	empty := &ExtractedReceipt{Transactions: []TransactionDraft{}}
	if is.client == nil {
		is.log.Warn("Ingest requested without a generative client configured")
		return empty, nil
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	genCtx, cancel := context.WithTimeout(ctx, is.generateTimeout)
	defer cancel()
	raw, err := is.client.GenerateJSON(genCtx, extractionPrompt, image, mimeType, receiptSchema)
	if err != nil {
		is.log.Warn("Statement extraction failed, returning empty draft list", "error", err)
		return empty, nil
	}

	receipt := decodeReceipt(raw)
	is.persistSnapshot(ctx, userID, raw)
	return receipt, nil
}

func decodeReceipt(raw map[string]any) *ExtractedReceipt {
	receipt := &ExtractedReceipt{Transactions: []TransactionDraft{}}
	buf, err := json.Marshal(raw)
	if err != nil {
		return receipt
	}
	var decoded ExtractedReceipt
	if err := json.Unmarshal(buf, &decoded); err != nil {
		return receipt
	}
	if decoded.Transactions != nil {
		receipt.Transactions = decoded.Transactions
	}
	return receipt
}

// persistSnapshot keeps the raw extraction payload as an audit record when a
// valid user id accompanies the upload. Best-effort.
func (is *ingestService) persistSnapshot(ctx context.Context, userID string, raw map[string]any) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return
	}
	snapshot := &types.Snapshot{
		UserID:    uid,
		OCRResult: datatypes.JSON(payload),
	}
	if err := is.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		is.log.Warn("Failed to persist ingest snapshot", "user_id", uid, "error", err)
	}
}
