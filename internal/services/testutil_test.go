package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/budgelabs/budge-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Snapshot{},
		&types.Transaction{},
		&types.DetectedPattern{},
		&types.GeneratedQuestion{},
		&types.ReflectionSession{},
		&types.ConceptEmbedding{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func seedTransactions(t *testing.T, gdb *gorm.DB, userID uuid.UUID, txs []*types.Transaction) {
	t.Helper()
	for _, tx := range txs {
		tx.UserID = userID
		tx.Verified = true
		if err := gdb.Create(tx).Error; err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
}

// fakeGenClient is a scriptable GenerativeClient for tests.
type fakeGenClient struct {
	generateText func(ctx context.Context, prompt string) (string, error)
	generateJSON func(ctx context.Context, prompt string, image []byte, mimeType string, schema *genai.Schema) (map[string]any, error)
	embed        func(ctx context.Context, text string, task string) ([]float32, error)

	generateCalls int
	embedCalls    int
}

func (f *fakeGenClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.generateCalls++
	if f.generateText == nil {
		return "", fmt.Errorf("generateText not scripted")
	}
	return f.generateText(ctx, prompt)
}

func (f *fakeGenClient) GenerateJSON(ctx context.Context, prompt string, image []byte, mimeType string, schema *genai.Schema) (map[string]any, error) {
	if f.generateJSON == nil {
		return nil, fmt.Errorf("generateJSON not scripted")
	}
	return f.generateJSON(ctx, prompt, image, mimeType, schema)
}

func (f *fakeGenClient) Embed(ctx context.Context, text string, task string) ([]float32, error) {
	f.embedCalls++
	if f.embed == nil {
		return nil, fmt.Errorf("embed not scripted")
	}
	return f.embed(ctx, text, task)
}
