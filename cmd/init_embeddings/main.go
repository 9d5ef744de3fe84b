package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/app"
	"github.com/budgelabs/budge-backend/internal/db"
	"github.com/budgelabs/budge-backend/internal/knowledge"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/services"
	"github.com/budgelabs/budge-backend/internal/types"
)

// Embeds the concept catalogue into the concept_embeddings table. Run once
// after deploy; concepts that already have a row are skipped.
func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)

	catalogue, err := knowledge.Load()
	if err != nil {
		log.Fatal("Could not load concept catalogue", "error", err)
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	embeddingRepo := repos.NewConceptEmbeddingRepo(postgresService.DB(), log)

	client, err := services.NewGeminiClient(log, cfg)
	if err != nil {
		log.Fatal("Could not init Gemini client", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	embedded := 0
	for _, concept := range catalogue.All() {
		concept := concept
		if _, err := embeddingRepo.GetByConceptID(ctx, nil, concept.ID); err == nil {
			log.Info("Concept already embedded, skipping", "concept_id", concept.ID)
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal("Could not check existing embedding", "concept_id", concept.ID, "error", err)
		}
		embedded++
		group.Go(func() error {
			content := knowledge.EmbeddingContent(&concept)
			vector, err := client.Embed(groupCtx, content, "RETRIEVAL_DOCUMENT")
			if err != nil {
				return fmt.Errorf("embed %s: %w", concept.ID, err)
			}
			row := &types.ConceptEmbedding{ConceptID: concept.ID, Content: content}
			if err := row.SetVector(vector); err != nil {
				return fmt.Errorf("encode vector for %s: %w", concept.ID, err)
			}
			if _, err := embeddingRepo.Create(groupCtx, nil, row); err != nil {
				return fmt.Errorf("store embedding for %s: %w", concept.ID, err)
			}
			log.Info("Embedded concept", "concept_id", concept.ID, "dims", len(vector))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Fatal("Embedding initialization failed", "error", err)
	}
	log.Info("Embedding initialization complete", "embedded", embedded, "total", len(catalogue.All()))
}
