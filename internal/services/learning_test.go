package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/budgelabs/budge-backend/internal/knowledge"
	apperrors "github.com/budgelabs/budge-backend/internal/pkg/errors"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/types"
)

func newTestLearning(t *testing.T, gdb *gorm.DB, client *fakeGenClient) LearningService {
	t.Helper()
	catalogue, err := knowledge.Load()
	if err != nil {
		t.Fatalf("load catalogue: %v", err)
	}
	nop := logger.NewNop()
	// The retriever runs without a generative client so explanations use
	// the deterministic fallback; the generator uses the scripted client.
	retriever := NewConceptRetriever(nop, catalogue, repos.NewConceptEmbeddingRepo(gdb, nop), nil, time.Second, time.Second)
	var generatorClient GenerativeClient
	if client != nil {
		generatorClient = client
	}
	generator := NewQuestionGenerator(nop, generatorClient, time.Second)
	return NewLearningService(gdb, nop,
		repos.NewPatternRepo(gdb, nop),
		repos.NewQuestionRepo(gdb, nop),
		repos.NewReflectionRepo(gdb, nop),
		retriever,
		generator,
	)
}

func seedPattern(t *testing.T, gdb *gorm.DB, userID uuid.UUID) *types.DetectedPattern {
	t.Helper()
	pattern, err := types.NewDetectedPattern(userID, types.LatteFactorDetails{
		Merchant:   "Starbucks",
		Count:      3,
		TotalSpent: 16.5,
		AvgAmount:  5.5,
	}, []uuid.UUID{uuid.New(), uuid.New(), uuid.New()})
	if err != nil {
		t.Fatalf("build pattern: %v", err)
	}
	if err := gdb.Create(pattern).Error; err != nil {
		t.Fatalf("seed pattern: %v", err)
	}
	return pattern
}

func TestGenerateQuestionPersistsAndIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	client := &fakeGenClient{
		generateText: func(ctx context.Context, prompt string) (string, error) {
			return "What would three fewer coffee runs a week change about your month?", nil
		},
	}
	ls := newTestLearning(t, gdb, client)
	userID := uuid.New()
	pattern := seedPattern(t, gdb, userID)

	first, err := ls.GenerateQuestionForPattern(context.Background(), pattern.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("GenerateQuestionForPattern: %v", err)
	}
	if first.QuestionText == "" || first.PatternType != types.PatternLatteFactor {
		t.Fatalf("unexpected payload: %+v", first)
	}
	if first.BiasName != types.BiasPresentBias {
		t.Errorf("bias = %q, want %q", first.BiasName, types.BiasPresentBias)
	}
	if first.Explanation == "" {
		t.Error("payload missing explanation")
	}
	if client.generateCalls != 1 {
		t.Fatalf("generate calls = %d, want 1", client.generateCalls)
	}

	// A second request while unanswered returns the same question without
	// touching the model again.
	second, err := ls.GenerateQuestionForPattern(context.Background(), pattern.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("second GenerateQuestionForPattern: %v", err)
	}
	if second.QuestionID != first.QuestionID {
		t.Fatalf("question id changed across regeneration: %s vs %s", second.QuestionID, first.QuestionID)
	}
	if second.QuestionText != first.QuestionText {
		t.Fatalf("question text changed: %q vs %q", second.QuestionText, first.QuestionText)
	}
	if client.generateCalls != 1 {
		t.Fatalf("generate calls = %d after regeneration, want 1", client.generateCalls)
	}

	var stored int64
	if err := gdb.Model(&types.GeneratedQuestion{}).Where("pattern_id = ?", pattern.ID).Count(&stored).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != 1 {
		t.Fatalf("stored %d questions, want 1", stored)
	}
}

func TestGenerateQuestionErrors(t *testing.T) {
	gdb := newTestDB(t)
	ls := newTestLearning(t, gdb, nil)
	userID := uuid.New()
	pattern := seedPattern(t, gdb, userID)

	cases := []struct {
		name      string
		patternID string
		userID    string
		want      error
	}{
		{name: "unknown_pattern", patternID: uuid.NewString(), userID: userID.String(), want: apperrors.ErrNotFound},
		{name: "other_users_pattern", patternID: pattern.ID.String(), userID: uuid.NewString(), want: apperrors.ErrNotFound},
		{name: "malformed_pattern_id", patternID: "nope", userID: userID.String(), want: apperrors.ErrInvalidIdentifier},
		{name: "malformed_user_id", patternID: pattern.ID.String(), userID: "nope", want: apperrors.ErrInvalidIdentifier},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ls.GenerateQuestionForPattern(context.Background(), tc.patternID, tc.userID)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSubmitAnswerRecordsSessionAndScore(t *testing.T) {
	gdb := newTestDB(t)
	ls := newTestLearning(t, gdb, nil)
	userID := uuid.New()
	pattern := seedPattern(t, gdb, userID)

	payload, err := ls.GenerateQuestionForPattern(context.Background(), pattern.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("GenerateQuestionForPattern: %v", err)
	}

	answer := "I was buying coffee out of habit more than enjoyment most mornings"
	receipt, err := ls.SubmitAnswer(context.Background(), userID.String(), payload.QuestionID.String(), answer)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if receipt.Status != "recorded" {
		t.Errorf("status = %q, want recorded", receipt.Status)
	}
	if want := ScoreReflection(answer); receipt.QualityScore != want {
		t.Errorf("quality score = %d, want %d", receipt.QualityScore, want)
	}

	var question types.GeneratedQuestion
	if err := gdb.First(&question, "id = ?", payload.QuestionID).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if !question.IsAnswered {
		t.Error("question not marked answered")
	}

	var sessions []types.ReflectionSession
	if err := gdb.Where("pattern_id = ?", pattern.ID).Find(&sessions).Error; err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].AIQuestion != payload.QuestionText || sessions[0].UserAnswer != answer {
		t.Errorf("session does not carry the question/answer pair: %+v", sessions[0])
	}
	if sessions[0].ReflectionQualityScore != receipt.QualityScore {
		t.Errorf("session score = %d, want %d", sessions[0].ReflectionQualityScore, receipt.QualityScore)
	}
}

func TestSubmitAnswerRejectsAnsweredAndUnknown(t *testing.T) {
	gdb := newTestDB(t)
	ls := newTestLearning(t, gdb, nil)
	userID := uuid.New()
	pattern := seedPattern(t, gdb, userID)

	payload, err := ls.GenerateQuestionForPattern(context.Background(), pattern.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("GenerateQuestionForPattern: %v", err)
	}
	if _, err := ls.SubmitAnswer(context.Background(), userID.String(), payload.QuestionID.String(), "some reflection"); err != nil {
		t.Fatalf("first SubmitAnswer: %v", err)
	}

	if _, err := ls.SubmitAnswer(context.Background(), userID.String(), payload.QuestionID.String(), "again"); !errors.Is(err, apperrors.ErrAlreadyAnswered) {
		t.Fatalf("resubmit err = %v, want ErrAlreadyAnswered", err)
	}
	if _, err := ls.SubmitAnswer(context.Background(), userID.String(), uuid.NewString(), "answer"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown question err = %v, want ErrNotFound", err)
	}
	if _, err := ls.SubmitAnswer(context.Background(), uuid.NewString(), payload.QuestionID.String(), "answer"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("other user err = %v, want ErrNotFound", err)
	}
	if _, err := ls.SubmitAnswer(context.Background(), userID.String(), "nope", "answer"); !errors.Is(err, apperrors.ErrInvalidIdentifier) {
		t.Fatalf("malformed id err = %v, want ErrInvalidIdentifier", err)
	}

	// Answering is terminal for that question, but a fresh request may open
	// a new one for the same pattern.
	reopened, err := ls.GenerateQuestionForPattern(context.Background(), pattern.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("regenerate after answer: %v", err)
	}
	if reopened.QuestionID == payload.QuestionID {
		t.Fatal("regeneration after answer returned the answered question")
	}
}

func TestUnansweredQuestions(t *testing.T) {
	gdb := newTestDB(t)
	ls := newTestLearning(t, gdb, nil)
	userID := uuid.New()
	patternA := seedPattern(t, gdb, userID)
	patternB := seedPattern(t, gdb, userID)

	a, err := ls.GenerateQuestionForPattern(context.Background(), patternA.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("generate A: %v", err)
	}
	if _, err := ls.GenerateQuestionForPattern(context.Background(), patternB.ID.String(), userID.String()); err != nil {
		t.Fatalf("generate B: %v", err)
	}

	list, err := ls.UnansweredQuestions(context.Background(), userID.String())
	if err != nil {
		t.Fatalf("UnansweredQuestions: %v", err)
	}
	if list.Count != 2 || len(list.Questions) != 2 {
		t.Fatalf("count = %d (%d items), want 2", list.Count, len(list.Questions))
	}

	if _, err := ls.SubmitAnswer(context.Background(), userID.String(), a.QuestionID.String(), "a considered answer"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	list, err = ls.UnansweredQuestions(context.Background(), userID.String())
	if err != nil {
		t.Fatalf("UnansweredQuestions after answer: %v", err)
	}
	if list.Count != 1 {
		t.Fatalf("count = %d after answering, want 1", list.Count)
	}

	empty, err := ls.UnansweredQuestions(context.Background(), "not-a-uuid")
	if err != nil {
		t.Fatalf("UnansweredQuestions malformed id: %v", err)
	}
	if empty.Count != 0 {
		t.Fatalf("count = %d for malformed id, want 0", empty.Count)
	}
}
