package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/budgelabs/budge-backend/internal/pkg/errors"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/types"
)

type QuestionPayload struct {
	QuestionID   uuid.UUID         `json:"question_id"`
	QuestionText string            `json:"question_text"`
	PatternType  types.PatternCode `json:"pattern_type"`
	BiasName     string            `json:"bias_name"`
	Explanation  string            `json:"explanation"`
	Context      map[string]any    `json:"context"`
}

type AnswerReceipt struct {
	Status       string `json:"status"`
	QualityScore int    `json:"quality_score"`
	Message      string `json:"message"`
}

type UnansweredQuestion struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type UnansweredList struct {
	Count     int                  `json:"count"`
	Questions []UnansweredQuestion `json:"questions"`
}

// LearningService drives the pattern → question → answer lifecycle. A
// pattern is effectively DETECTED until a question exists for it,
// QUESTION_PENDING while that question is unanswered, and ANSWERED once the
// reflection session is recorded; answered is terminal.
type LearningService interface {
	GenerateQuestionForPattern(ctx context.Context, patternID, userID string) (*QuestionPayload, error)
	SubmitAnswer(ctx context.Context, userID, questionID, answerText string) (*AnswerReceipt, error)
	UnansweredQuestions(ctx context.Context, userID string) (*UnansweredList, error)
}

type learningService struct {
	db           *gorm.DB
	log          *logger.Logger
	patternRepo  repos.PatternRepo
	questionRepo repos.QuestionRepo
	reflections  repos.ReflectionRepo
	retriever    ConceptRetriever
	generator    QuestionGenerator
}

func NewLearningService(db *gorm.DB, log *logger.Logger, patternRepo repos.PatternRepo, questionRepo repos.QuestionRepo, reflections repos.ReflectionRepo, retriever ConceptRetriever, generator QuestionGenerator) LearningService {
	return &learningService{
		db:           db,
		log:          log.With("service", "LearningService"),
		patternRepo:  patternRepo,
		questionRepo: questionRepo,
		reflections:  reflections,
		retriever:    retriever,
		generator:    generator,
	}
}

func (ls *learningService) GenerateQuestionForPattern(ctx context.Context, patternID, userID string) (*QuestionPayload, error) {
	pid, err := uuid.Parse(patternID)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern id", apperrors.ErrInvalidIdentifier)
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id", apperrors.ErrInvalidIdentifier)
	}

	pattern, err := ls.patternRepo.GetByIDForUser(ctx, nil, pid, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pattern", apperrors.ErrNotFound)
		}
		return nil, err
	}
	details := pattern.DetailsMap()

	// Idempotent while unanswered: an existing open question is returned
	// as-is, without another generation call for its text.
	existing, err := ls.questionRepo.GetUnansweredByPattern(ctx, nil, pid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && err == nil {
		concept := ls.retriever.Resolve(ctx, pattern.BiasMapping, details)
		return &QuestionPayload{
			QuestionID:   existing.ID,
			QuestionText: existing.QuestionText,
			PatternType:  pattern.PatternCode,
			BiasName:     pattern.BiasMapping,
			Explanation:  ls.retriever.Explain(ctx, concept, details),
			Context:      contextDataMap(existing.ContextData),
		}, nil
	}

	concept := ls.retriever.Resolve(ctx, pattern.BiasMapping, details)
	result := ls.generator.Generate(ctx, pattern.PatternCode, pattern.BiasMapping, details, concept)
	if result.Source == SourceTemplate {
		ls.log.Info("Question served from template", "pattern_id", pid, "reason", result.Reason)
	}

	contextData, _ := json.Marshal(map[string]any{
		"pattern_code": pattern.PatternCode,
		"bias":         pattern.BiasMapping,
		"concept_id":   concept.ID,
		"source":       result.Source,
	})
	question := &types.GeneratedQuestion{
		PatternID:    pid,
		UserID:       uid,
		QuestionText: result.Text,
		QuestionType: "reflection",
		ContextData:  datatypes.JSON(contextData),
	}
	if _, err := ls.questionRepo.Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("persist question: %w", err)
	}

	return &QuestionPayload{
		QuestionID:   question.ID,
		QuestionText: result.Text,
		PatternType:  pattern.PatternCode,
		BiasName:     pattern.BiasMapping,
		Explanation:  ls.retriever.Explain(ctx, concept, details),
		Context:      details,
	}, nil
}

func (ls *learningService) SubmitAnswer(ctx context.Context, userID, questionID, answerText string) (*AnswerReceipt, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id", apperrors.ErrInvalidIdentifier)
	}
	qid, err := uuid.Parse(questionID)
	if err != nil {
		return nil, fmt.Errorf("%w: question id", apperrors.ErrInvalidIdentifier)
	}

	score := ScoreReflection(answerText)

	err = ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		question, err := ls.questionRepo.GetByIDForUser(ctx, tx, qid, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question", apperrors.ErrNotFound)
			}
			return err
		}
		if question.IsAnswered {
			return apperrors.ErrAlreadyAnswered
		}
		session := &types.ReflectionSession{
			PatternID:              question.PatternID,
			AIQuestion:             question.QuestionText,
			UserAnswer:             answerText,
			ReflectionQualityScore: score,
		}
		if _, err := ls.reflections.Create(ctx, tx, session); err != nil {
			return err
		}
		return ls.questionRepo.MarkAnswered(ctx, tx, qid)
	})
	if err != nil {
		return nil, err
	}

	return &AnswerReceipt{
		Status:       "recorded",
		QualityScore: score,
		Message:      "Great reflection! This helps you build awareness of your spending patterns.",
	}, nil
}

func (ls *learningService) UnansweredQuestions(ctx context.Context, userID string) (*UnansweredList, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		// Read path: malformed id means no questions, not an error.
		return &UnansweredList{Count: 0, Questions: []UnansweredQuestion{}}, nil
	}
	questions, err := ls.questionRepo.ListUnansweredByUser(ctx, nil, uid)
	if err != nil {
		return nil, err
	}
	out := &UnansweredList{Count: len(questions), Questions: make([]UnansweredQuestion, 0, len(questions))}
	for _, q := range questions {
		out.Questions = append(out.Questions, UnansweredQuestion{
			ID:        q.ID,
			Text:      q.QuestionText,
			CreatedAt: q.CreatedAt,
		})
	}
	return out, nil
}

func contextDataMap(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
