package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/budgelabs/budge-backend/internal/services"
)

type LearningHandler struct {
	learningService services.LearningService
}

func NewLearningHandler(learningService services.LearningService) *LearningHandler {
	return &LearningHandler{learningService: learningService}
}

func (lh *LearningHandler) GenerateQuestion(c *gin.Context) {
	payload, err := lh.learningService.GenerateQuestionForPattern(
		c.Request.Context(),
		c.Param("pattern_id"),
		c.Query("user_id"),
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, payload)
}

type answerSubmission struct {
	QuestionID string `json:"question_id" binding:"required"`
	AnswerText string `json:"answer_text"`
}

func (lh *LearningHandler) SubmitAnswer(c *gin.Context) {
	var submission answerSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	receipt, err := lh.learningService.SubmitAnswer(
		c.Request.Context(),
		c.Query("user_id"),
		submission.QuestionID,
		submission.AnswerText,
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, receipt)
}

func (lh *LearningHandler) UnansweredQuestions(c *gin.Context) {
	list, err := lh.learningService.UnansweredQuestions(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, list)
}
