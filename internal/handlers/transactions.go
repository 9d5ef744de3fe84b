package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/budgelabs/budge-backend/internal/services"
)

type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

type transactionCreate struct {
	UserID   string  `json:"user_id" binding:"required"`
	Date     string  `json:"date" binding:"required"`
	Merchant string  `json:"merchant" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Category string  `json:"category"`
}

func (th *TransactionHandler) Create(c *gin.Context) {
	var body transactionCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tx, err := th.transactionService.Create(c.Request.Context(), services.TransactionInput{
		UserID:   body.UserID,
		Date:     date,
		Merchant: body.Merchant,
		Amount:   body.Amount,
		Category: body.Category,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, tx)
}

func (th *TransactionHandler) List(c *gin.Context) {
	txs, err := th.transactionService.List(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, txs)
}

func (th *TransactionHandler) Stats(c *gin.Context) {
	stats, err := th.transactionService.Stats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, stats)
}

func (th *TransactionHandler) DeleteAll(c *gin.Context) {
	if _, err := th.transactionService.DeleteAll(c.Request.Context(), c.Param("user_id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "success", "message": "All transactions deleted"})
}

func (th *TransactionHandler) DeleteOne(c *gin.Context) {
	if err := th.transactionService.DeleteOne(c.Request.Context(), c.Param("user_id"), c.Param("tx_id")); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "success", "message": "Transaction deleted"})
}
