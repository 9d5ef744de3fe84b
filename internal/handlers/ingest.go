package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/budgelabs/budge-backend/internal/services"
)

type IngestHandler struct {
	ingestService services.IngestService
}

func NewIngestHandler(ingestService services.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Upload accepts a statement screenshot as multipart form field "file" and
// returns the extracted transaction drafts.
func (ih *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer file.Close()
	imageBytes, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	receipt, err := ih.ingestService.ProcessImage(
		c.Request.Context(),
		c.Query("user_id"),
		imageBytes,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"status":             "success",
		"transactions_found": len(receipt.Transactions),
		"data":               receipt,
	})
}
