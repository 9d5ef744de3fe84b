package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/budgelabs/budge-backend/internal/services"
)

type PatternHandler struct {
	engine services.PatternEngine
}

func NewPatternHandler(engine services.PatternEngine) *PatternHandler {
	return &PatternHandler{engine: engine}
}

// Scan runs a replace-semantics pattern scan and returns the fresh set.
func (ph *PatternHandler) Scan(c *gin.Context) {
	patterns, err := ph.engine.Scan(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, patterns)
}
