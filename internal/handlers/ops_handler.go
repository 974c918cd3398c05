package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tradebook/internal/logger"
	"tradebook/internal/quotes"
)

// QuoteRefresher pulls fresh market prices into the book.
type QuoteRefresher interface {
	Refresh(ctx context.Context) (*quotes.RefreshResult, error)
}

// OpsHandler serves operations endpoints guarded by an API key.
type OpsHandler struct {
	refresher QuoteRefresher
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(refresher QuoteRefresher) *OpsHandler {
	return &OpsHandler{refresher: refresher}
}

// RefreshQuotes runs one quote refresh synchronously.
// @Summary     Refresh quotes
// @Description Fetch current prices for every open position and untaken focus stock. Symbols that fail keep their last price.
// @Tags        ops
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} quotes.RefreshResult "Refresh outcome"
// @Failure     401 {object} ErrorResponse "Invalid or missing API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Failure     503 {object} ErrorResponse "Ops endpoints not configured"
// @Router      /ops/quotes/refresh [post]
func (h *OpsHandler) RefreshQuotes(c *gin.Context) {
	result, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Named("ops").Infow("quote refresh triggered",
		"symbols", result.Symbols,
		"quoted", result.Quoted,
		"client_ip", c.ClientIP(),
	)

	c.JSON(http.StatusOK, result)
}
