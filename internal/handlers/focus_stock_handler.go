package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/services"
)

// FocusStockHandler handles the watchlist and its conversion into positions.
type FocusStockHandler struct {
	focusStockService services.FocusStockServicer
	auditService      services.AuditServicer
}

// NewFocusStockHandler creates a new FocusStockHandler.
func NewFocusStockHandler(focusStockService services.FocusStockServicer, auditService services.AuditServicer) *FocusStockHandler {
	return &FocusStockHandler{focusStockService: focusStockService, auditService: auditService}
}

type focusStockQuery struct {
	Tag string `form:"tag" binding:"omitempty,focus_tag"`
}

// CreateFocusStock handles adding a stock to the watchlist.
// @Summary     Create a focus stock
// @Description Add a stock to the watchlist with entry, target and stop-loss levels
// @Tags        focus-stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.FocusStockInput true "Focus stock details"
// @Success     201 {object} models.FocusStock "Focus stock created"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks [post]
func (h *FocusStockHandler) CreateFocusStock(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.FocusStockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stock, err := h.focusStockService.CreateFocusStock(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CREATE_FOCUS_STOCK", "focus_stock", stock.ID, c.ClientIP(),
		map[string]any{"symbol": stock.Symbol, "entry_price": stock.EntryPrice.String(), "target_price": stock.TargetPrice.String()})

	c.JSON(http.StatusCreated, gin.H{"focus_stock": stock})
}

// GetFocusStocks handles listing the watchlist.
// @Summary     Get focus stocks
// @Description Get a paginated watchlist, newest first
// @Tags        focus-stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       tag       query string false "Filter by tag"
// @Param       taken     query bool   false "Filter by trade taken"
// @Param       month     query int    false "Filter by month added (1-12)"
// @Param       year      query int    false "Filter by year added"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.FocusStock] "Paginated focus stocks"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks [get]
func (h *FocusStockHandler) GetFocusStocks(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var q focusStockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	taken, err := parseOptionalBool(c, "taken")
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parseMonthYear(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.FocusStockFilter{Taken: taken, Month: month, Year: year}
	if q.Tag != "" {
		tag := models.FocusTag(q.Tag)
		filter.Tag = &tag
	}

	result, err := h.focusStockService.ListFocusStocks(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFocusStock handles retrieving a single focus stock.
// @Summary     Get focus stock by ID
// @Tags        focus-stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Focus stock ID"
// @Success     200 {object} models.FocusStock "Focus stock details"
// @Failure     400 {object} ErrorResponse "Invalid focus stock ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Focus stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks/{id} [get]
func (h *FocusStockHandler) GetFocusStock(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stock, err := h.focusStockService.GetFocusStock(c.Request.Context(), userID, stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"focus_stock": stock})
}

// UpdateFocusStock handles a partial update of a focus stock.
// @Summary     Update focus stock
// @Tags        focus-stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Focus stock ID"
// @Param       request body services.FocusStockPatch true "Fields to change"
// @Success     200 {object} models.FocusStock "Updated focus stock"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Focus stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks/{id} [put]
func (h *FocusStockHandler) UpdateFocusStock(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.FocusStockPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	stock, err := h.focusStockService.UpdateFocusStock(c.Request.Context(), userID, stockID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_FOCUS_STOCK", "focus_stock", stock.ID, c.ClientIP(),
		map[string]any{"symbol": stock.Symbol, "tag": stock.Tag})

	c.JSON(http.StatusOK, gin.H{"focus_stock": stock})
}

// DeleteFocusStock handles removing a stock from the watchlist.
// @Summary     Delete focus stock
// @Description Remove a watchlist entry. A position created from it is kept.
// @Tags        focus-stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Focus stock ID"
// @Success     200 {object} MessageResponse "Focus stock deleted"
// @Failure     400 {object} ErrorResponse "Invalid focus stock ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Focus stock not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks/{id} [delete]
func (h *FocusStockHandler) DeleteFocusStock(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.focusStockService.DeleteFocusStock(c.Request.Context(), userID, stockID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "DELETE_FOCUS_STOCK", "focus_stock", stockID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Focus stock deleted successfully"})
}

// MarkTaken handles converting a focus stock into a position.
// @Summary     Mark trade taken
// @Description Convert a focus stock into a position. Merges into the latest OPEN position of the same symbol when one exists.
// @Tags        focus-stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true  "Focus stock ID"
// @Param       request body services.MarkTakenInput false "Trade details"
// @Success     200 {object} services.MergeResult "Focus stock and resulting position"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Focus stock not found"
// @Failure     409 {object} ErrorResponse "Trade already taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks/{id}/take [post]
func (h *FocusStockHandler) MarkTaken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.MarkTakenInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	result, err := h.focusStockService.MarkTaken(c.Request.Context(), userID, stockID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "MARK_TRADE_TAKEN", "focus_stock", stockID, c.ClientIP(),
		map[string]any{"position_id": result.Position.ID, "merged": result.Merged})

	c.JSON(http.StatusOK, result)
}

// RevertTaken handles undoing a focus stock conversion.
// @Summary     Revert trade taken
// @Description Undo a conversion. The created position is deleted, or the merged quantity is backed out.
// @Tags        focus-stocks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Focus stock ID"
// @Success     200 {object} services.RevertResult "Reverted focus stock"
// @Failure     400 {object} ErrorResponse "Invalid focus stock ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Focus stock not found"
// @Failure     409 {object} ErrorResponse "Trade not taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /focus-stocks/{id}/revert [post]
func (h *FocusStockHandler) RevertTaken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stockID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.focusStockService.RevertTaken(c.Request.Context(), userID, stockID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "REVERT_TRADE_TAKEN", "focus_stock", stockID, c.ClientIP(),
		map[string]any{"position_deleted": result.PositionDeleted})

	c.JSON(http.StatusOK, result)
}
