package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/services"
)

// PositionHandler handles the personal trade book.
type PositionHandler struct {
	positionService services.PositionServicer
	auditService    services.AuditServicer
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionService services.PositionServicer, auditService services.AuditServicer) *PositionHandler {
	return &PositionHandler{positionService: positionService, auditService: auditService}
}

// ClosePositionRequest represents the request payload for closing a position.
type ClosePositionRequest struct {
	ExitPrice ledger.Number `json:"exit_price" swaggertype:"number"`
	ExitDate  string        `json:"exit_date" example:"2024-01-20"`
}

// MarkPriceRequest represents the request payload for setting the current market price.
type MarkPriceRequest struct {
	CurrentPrice ledger.Number `json:"current_price" swaggertype:"number"`
}

// positionQuery holds the list filters accepted on position endpoints.
type positionQuery struct {
	Status    string `form:"status" binding:"omitempty,position_status"`
	Direction string `form:"direction" binding:"omitempty,direction"`
	Symbol    string `form:"symbol" binding:"omitempty,max=20"`
}

// parsePositionFilter binds paging and filter query parameters.
func parsePositionFilter(c *gin.Context) (services.PositionFilter, pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return services.PositionFilter{}, page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var q positionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return services.PositionFilter{}, page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	month, year, err := parseMonthYear(c)
	if err != nil {
		return services.PositionFilter{}, page, err
	}

	filter := services.PositionFilter{Symbol: q.Symbol, Month: month, Year: year}
	if q.Status != "" {
		s := ledger.Status(q.Status)
		filter.Status = &s
	}
	if q.Direction != "" {
		d := ledger.Direction(q.Direction)
		filter.Direction = &d
	}
	return filter, page, nil
}

// positionChanges is the audit payload for a position write.
func positionChanges(p *models.Position) map[string]any {
	return map[string]any{
		"symbol":      p.Symbol,
		"status":      p.Status,
		"entry_price": p.EntryPrice.String(),
		"quantity":    p.Quantity,
	}
}

// CreatePosition handles recording a new trade.
// @Summary     Create a position
// @Description Record a new OPEN or CLOSED position. P&L and investment are derived.
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ledger.Input true "Position details"
// @Success     201 {object} models.Position "Position created"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions [post]
func (h *PositionHandler) CreatePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ledger.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.positionService.CreatePosition(c.Request.Context(), userID, models.UserOwner(userID), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CREATE_POSITION", "position", position.ID, c.ClientIP(),
		positionChanges(position))

	c.JSON(http.StatusCreated, gin.H{"position": position})
}

// GetPositions handles listing the authenticated user's positions.
// @Summary     Get positions
// @Description Get a paginated list of positions, newest entry first
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (OPEN/CLOSED)"
// @Param       direction query string false "Filter by direction (BUY/SELL)"
// @Param       symbol    query string false "Filter by symbol"
// @Param       month     query int    false "Filter by entry month (1-12)"
// @Param       year      query int    false "Filter by entry year"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Position] "Paginated positions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions [get]
func (h *PositionHandler) GetPositions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, page, err := parsePositionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.positionService.ListPositions(c.Request.Context(), models.UserOwner(userID), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPosition handles retrieving a single position.
// @Summary     Get position by ID
// @Description Get a specific position by ID
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Position ID"
// @Success     200 {object} models.Position "Position details"
// @Failure     400 {object} ErrorResponse "Invalid position ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions/{id} [get]
func (h *PositionHandler) GetPosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	position, err := h.positionService.GetPosition(c.Request.Context(), models.UserOwner(userID), positionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// UpdatePosition handles a partial update of a position.
// @Summary     Update position
// @Description Update any field of a position. The merged record is re-validated and P&L recomputed.
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Position ID"
// @Param       request body ledger.Patch true "Fields to change"
// @Success     200 {object} models.Position "Updated position"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions/{id} [put]
func (h *PositionHandler) UpdatePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ledger.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.positionService.UpdatePosition(c.Request.Context(), userID, models.UserOwner(userID), positionID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_POSITION", "position", position.ID, c.ClientIP(),
		positionChanges(position))

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// ClosePosition handles closing an open position.
// @Summary     Close position
// @Description Close an OPEN position at an exit price and date
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Position ID"
// @Param       request body ClosePositionRequest true "Exit details"
// @Success     200 {object} models.Position "Closed position"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     409 {object} ErrorResponse "Position already closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions/{id}/close [post]
func (h *PositionHandler) ClosePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClosePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.positionService.ClosePosition(c.Request.Context(), userID, models.UserOwner(userID), positionID,
		req.ExitPrice, req.ExitDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CLOSE_POSITION", "position", position.ID, c.ClientIP(),
		map[string]any{"exit_price": req.ExitPrice.Raw(), "exit_date": req.ExitDate, "pnl": position.PnL.String()})

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// UpdatePrice handles setting the market price of an open position.
// @Summary     Update position price
// @Description Set the current market price of an OPEN position and recompute unrealized P&L
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Position ID"
// @Param       request body MarkPriceRequest true "Price update"
// @Success     200 {object} models.Position "Updated position"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     409 {object} ErrorResponse "Position is not open"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions/{id}/price [put]
func (h *PositionHandler) UpdatePrice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.positionService.UpdateMarkPrice(c.Request.Context(), userID, models.UserOwner(userID), positionID, req.CurrentPrice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_POSITION_PRICE", "position", position.ID, c.ClientIP(),
		map[string]any{"current_price": req.CurrentPrice.Raw()})

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// DeletePosition handles deleting a position.
// @Summary     Delete position
// @Description Permanently delete a position
// @Tags        positions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Position ID"
// @Success     200 {object} MessageResponse "Position deleted"
// @Failure     400 {object} ErrorResponse "Invalid position ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Position not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /positions/{id} [delete]
func (h *PositionHandler) DeletePosition(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	positionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.positionService.DeletePosition(c.Request.Context(), userID, models.UserOwner(userID), positionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "DELETE_POSITION", "position", positionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Position deleted successfully"})
}
