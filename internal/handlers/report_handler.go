package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradebook/internal/services"
)

// ReportHandler serves aggregate P&L reports.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetMyReport handles the personal book summary.
// @Summary     Get personal report
// @Description Realized and unrealized P&L, win rate and a monthly breakdown of the personal book
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Report "Report"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/me [get]
func (h *ReportHandler) GetMyReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rep, err := h.reportService.GetUserReport(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// GetTeamReport handles the team book summary.
// @Summary     Get team report
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Team ID"
// @Success     200 {object} services.Report "Report"
// @Failure     400 {object} ErrorResponse "Invalid team ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/report [get]
func (h *ReportHandler) GetTeamReport(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rep, err := h.reportService.GetTeamReport(c.Request.Context(), userID, teamID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}
