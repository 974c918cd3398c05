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

// TeamHandler handles teams, their roster, shared trades and votes.
type TeamHandler struct {
	teamService  services.TeamServicer
	auditService services.AuditServicer
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService services.TeamServicer, auditService services.AuditServicer) *TeamHandler {
	return &TeamHandler{teamService: teamService, auditService: auditService}
}

// CreateTeamRequest represents the request payload for creating a team.
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// AddMemberRequest represents the request payload for adding a team member.
type AddMemberRequest struct {
	UserID string          `json:"user_id" binding:"required,uuid"`
	Role   models.TeamRole `json:"role" binding:"required,team_role"`
}

// UpdateMemberRequest represents the request payload for changing a member's role.
type UpdateMemberRequest struct {
	Role models.TeamRole `json:"role" binding:"required,team_role"`
}

// CastVoteRequest represents the request payload for voting on a team trade.
type CastVoteRequest struct {
	Choice models.VoteChoice `json:"choice" binding:"required,vote_choice"`
}

// teamPath resolves the caller and the team ID shared by every team route.
func teamPath(c *gin.Context) (userID, teamID string, err error) {
	if userID, err = getUserID(c); err != nil {
		return "", "", err
	}
	if teamID, err = parsePathID(c, "id"); err != nil {
		return "", "", err
	}
	return userID, teamID, nil
}

// CreateTeam handles creating a team. The creator becomes its admin.
// @Summary     Create a team
// @Tags        teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTeamRequest true "Team details"
// @Success     201 {object} models.Team "Team created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CREATE_TEAM", "team", team.ID, c.ClientIP(),
		map[string]any{"name": team.Name})

	c.JSON(http.StatusCreated, gin.H{"team": team})
}

// GetTeams handles listing the teams the user belongs to.
// @Summary     Get teams
// @Tags        teams
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Team] "Paginated teams"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams [get]
func (h *TeamHandler) GetTeams(c *gin.Context) {
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

	result, err := h.teamService.ListUserTeams(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTeam handles retrieving a team with its active members and stats.
// @Summary     Get team by ID
// @Tags        teams
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Team ID"
// @Success     200 {object} models.Team "Team details"
// @Failure     400 {object} ErrorResponse "Invalid team ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id} [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	team, err := h.teamService.GetTeam(c.Request.Context(), userID, teamID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"team": team})
}

// AddMember handles adding a user to a team.
// @Summary     Add team member
// @Description Admins add users as admin, member or viewer
// @Tags        teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Team ID"
// @Param       request body AddMemberRequest true "Member details"
// @Success     201 {object} models.TeamMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a team admin"
// @Failure     404 {object} ErrorResponse "Team not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/members [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.teamService.AddMember(c.Request.Context(), userID, teamID, req.UserID, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "ADD_TEAM_MEMBER", "team", teamID, c.ClientIP(),
		map[string]any{"user_id": req.UserID, "role": req.Role})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// UpdateMember handles changing a member's role.
// @Summary     Update team member role
// @Tags        teams
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Team ID"
// @Param       userId  path string              true "Member user ID"
// @Param       request body UpdateMemberRequest true "New role"
// @Success     200 {object} models.TeamMember "Updated member"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a team admin"
// @Failure     404 {object} ErrorResponse "Team or member not found"
// @Failure     409 {object} ErrorResponse "Last admin"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/members/{userId} [put]
func (h *TeamHandler) UpdateMember(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	memberID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.teamService.UpdateMemberRole(c.Request.Context(), userID, teamID, memberID, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_TEAM_MEMBER", "team", teamID, c.ClientIP(),
		map[string]any{"user_id": memberID, "role": req.Role})

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// RemoveMember handles removing a member. Members may remove themselves.
// @Summary     Remove team member
// @Tags        teams
// @Produce     json
// @Security    BearerAuth
// @Param       id     path string true "Team ID"
// @Param       userId path string true "Member user ID"
// @Success     200 {object} MessageResponse "Member removed"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a team admin"
// @Failure     404 {object} ErrorResponse "Team or member not found"
// @Failure     409 {object} ErrorResponse "Last admin"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/members/{userId} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	memberID, err := parsePathID(c, "userId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), userID, teamID, memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "REMOVE_TEAM_MEMBER", "team", teamID, c.ClientIP(),
		map[string]any{"user_id": memberID})

	c.JSON(http.StatusOK, MessageResponse{Message: "Member removed successfully"})
}

// CreateTrade handles recording a team trade.
// @Summary     Create a team trade
// @Description Record a position owned by the team. Requires admin or member role.
// @Tags        team-trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Team ID"
// @Param       request body ledger.Input true "Position details"
// @Success     201 {object} models.Position "Trade created"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Read-only member"
// @Failure     404 {object} ErrorResponse "Team not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades [post]
func (h *TeamHandler) CreateTrade(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ledger.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.teamService.CreateTeamTrade(c.Request.Context(), userID, teamID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CREATE_TEAM_TRADE", "position", trade.ID, c.ClientIP(),
		positionChanges(trade))

	c.JSON(http.StatusCreated, gin.H{"position": trade})
}

// GetTrades handles listing a team's trades.
// @Summary     Get team trades
// @Tags        team-trades
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Team ID"
// @Param       status    query string false "Filter by status (OPEN/CLOSED)"
// @Param       direction query string false "Filter by direction (BUY/SELL)"
// @Param       symbol    query string false "Filter by symbol"
// @Param       month     query int    false "Filter by entry month (1-12)"
// @Param       year      query int    false "Filter by entry year"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Position] "Paginated trades"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades [get]
func (h *TeamHandler) GetTrades(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, page, err := parsePositionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.teamService.ListTeamTrades(c.Request.Context(), userID, teamID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrade handles retrieving a single team trade.
// @Summary     Get team trade by ID
// @Tags        team-trades
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Team ID"
// @Param       tradeId path string true "Position ID"
// @Success     200 {object} models.Position "Trade details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId} [get]
func (h *TeamHandler) GetTrade(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trade, err := h.teamService.GetTeamTrade(c.Request.Context(), userID, teamID, tradeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": trade})
}

// UpdateTrade handles a partial update of a team trade.
// @Summary     Update team trade
// @Tags        team-trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Team ID"
// @Param       tradeId path string       true "Position ID"
// @Param       request body ledger.Patch true "Fields to change"
// @Success     200 {object} models.Position "Updated trade"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Read-only member"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId} [put]
func (h *TeamHandler) UpdateTrade(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ledger.Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.teamService.UpdateTeamTrade(c.Request.Context(), userID, teamID, tradeID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_TEAM_TRADE", "position", trade.ID, c.ClientIP(),
		positionChanges(trade))

	c.JSON(http.StatusOK, gin.H{"position": trade})
}

// CloseTrade handles closing an open team trade.
// @Summary     Close team trade
// @Tags        team-trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Team ID"
// @Param       tradeId path string               true "Position ID"
// @Param       request body ClosePositionRequest true "Exit details"
// @Success     200 {object} models.Position "Closed trade"
// @Failure     400 {object} ErrorResponse "Invalid input or validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Read-only member"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     409 {object} ErrorResponse "Trade already closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId}/close [post]
func (h *TeamHandler) CloseTrade(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClosePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	trade, err := h.teamService.CloseTeamTrade(c.Request.Context(), userID, teamID, tradeID, req.ExitPrice, req.ExitDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CLOSE_TEAM_TRADE", "position", trade.ID, c.ClientIP(),
		map[string]any{"exit_price": req.ExitPrice.Raw(), "exit_date": req.ExitDate, "pnl": trade.PnL.String()})

	c.JSON(http.StatusOK, gin.H{"position": trade})
}

// DeleteTrade handles deleting a team trade and its votes.
// @Summary     Delete team trade
// @Tags        team-trades
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Team ID"
// @Param       tradeId path string true "Position ID"
// @Success     200 {object} MessageResponse "Trade deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Read-only member"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId} [delete]
func (h *TeamHandler) DeleteTrade(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.teamService.DeleteTeamTrade(c.Request.Context(), userID, teamID, tradeID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "DELETE_TEAM_TRADE", "position", tradeID, c.ClientIP(),
		map[string]any{"team_id": teamID})

	c.JSON(http.StatusOK, MessageResponse{Message: "Trade deleted successfully"})
}

// CastVote handles a member's buy/sell/hold vote on a team trade.
// @Summary     Vote on team trade
// @Description Any active member may vote. Voting again replaces the previous vote.
// @Tags        team-trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Team ID"
// @Param       tradeId path string          true "Position ID"
// @Param       request body CastVoteRequest true "Vote"
// @Success     200 {object} models.TeamVote "Recorded vote"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId}/votes [post]
func (h *TeamHandler) CastVote(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	vote, err := h.teamService.CastVote(c.Request.Context(), userID, teamID, tradeID, req.Choice)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// GetVotes handles retrieving the vote tally of a team trade.
// @Summary     Get team trade votes
// @Tags        team-trades
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Team ID"
// @Param       tradeId path string true "Position ID"
// @Success     200 {object} services.VoteTally "Vote tally"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Team or trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /teams/{id}/trades/{tradeId}/votes [get]
func (h *TeamHandler) GetVotes(c *gin.Context) {
	userID, teamID, err := teamPath(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "tradeId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tally, err := h.teamService.GetVotes(c.Request.Context(), userID, teamID, tradeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}
