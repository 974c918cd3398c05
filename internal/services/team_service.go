package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/events"
	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
)

// teamService handles team rosters, team trades and votes. Team trades are
// positions owned by the team and go through the position service.
type teamService struct {
	db        *gorm.DB
	positions PositionServicer
	sink      events.Sink
}

// NewTeamService creates a new TeamServicer.
func NewTeamService(db *gorm.DB, positions PositionServicer, sink events.Sink) TeamServicer {
	return &teamService{db: db, positions: positions, sink: sink}
}

// CreateTeam creates a team with the caller as its first admin.
func (s *teamService) CreateTeam(ctx context.Context, userID, name, description string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}
	if len(name) > 100 {
		return nil, apperrors.Validation("name", "must be at most 100 characters")
	}

	team := &models.Team{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		admin := models.TeamMember{TeamID: team.ID, UserID: userID, Role: models.TeamRoleAdmin, IsActive: true}
		if err := tx.Create(&admin).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		team.Members = []models.TeamMember{admin}
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return team, nil
}

// RequireMember returns the caller's active membership. Non-members get
// TEAM_NOT_FOUND so team ids do not leak.
func (s *teamService) RequireMember(ctx context.Context, userID, teamID string) (*models.TeamMember, error) {
	return activeMember(s.db.WithContext(ctx), teamID, userID, apperrors.ErrTeamNotFound)
}

func activeMember(tx *gorm.DB, teamID, userID string, notFound *apperrors.AppError) (*models.TeamMember, error) {
	var member models.TeamMember
	err := tx.Where("team_id = ? AND user_id = ? AND is_active = ?", teamID, userID, true).First(&member).Error
	if err != nil {
		return nil, lookupError(err, notFound)
	}
	return &member, nil
}

func (s *teamService) requireRole(ctx context.Context, userID, teamID string, allowed func(models.TeamRole) bool) (*models.TeamMember, error) {
	member, err := s.RequireMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !allowed(member.Role) {
		return nil, apperrors.ErrForbidden
	}
	return member, nil
}

func isAdmin(r models.TeamRole) bool { return r == models.TeamRoleAdmin }

// GetTeam returns a team with its active roster.
func (s *teamService) GetTeam(ctx context.Context, userID, teamID string) (*models.Team, error) {
	if _, err := s.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Members", "is_active = ?", true).
		Where("id = ?", teamID).
		First(&team).Error
	if err != nil {
		return nil, lookupError(err, apperrors.ErrTeamNotFound)
	}
	return &team, nil
}

// ListUserTeams lists the teams the user actively belongs to.
func (s *teamService) ListUserTeams(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Team], error) {
	db := s.db.WithContext(ctx)
	base := db.Model(&models.Team{}).
		Where("id IN (?)", db.Model(&models.TeamMember{}).
			Select("team_id").
			Where("user_id = ? AND is_active = ?", userID, true))

	resp, err := pagination.Find[models.Team](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}

// AddMember adds a user to the team, or reactivates a removed member. Admin only.
func (s *teamService) AddMember(ctx context.Context, userID, teamID, memberUserID string, role models.TeamRole) (*models.TeamMember, error) {
	if err := validateRole(role); err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, userID, teamID, isAdmin); err != nil {
		return nil, err
	}

	var member models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ? AND is_active = ?", memberUserID, true).First(&user).Error; err != nil {
			return lookupError(err, apperrors.ErrUserNotFound)
		}

		err := tx.Where("team_id = ? AND user_id = ?", teamID, memberUserID).First(&member).Error
		switch {
		case err == nil && member.IsActive:
			return apperrors.ErrDuplicateMember
		case err == nil:
			member.IsActive = true
			member.Role = role
			if err := tx.Save(&member).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		member = models.TeamMember{TeamID: teamID, UserID: memberUserID, Role: role, IsActive: true}
		if err := tx.Create(&member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return &member, nil
}

// UpdateMemberRole changes a member's role. Admin only; the last active admin
// cannot be demoted.
func (s *teamService) UpdateMemberRole(ctx context.Context, userID, teamID, memberUserID string, role models.TeamRole) (*models.TeamMember, error) {
	if err := validateRole(role); err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, userID, teamID, isAdmin); err != nil {
		return nil, err
	}

	var member *models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if member, err = activeMember(tx, teamID, memberUserID, apperrors.ErrMemberNotFound); err != nil {
			return err
		}
		if member.Role == models.TeamRoleAdmin && role != models.TeamRoleAdmin {
			if err := ensureAnotherAdmin(tx, teamID, memberUserID); err != nil {
				return err
			}
		}
		member.Role = role
		if err := tx.Save(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return member, nil
}

// RemoveMember deactivates a member. Admins may remove anyone; any member may
// remove themselves. The last active admin cannot leave.
func (s *teamService) RemoveMember(ctx context.Context, userID, teamID, memberUserID string) error {
	caller, err := s.RequireMember(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if caller.Role != models.TeamRoleAdmin && userID != memberUserID {
		return apperrors.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := activeMember(tx, teamID, memberUserID, apperrors.ErrMemberNotFound)
		if err != nil {
			return err
		}
		if member.Role == models.TeamRoleAdmin {
			if err := ensureAnotherAdmin(tx, teamID, memberUserID); err != nil {
				return err
			}
		}
		if err := tx.Model(member).Update("is_active", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	return passThrough(err)
}

func ensureAnotherAdmin(tx *gorm.DB, teamID, exceptUserID string) error {
	var admins int64
	err := tx.Model(&models.TeamMember{}).
		Where("team_id = ? AND role = ? AND is_active = ? AND user_id <> ?", teamID, models.TeamRoleAdmin, true, exceptUserID).
		Count(&admins).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if admins == 0 {
		return apperrors.ErrLastAdmin
	}
	return nil
}

func validateRole(role models.TeamRole) error {
	switch role {
	case models.TeamRoleAdmin, models.TeamRoleMember, models.TeamRoleViewer:
		return nil
	}
	return apperrors.Validation("role", "must be one of admin, member, viewer")
}

// CreateTeamTrade opens a team-owned position. Admins and members only.
func (s *teamService) CreateTeamTrade(ctx context.Context, userID, teamID string, in ledger.Input) (*models.Position, error) {
	if _, err := s.requireRole(ctx, userID, teamID, models.TeamRole.CanTrade); err != nil {
		return nil, err
	}
	return s.positions.CreatePosition(ctx, userID, models.TeamOwner(teamID), in)
}

// GetTeamTrade returns one team position. Any active member may read.
func (s *teamService) GetTeamTrade(ctx context.Context, userID, teamID, positionID string) (*models.Position, error) {
	if _, err := s.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return s.positions.GetPosition(ctx, models.TeamOwner(teamID), positionID)
}

// ListTeamTrades lists team positions. Any active member may read.
func (s *teamService) ListTeamTrades(ctx context.Context, userID, teamID string, filter PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error) {
	if _, err := s.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return s.positions.ListPositions(ctx, models.TeamOwner(teamID), filter, page)
}

// UpdateTeamTrade patches a team position. Admins and members only.
func (s *teamService) UpdateTeamTrade(ctx context.Context, userID, teamID, positionID string, patch ledger.Patch) (*models.Position, error) {
	if _, err := s.requireRole(ctx, userID, teamID, models.TeamRole.CanTrade); err != nil {
		return nil, err
	}
	return s.positions.UpdatePosition(ctx, userID, models.TeamOwner(teamID), positionID, patch)
}

// CloseTeamTrade closes a team position. Admins and members only.
func (s *teamService) CloseTeamTrade(ctx context.Context, userID, teamID, positionID string, exitPrice ledger.Number, exitDate string) (*models.Position, error) {
	if _, err := s.requireRole(ctx, userID, teamID, models.TeamRole.CanTrade); err != nil {
		return nil, err
	}
	return s.positions.ClosePosition(ctx, userID, models.TeamOwner(teamID), positionID, exitPrice, exitDate)
}

// DeleteTeamTrade deletes a team position and its votes. Admins and members only.
func (s *teamService) DeleteTeamTrade(ctx context.Context, userID, teamID, positionID string) error {
	if _, err := s.requireRole(ctx, userID, teamID, models.TeamRole.CanTrade); err != nil {
		return err
	}
	return s.positions.DeletePosition(ctx, userID, models.TeamOwner(teamID), positionID)
}

// CastVote records or replaces the caller's vote on a team trade. Any active member may vote.
func (s *teamService) CastVote(ctx context.Context, userID, teamID, positionID string, choice models.VoteChoice) (*models.TeamVote, error) {
	switch choice {
	case models.VoteBuy, models.VoteSell, models.VoteHold:
	default:
		return nil, apperrors.Validation("choice", "must be one of buy, sell, hold")
	}
	if _, err := s.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	position, err := s.positions.GetPosition(ctx, models.TeamOwner(teamID), positionID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	vote := &models.TeamVote{PositionID: positionID, UserID: userID, Choice: choice}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "position_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice", "updated_at"}),
	}).Create(vote).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Reload so the id is the stored row's id when an existing vote was replaced.
	var stored models.TeamVote
	if err := db.Where("position_id = ? AND user_id = ?", positionID, userID).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	evt := events.New(events.TeamVoteCast, position.ID, position.Symbol, map[string]any{"choice": choice})
	evt.UserID = userID
	evt.OwnerType = string(models.OwnerTeam)
	evt.OwnerID = teamID
	events.Emit(ctx, s.sink, evt)

	return &stored, nil
}

// GetVotes returns the vote tally of a team trade.
func (s *teamService) GetVotes(ctx context.Context, userID, teamID, positionID string) (*VoteTally, error) {
	if _, err := s.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	if _, err := s.positions.GetPosition(ctx, models.TeamOwner(teamID), positionID); err != nil {
		return nil, err
	}

	// Votes of members who have since left the team are not counted.
	var votes []models.TeamVote
	err := s.db.WithContext(ctx).
		Select("team_votes.*").
		Joins("JOIN team_members ON team_members.user_id = team_votes.user_id AND team_members.team_id = ? AND team_members.is_active = ?", teamID, true).
		Where("team_votes.position_id = ?", positionID).
		Order("team_votes.created_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tally := &VoteTally{PositionID: positionID, Votes: votes}
	if tally.Votes == nil {
		tally.Votes = []models.TeamVote{}
	}
	for _, v := range votes {
		switch v.Choice {
		case models.VoteBuy:
			tally.Buy++
		case models.VoteSell:
			tally.Sell++
		case models.VoteHold:
			tally.Hold++
		}
	}
	return tally, nil
}
