package services

import (
	"context"

	"tradebook/internal/models"
	"tradebook/internal/report"
)

// reportService builds P&L reports from an owner's full position set.
type reportService struct {
	positions PositionServicer
	teams     TeamServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(positions PositionServicer, teams TeamServicer) ReportServicer {
	return &reportService{positions: positions, teams: teams}
}

// GetUserReport aggregates the user's personal book.
func (s *reportService) GetUserReport(ctx context.Context, userID string) (*Report, error) {
	return s.build(ctx, models.UserOwner(userID))
}

// GetTeamReport aggregates a team's book. Members only.
func (s *reportService) GetTeamReport(ctx context.Context, userID, teamID string) (*Report, error) {
	if _, err := s.teams.RequireMember(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return s.build(ctx, models.TeamOwner(teamID))
}

func (s *reportService) build(ctx context.Context, owner models.Owner) (*Report, error) {
	positions, err := s.positions.AllPositions(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &Report{
		Summary: report.Summarize(positions),
		Monthly: report.Monthly(positions),
	}, nil
}
