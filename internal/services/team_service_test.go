package services

import (
	"context"
	"testing"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/testutil"
)

func newTeamService(t *testing.T) (TeamServicer, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	positions := NewPositionService(db, nil, testutil.FixedClock(testNow))
	return NewTeamService(db, positions, nil), func() { testutil.TeardownTestDB(t, db) }
}

func TestCreateTeam(t *testing.T) {
	t.Run("creator becomes admin", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTeamService(db, NewPositionService(db, nil, testutil.FixedClock(testNow)), nil)
		user := testutil.CreateTestUser(t, db)

		team, err := svc.CreateTeam(context.Background(), user.ID, "  Swing Desk ", "")
		testutil.AssertNoError(t, err)
		if team.Name != "Swing Desk" {
			t.Errorf("expected trimmed name, got %q", team.Name)
		}

		member, err := svc.RequireMember(context.Background(), user.ID, team.ID)
		testutil.AssertNoError(t, err)
		if member.Role != models.TeamRoleAdmin {
			t.Errorf("expected admin, got %s", member.Role)
		}

		teams, err := svc.ListUserTeams(context.Background(), user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if teams.TotalItems != 1 {
			t.Errorf("expected 1 team, got %d", teams.TotalItems)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		svc, done := newTeamService(t)
		defer done()
		_, err := svc.CreateTeam(context.Background(), "u1", " ", "")
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})
}

func TestTeamRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTeamService(db, NewPositionService(db, nil, testutil.FixedClock(testNow)), nil)
	admin := testutil.CreateTestUser(t, db)
	member := testutil.CreateTestUser(t, db)
	outsider := testutil.CreateTestUser(t, db)
	team := testutil.CreateTestTeam(t, db, admin.ID)
	ctx := context.Background()

	t.Run("admin adds a member", func(t *testing.T) {
		m, err := svc.AddMember(ctx, admin.ID, team.ID, member.ID, models.TeamRoleMember)
		testutil.AssertNoError(t, err)
		if !m.IsActive || m.Role != models.TeamRoleMember {
			t.Errorf("unexpected member %+v", m)
		}
	})

	t.Run("duplicate member", func(t *testing.T) {
		_, err := svc.AddMember(ctx, admin.ID, team.ID, member.ID, models.TeamRoleMember)
		testutil.AssertAppError(t, err, "DUPLICATE_MEMBER")
	})

	t.Run("member cannot manage roster", func(t *testing.T) {
		_, err := svc.AddMember(ctx, member.ID, team.ID, outsider.ID, models.TeamRoleViewer)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("outsider sees team not found", func(t *testing.T) {
		_, err := svc.GetTeam(ctx, outsider.ID, team.ID)
		testutil.AssertAppError(t, err, "TEAM_NOT_FOUND")
	})

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		_, err := svc.UpdateMemberRole(ctx, admin.ID, team.ID, admin.ID, models.TeamRoleMember)
		testutil.AssertAppError(t, err, "LAST_ADMIN")
	})

	t.Run("member leaves and is re-added as viewer", func(t *testing.T) {
		testutil.AssertNoError(t, svc.RemoveMember(ctx, member.ID, team.ID, member.ID))

		_, err := svc.GetTeam(ctx, member.ID, team.ID)
		testutil.AssertAppError(t, err, "TEAM_NOT_FOUND")

		m, err := svc.AddMember(ctx, admin.ID, team.ID, member.ID, models.TeamRoleViewer)
		testutil.AssertNoError(t, err)
		if m.Role != models.TeamRoleViewer || !m.IsActive {
			t.Errorf("expected reactivated viewer, got %+v", m)
		}

		got, err := svc.GetTeam(ctx, admin.ID, team.ID)
		testutil.AssertNoError(t, err)
		if len(got.Members) != 2 {
			t.Errorf("expected 2 active members, got %d", len(got.Members))
		}
	})

	t.Run("removing an unknown member", func(t *testing.T) {
		err := svc.RemoveMember(ctx, admin.ID, team.ID, outsider.ID)
		testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")
	})
}

func TestTeamTrades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTeamService(db, NewPositionService(db, nil, testutil.FixedClock(testNow)), nil)
	admin := testutil.CreateTestUser(t, db)
	viewer := testutil.CreateTestUser(t, db)
	outsider := testutil.CreateTestUser(t, db)
	team := testutil.CreateTestTeam(t, db, admin.ID)
	testutil.AddTestMember(t, db, team.ID, viewer.ID, models.TeamRoleViewer)
	ctx := context.Background()

	trade, err := svc.CreateTeamTrade(ctx, admin.ID, team.ID, tcsInput())
	testutil.AssertNoError(t, err)
	if trade.OwnerType != models.OwnerTeam || trade.OwnerID != team.ID || trade.CreatedBy != admin.ID {
		t.Fatalf("unexpected ownership %s/%s by %s", trade.OwnerType, trade.OwnerID, trade.CreatedBy)
	}

	t.Run("viewer can read but not write", func(t *testing.T) {
		_, err := svc.GetTeamTrade(ctx, viewer.ID, team.ID, trade.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateTeamTrade(ctx, viewer.ID, team.ID, tcsInput())
		testutil.AssertAppError(t, err, "FORBIDDEN")

		_, err = svc.CloseTeamTrade(ctx, viewer.ID, team.ID, trade.ID, ledger.NewNumber("3900"), "2024-01-20")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("outsider gets team not found", func(t *testing.T) {
		_, err := svc.ListTeamTrades(ctx, outsider.ID, team.ID, PositionFilter{}, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "TEAM_NOT_FOUND")
	})

	t.Run("team trade is not in the personal book", func(t *testing.T) {
		positions := NewPositionService(db, nil, testutil.FixedClock(testNow))
		_, err := positions.GetPosition(ctx, models.UserOwner(admin.ID), trade.ID)
		testutil.AssertAppError(t, err, "POSITION_NOT_FOUND")
	})

	t.Run("votes are upserted", func(t *testing.T) {
		_, err := svc.CastVote(ctx, viewer.ID, team.ID, trade.ID, models.VoteBuy)
		testutil.AssertNoError(t, err)
		_, err = svc.CastVote(ctx, admin.ID, team.ID, trade.ID, models.VoteBuy)
		testutil.AssertNoError(t, err)
		_, err = svc.CastVote(ctx, viewer.ID, team.ID, trade.ID, models.VoteSell)
		testutil.AssertNoError(t, err)

		tally, err := svc.GetVotes(ctx, admin.ID, team.ID, trade.ID)
		testutil.AssertNoError(t, err)
		if tally.Buy != 1 || tally.Sell != 1 || len(tally.Votes) != 2 {
			t.Errorf("unexpected tally %+v", tally)
		}
	})

	t.Run("invalid vote choice", func(t *testing.T) {
		_, err := svc.CastVote(ctx, admin.ID, team.ID, trade.ID, models.VoteChoice("maybe"))
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("votes of removed members are not counted", func(t *testing.T) {
		testutil.AssertNoError(t, svc.RemoveMember(ctx, viewer.ID, team.ID, viewer.ID))

		tally, err := svc.GetVotes(ctx, admin.ID, team.ID, trade.ID)
		testutil.AssertNoError(t, err)
		if tally.Buy != 1 || tally.Sell != 0 || len(tally.Votes) != 1 {
			t.Fatalf("expected only the admin's vote, got %+v", tally)
		}
		if tally.Votes[0].UserID != admin.ID {
			t.Errorf("expected the admin's vote, got %s", tally.Votes[0].UserID)
		}
	})

	t.Run("close then delete updates team stats", func(t *testing.T) {
		_, err := svc.CloseTeamTrade(ctx, admin.ID, team.ID, trade.ID, ledger.NewNumber("3900"), "2024-01-20")
		testutil.AssertNoError(t, err)

		got, err := svc.GetTeam(ctx, admin.ID, team.ID)
		testutil.AssertNoError(t, err)
		if got.Stats.ClosedTrades != 1 {
			t.Errorf("expected 1 closed trade, got %+v", got.Stats)
		}

		testutil.AssertNoError(t, svc.DeleteTeamTrade(ctx, admin.ID, team.ID, trade.ID))

		var votes int64
		db.Model(&models.TeamVote{}).Where("position_id = ?", trade.ID).Count(&votes)
		if votes != 0 {
			t.Errorf("expected votes removed with the trade, got %d", votes)
		}

		got, _ = svc.GetTeam(ctx, admin.ID, team.ID)
		if got.Stats.TotalTrades != 0 {
			t.Errorf("expected stats reset, got %+v", got.Stats)
		}
	})
}
