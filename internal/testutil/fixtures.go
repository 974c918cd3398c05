package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPosition creates an OPEN position entered on 2024-01-10.
func CreateTestPosition(t *testing.T, db *gorm.DB, owner models.Owner, createdBy, symbol string, entryPrice string, quantity int64) *models.Position {
	t.Helper()

	draft, fe := ledger.Validate(ledger.Input{
		Symbol:     symbol,
		EntryPrice: ledger.NewNumber(entryPrice),
		Quantity:   ledger.NewNumber(fmt.Sprint(quantity)),
		EntryDate:  "2024-01-10",
	}, Date(2024, 3, 1))
	if fe != nil {
		t.Fatalf("invalid test position: %v", fe)
	}

	position := &models.Position{OwnerType: owner.Type, OwnerID: owner.ID, CreatedBy: createdBy}
	position.ApplyDraft(draft)
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}

// CreateTestClosedPosition creates a CLOSED position entered on 2024-01-10 and closed on exitDate.
func CreateTestClosedPosition(t *testing.T, db *gorm.DB, owner models.Owner, createdBy, symbol, entryPrice, exitPrice string, quantity int64, exitDate string) *models.Position {
	t.Helper()

	draft, fe := ledger.Validate(ledger.Input{
		Symbol:     symbol,
		EntryPrice: ledger.NewNumber(entryPrice),
		Quantity:   ledger.NewNumber(fmt.Sprint(quantity)),
		EntryDate:  "2024-01-10",
		Status:     string(ledger.StatusClosed),
		ExitPrice:  ledger.NewNumber(exitPrice),
		ExitDate:   exitDate,
	}, Date(2024, 12, 31))
	if fe != nil {
		t.Fatalf("invalid test position: %v", fe)
	}

	position := &models.Position{OwnerType: owner.Type, OwnerID: owner.ID, CreatedBy: createdBy}
	position.ApplyDraft(draft)
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}

// CreateTestFocusStock creates an untaken watchlist entry.
func CreateTestFocusStock(t *testing.T, db *gorm.DB, userID, symbol, entryPrice, targetPrice string) *models.FocusStock {
	t.Helper()

	stock := &models.FocusStock{
		UserID:      userID,
		Symbol:      ledger.NormalizeSymbol(symbol),
		EntryPrice:  decimal.RequireFromString(entryPrice),
		TargetPrice: decimal.RequireFromString(targetPrice),
		Reason:      "breakout setup",
		Tag:         models.FocusTagWatch,
		DateAdded:   Date(2024, 1, 5),
		Month:       1,
		Year:        2024,
	}
	stock.Recompute()
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test focus stock: %v", err)
	}
	return stock
}

// CreateTestTeam creates a team with adminID as its active admin.
func CreateTestTeam(t *testing.T, db *gorm.DB, adminID string) *models.Team {
	t.Helper()

	team := &models.Team{
		Name:      fmt.Sprintf("Test Team %d", nextID()),
		CreatedBy: adminID,
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("failed to create test team: %v", err)
	}
	AddTestMember(t, db, team.ID, adminID, models.TeamRoleAdmin)
	return team
}

// AddTestMember adds an active member with the given role.
func AddTestMember(t *testing.T, db *gorm.DB, teamID, userID string, role models.TeamRole) *models.TeamMember {
	t.Helper()

	member := &models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test team member: %v", err)
	}
	return member
}
