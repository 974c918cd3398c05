package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/report"
)

// Clock returns the current time. Services read "now" only through it.
type Clock func() time.Time

// ClockIn is the wall clock read in loc, so "today" follows that zone's calendar.
func ClockIn(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// PositionFilter holds optional filter parameters for listing positions.
type PositionFilter struct {
	Status    *ledger.Status
	Direction *ledger.Direction
	Symbol    string
	Month     *int
	Year      *int
}

// PositionServicer defines the position lifecycle operations for any owner scope.
// actorID is the authenticated user performing the write.
type PositionServicer interface {
	CreatePosition(ctx context.Context, actorID string, owner models.Owner, in ledger.Input) (*models.Position, error)
	GetPosition(ctx context.Context, owner models.Owner, id string) (*models.Position, error)
	ListPositions(ctx context.Context, owner models.Owner, filter PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error)
	AllPositions(ctx context.Context, owner models.Owner) ([]models.Position, error)
	UpdatePosition(ctx context.Context, actorID string, owner models.Owner, id string, patch ledger.Patch) (*models.Position, error)
	ClosePosition(ctx context.Context, actorID string, owner models.Owner, id string, exitPrice ledger.Number, exitDate string) (*models.Position, error)
	UpdateMarkPrice(ctx context.Context, actorID string, owner models.Owner, id string, price ledger.Number) (*models.Position, error)
	DeletePosition(ctx context.Context, actorID string, owner models.Owner, id string) error
	OpenSymbols(ctx context.Context) ([]string, error)
	ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error)
}

// FocusStockInput is a create request for a watchlist entry.
type FocusStockInput struct {
	Symbol        string        `json:"symbol"`
	EntryPrice    ledger.Number `json:"entry_price" swaggertype:"number"`
	TargetPrice   ledger.Number `json:"target_price" swaggertype:"number"`
	StopLossPrice ledger.Number `json:"stop_loss_price" swaggertype:"number"`
	CurrentPrice  ledger.Number `json:"current_price" swaggertype:"number"`
	Reason        string        `json:"reason"`
	Notes         string        `json:"notes"`
	Tag           string        `json:"tag"`
}

// FocusStockPatch is a partial update of a watchlist entry.
type FocusStockPatch struct {
	Symbol        *string       `json:"symbol"`
	EntryPrice    ledger.Number `json:"entry_price" swaggertype:"number"`
	TargetPrice   ledger.Number `json:"target_price" swaggertype:"number"`
	StopLossPrice ledger.Number `json:"stop_loss_price" swaggertype:"number"`
	CurrentPrice  ledger.Number `json:"current_price" swaggertype:"number"`
	Reason        *string       `json:"reason"`
	Notes         *string       `json:"notes"`
	Tag           *string       `json:"tag"`
}

// FocusStockFilter holds optional filter parameters for listing focus stocks.
type FocusStockFilter struct {
	Tag   *models.FocusTag
	Taken *bool
	Month *int
	Year  *int
}

// MarkTakenInput describes the trade taken on a focus stock. Unset numbers
// fall back to the stock's mark price and a quantity of 1.
type MarkTakenInput struct {
	TradeDate  string        `json:"trade_date"`
	EntryPrice ledger.Number `json:"entry_price" swaggertype:"number"`
	Quantity   ledger.Number `json:"quantity" swaggertype:"integer"`
}

// MergeResult is the outcome of converting a focus stock into a position.
type MergeResult struct {
	FocusStock *models.FocusStock `json:"focus_stock"`
	Position   *models.Position   `json:"position"`
	Merged     bool               `json:"merged"`
}

// RevertResult is the outcome of undoing a conversion. Position is nil when
// the position was deleted or already gone.
type RevertResult struct {
	FocusStock      *models.FocusStock `json:"focus_stock"`
	Position        *models.Position   `json:"position,omitempty"`
	PositionDeleted bool               `json:"position_deleted"`
}

// FocusStockServicer defines the watchlist and merge workflow operations.
type FocusStockServicer interface {
	CreateFocusStock(ctx context.Context, userID string, in FocusStockInput) (*models.FocusStock, error)
	GetFocusStock(ctx context.Context, userID, id string) (*models.FocusStock, error)
	ListFocusStocks(ctx context.Context, userID string, filter FocusStockFilter, page pagination.PageRequest) (*pagination.PageResponse[models.FocusStock], error)
	UpdateFocusStock(ctx context.Context, userID, id string, patch FocusStockPatch) (*models.FocusStock, error)
	DeleteFocusStock(ctx context.Context, userID, id string) error
	MarkTaken(ctx context.Context, userID, id string, in MarkTakenInput) (*MergeResult, error)
	RevertTaken(ctx context.Context, userID, id string) (*RevertResult, error)
	WatchedSymbols(ctx context.Context) ([]string, error)
	ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error)
}

// TeamServicer defines team roster, team trade and voting operations.
type TeamServicer interface {
	CreateTeam(ctx context.Context, userID, name, description string) (*models.Team, error)
	GetTeam(ctx context.Context, userID, teamID string) (*models.Team, error)
	ListUserTeams(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Team], error)
	AddMember(ctx context.Context, userID, teamID, memberUserID string, role models.TeamRole) (*models.TeamMember, error)
	UpdateMemberRole(ctx context.Context, userID, teamID, memberUserID string, role models.TeamRole) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, userID, teamID, memberUserID string) error
	CreateTeamTrade(ctx context.Context, userID, teamID string, in ledger.Input) (*models.Position, error)
	GetTeamTrade(ctx context.Context, userID, teamID, positionID string) (*models.Position, error)
	ListTeamTrades(ctx context.Context, userID, teamID string, filter PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error)
	UpdateTeamTrade(ctx context.Context, userID, teamID, positionID string, patch ledger.Patch) (*models.Position, error)
	CloseTeamTrade(ctx context.Context, userID, teamID, positionID string, exitPrice ledger.Number, exitDate string) (*models.Position, error)
	DeleteTeamTrade(ctx context.Context, userID, teamID, positionID string) error
	CastVote(ctx context.Context, userID, teamID, positionID string, choice models.VoteChoice) (*models.TeamVote, error)
	GetVotes(ctx context.Context, userID, teamID, positionID string) (*VoteTally, error)
	RequireMember(ctx context.Context, userID, teamID string) (*models.TeamMember, error)
}

// VoteTally is the vote breakdown of one team trade.
type VoteTally struct {
	PositionID string            `json:"position_id"`
	Buy        int               `json:"buy"`
	Sell       int               `json:"sell"`
	Hold       int               `json:"hold"`
	Votes      []models.TeamVote `json:"votes"`
}

// Report is the aggregate view of one owner's book.
type Report struct {
	Summary report.Summary       `json:"summary"`
	Monthly []report.MonthBucket `json:"monthly"`
}

// ReportServicer defines the aggregation reads.
type ReportServicer interface {
	GetUserReport(ctx context.Context, userID string) (*Report, error)
	GetTeamReport(ctx context.Context, userID, teamID string) (*Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
