package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TeamRole controls what a member may do in a team.
type TeamRole string

const (
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
	TeamRoleViewer TeamRole = "viewer"
)

// CanTrade reports whether the role may write team trades.
func (r TeamRole) CanTrade() bool {
	return r == TeamRoleAdmin || r == TeamRoleMember
}

// VoteChoice is a member's opinion on a team trade.
type VoteChoice string

const (
	VoteBuy  VoteChoice = "buy"
	VoteSell VoteChoice = "sell"
	VoteHold VoteChoice = "hold"
)

// TeamStats is the cached aggregate of a team's trades.
type TeamStats struct {
	TotalTrades    int             `gorm:"not null;default:0" json:"total_trades"`
	OpenTrades     int             `gorm:"not null;default:0" json:"open_trades"`
	ClosedTrades   int             `gorm:"not null;default:0" json:"closed_trades"`
	WinningTrades  int             `gorm:"not null;default:0" json:"winning_trades"`
	RealizedPnL    decimal.Decimal `gorm:"column:realized_pnl;type:numeric;not null;default:0" json:"realized_pnl"`
	WinRate        decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0" json:"win_rate"`
	StatsUpdatedAt *time.Time      `json:"stats_updated_at,omitempty"`
}

// Team is a group of users sharing a trade book.
type Team struct {
	Base
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedBy   string    `gorm:"type:uuid;not null" json:"created_by"`
	Stats       TeamStats `gorm:"embedded" json:"stats"`

	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember links a user to a team with a role.
type TeamMember struct {
	Base
	TeamID   string   `gorm:"type:uuid;not null;uniqueIndex:uq_team_members_team_user,priority:1" json:"team_id"`
	UserID   string   `gorm:"type:uuid;not null;uniqueIndex:uq_team_members_team_user,priority:2;index" json:"user_id"`
	Role     TeamRole `gorm:"size:10;not null;default:'member'" json:"role"`
	IsActive bool     `gorm:"not null;default:true" json:"is_active"`
}

// TeamVote is one member's vote on a team position. Re-voting replaces it.
type TeamVote struct {
	Base
	PositionID string     `gorm:"type:uuid;not null;uniqueIndex:uq_team_votes_position_user,priority:1" json:"position_id"`
	UserID     string     `gorm:"type:uuid;not null;uniqueIndex:uq_team_votes_position_user,priority:2" json:"user_id"`
	Choice     VoteChoice `gorm:"size:4;not null" json:"choice"`
}
