// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("direction", validateDirection)
	_ = v.RegisterValidation("position_status", validatePositionStatus)
	_ = v.RegisterValidation("focus_tag", validateFocusTag)
	_ = v.RegisterValidation("team_role", validateTeamRole)
	_ = v.RegisterValidation("vote_choice", validateVoteChoice)
}

func validateDirection(fl validator.FieldLevel) bool {
	switch ledger.Direction(fl.Field().String()) {
	case ledger.DirectionBuy, ledger.DirectionSell:
		return true
	}
	return false
}

func validatePositionStatus(fl validator.FieldLevel) bool {
	switch ledger.Status(fl.Field().String()) {
	case ledger.StatusOpen, ledger.StatusClosed:
		return true
	}
	return false
}

func validateFocusTag(fl validator.FieldLevel) bool {
	switch models.FocusTag(fl.Field().String()) {
	case models.FocusTagMonitor, models.FocusTagWatch, models.FocusTagWorked, models.FocusTagFailed, models.FocusTagMissed:
		return true
	}
	return false
}

func validateTeamRole(fl validator.FieldLevel) bool {
	switch models.TeamRole(fl.Field().String()) {
	case models.TeamRoleAdmin, models.TeamRoleMember, models.TeamRoleViewer:
		return true
	}
	return false
}

func validateVoteChoice(fl validator.FieldLevel) bool {
	switch models.VoteChoice(fl.Field().String()) {
	case models.VoteBuy, models.VoteSell, models.VoteHold:
		return true
	}
	return false
}
