package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/events"
	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/report"
)

// positionService handles the position lifecycle for personal and team books.
type positionService struct {
	db    *gorm.DB
	sink  events.Sink
	clock Clock
}

// NewPositionService creates a new PositionServicer.
func NewPositionService(db *gorm.DB, sink events.Sink, clock Clock) PositionServicer {
	return &positionService{db: db, sink: sink, clock: clock}
}

// CreatePosition validates the proposed state and stores it with derived fields.
func (s *positionService) CreatePosition(ctx context.Context, actorID string, owner models.Owner, in ledger.Input) (*models.Position, error) {
	now := s.clock.now()
	draft, fe := ledger.Validate(in, now)
	if fe != nil {
		return nil, validationError(fe)
	}

	var position *models.Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		position, txErr = createPositionWithDB(tx, actorID, owner, draft)
		if txErr != nil {
			return txErr
		}
		return refreshTeamStats(tx, owner, now)
	})
	if err != nil {
		return nil, passThrough(err)
	}

	publishPosition(ctx, s.sink, events.PositionCreated, actorID, position)
	return position, nil
}

// createPositionWithDB inserts a validated position using the given connection.
func createPositionWithDB(tx *gorm.DB, actorID string, owner models.Owner, draft ledger.Draft) (*models.Position, error) {
	position := &models.Position{
		OwnerType: owner.Type,
		OwnerID:   owner.ID,
		CreatedBy: actorID,
	}
	position.ApplyDraft(draft)

	if err := tx.Create(position).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return position, nil
}

// GetPosition returns a position inside the owner's scope.
func (s *positionService) GetPosition(ctx context.Context, owner models.Owner, id string) (*models.Position, error) {
	return findPosition(s.db.WithContext(ctx), owner, id)
}

// findPosition loads a position scoped to owner. Positions of other owners
// are reported exactly like missing ones.
func findPosition(tx *gorm.DB, owner models.Owner, id string) (*models.Position, error) {
	var position models.Position
	err := tx.Where("id = ? AND owner_type = ? AND owner_id = ?", id, owner.Type, owner.ID).
		First(&position).Error
	if err != nil {
		return nil, lookupError(err, apperrors.ErrPositionNotFound)
	}
	return &position, nil
}

// ListPositions retrieves a paginated, filtered list of the owner's positions, newest entry first.
func (s *positionService) ListPositions(ctx context.Context, owner models.Owner, filter PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error) {
	base := s.db.WithContext(ctx).Model(&models.Position{}).
		Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID)
	base = applyPositionFilters(base, filter)

	resp, err := pagination.Find[models.Position](base, page, "entry_date DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}

func applyPositionFilters(q *gorm.DB, filter PositionFilter) *gorm.DB {
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Direction != nil {
		q = q.Where("direction = ?", *filter.Direction)
	}
	if symbol := ledger.NormalizeSymbol(filter.Symbol); symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	if filter.Month != nil {
		q = q.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}
	return q
}

// AllPositions loads the owner's full position set for aggregation.
func (s *positionService) AllPositions(ctx context.Context, owner models.Owner) ([]models.Position, error) {
	positions, err := ownerPositions(s.db.WithContext(ctx), owner)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return positions, nil
}

func ownerPositions(tx *gorm.DB, owner models.Owner) ([]models.Position, error) {
	var positions []models.Position
	err := tx.Where("owner_type = ? AND owner_id = ?", owner.Type, owner.ID).
		Order("entry_date ASC, created_at ASC").
		Find(&positions).Error
	return positions, err
}

// UpdatePosition merges patch onto the stored state and re-validates the result.
func (s *positionService) UpdatePosition(ctx context.Context, actorID string, owner models.Owner, id string, patch ledger.Patch) (*models.Position, error) {
	position, err := s.mutate(ctx, owner, id, func(p *models.Position) (ledger.Patch, error) {
		return patch, nil
	})
	if err != nil {
		return nil, err
	}
	eventType := events.PositionUpdated
	if patch.Status != nil && position.Status == ledger.StatusClosed {
		eventType = events.PositionClosed
	}
	publishPosition(ctx, s.sink, eventType, actorID, position)
	return position, nil
}

// ClosePosition closes an OPEN position. Closing a CLOSED position is an
// invalid state; edit it through UpdatePosition instead.
func (s *positionService) ClosePosition(ctx context.Context, actorID string, owner models.Owner, id string, exitPrice ledger.Number, exitDate string) (*models.Position, error) {
	closed := string(ledger.StatusClosed)
	position, err := s.mutate(ctx, owner, id, func(p *models.Position) (ledger.Patch, error) {
		if !p.IsOpen() {
			return ledger.Patch{}, apperrors.ErrPositionAlreadyClosed
		}
		return ledger.Patch{Status: &closed, ExitPrice: exitPrice, ExitDate: &exitDate}, nil
	})
	if err != nil {
		return nil, err
	}
	publishPosition(ctx, s.sink, events.PositionClosed, actorID, position)
	return position, nil
}

// UpdateMarkPrice sets the current price of an OPEN position.
func (s *positionService) UpdateMarkPrice(ctx context.Context, actorID string, owner models.Owner, id string, price ledger.Number) (*models.Position, error) {
	if !price.IsSet() || price.Raw() == "" {
		return nil, apperrors.Validation("current_price", "is required")
	}
	position, err := s.mutate(ctx, owner, id, func(p *models.Position) (ledger.Patch, error) {
		if !p.IsOpen() {
			return ledger.Patch{}, apperrors.ErrPositionNotOpen
		}
		return ledger.Patch{CurrentPrice: price}, nil
	})
	if err != nil {
		return nil, err
	}
	publishPosition(ctx, s.sink, events.PositionRepriced, actorID, position)
	return position, nil
}

// mutate loads a position, asks build for a patch, re-validates the merged
// state and saves it, all in one transaction.
func (s *positionService) mutate(ctx context.Context, owner models.Owner, id string, build func(*models.Position) (ledger.Patch, error)) (*models.Position, error) {
	now := s.clock.now()

	var position *models.Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		if position, txErr = findPosition(tx, owner, id); txErr != nil {
			return txErr
		}

		patch, txErr := build(position)
		if txErr != nil {
			return txErr
		}

		draft, fe := ledger.Validate(patch.Apply(position.Input()), now)
		if fe != nil {
			return validationError(fe)
		}
		position.ApplyDraft(draft)

		if err := tx.Save(position).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return refreshTeamStats(tx, owner, now)
	})
	if err != nil {
		return nil, passThrough(err)
	}
	return position, nil
}

// DeletePosition hard deletes a position along with its team votes.
func (s *positionService) DeletePosition(ctx context.Context, actorID string, owner models.Owner, id string) error {
	now := s.clock.now()

	var position *models.Position
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		if position, txErr = findPosition(tx, owner, id); txErr != nil {
			return txErr
		}
		if err := tx.Where("position_id = ?", position.ID).Delete(&models.TeamVote{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(position).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return refreshTeamStats(tx, owner, now)
	})
	if err != nil {
		return passThrough(err)
	}

	publishPosition(ctx, s.sink, events.PositionDeleted, actorID, position)
	return nil
}

// OpenSymbols lists every symbol held in an OPEN position across all owners.
func (s *positionService) OpenSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.db.WithContext(ctx).Model(&models.Position{}).
		Where("status = ?", ledger.StatusOpen).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return symbols, nil
}

// ApplyQuotes marks every OPEN position holding a quoted symbol to the new
// price. CLOSED positions keep their exit price. Returns the number of
// positions repriced.
func (s *positionService) ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	now := s.clock.now()

	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := make(map[string]bool)
		for symbol, price := range prices {
			if !price.IsPositive() {
				continue
			}
			var positions []models.Position
			if err := tx.Where("symbol = ? AND status = ?", ledger.NormalizeSymbol(symbol), ledger.StatusOpen).
				Find(&positions).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			for i := range positions {
				p := &positions[i]
				mark := price
				p.CurrentPrice = &mark
				p.Recompute()
				if err := tx.Save(p).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if p.OwnerType == models.OwnerTeam {
					teams[p.OwnerID] = true
				}
				updated++
			}
		}
		for teamID := range teams {
			if err := refreshTeamStats(tx, models.TeamOwner(teamID), now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, passThrough(err)
	}
	return updated, nil
}

// refreshTeamStats recomputes the cached team stats from the team's full
// position set. Personal owners are a no-op.
func refreshTeamStats(tx *gorm.DB, owner models.Owner, at time.Time) error {
	if owner.Type != models.OwnerTeam {
		return nil
	}
	positions, err := ownerPositions(tx, owner)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := report.TeamStats(report.Summarize(positions), at)
	err = tx.Model(&models.Team{}).Where("id = ?", owner.ID).Updates(map[string]any{
		"total_trades":     stats.TotalTrades,
		"open_trades":      stats.OpenTrades,
		"closed_trades":    stats.ClosedTrades,
		"winning_trades":   stats.WinningTrades,
		"realized_pnl":     stats.RealizedPnL,
		"win_rate":         stats.WinRate,
		"stats_updated_at": stats.StatsUpdatedAt,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func publishPosition(ctx context.Context, sink events.Sink, eventType events.EventType, actorID string, p *models.Position) {
	evt := events.New(eventType, p.ID, p.Symbol, p)
	evt.UserID = actorID
	evt.OwnerType = string(p.OwnerType)
	evt.OwnerID = p.OwnerID
	events.Emit(ctx, sink, evt)
}
