package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/events"
	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
)

// focusStockService handles the watchlist and its conversion into positions.
type focusStockService struct {
	db    *gorm.DB
	sink  events.Sink
	clock Clock
}

// NewFocusStockService creates a new FocusStockServicer.
func NewFocusStockService(db *gorm.DB, sink events.Sink, clock Clock) FocusStockServicer {
	return &focusStockService{db: db, sink: sink, clock: clock}
}

// CreateFocusStock adds a watchlist entry. Month and year come from the
// time of writing, not from any caller value.
func (s *focusStockService) CreateFocusStock(ctx context.Context, userID string, in FocusStockInput) (*models.FocusStock, error) {
	now := s.clock.now()
	stock := &models.FocusStock{
		UserID:    userID,
		DateAdded: now,
	}
	stock.Month, stock.Year = ledger.MonthYear(now)

	patch := FocusStockPatch{
		Symbol:        &in.Symbol,
		EntryPrice:    in.EntryPrice,
		TargetPrice:   in.TargetPrice,
		StopLossPrice: in.StopLossPrice,
		CurrentPrice:  in.CurrentPrice,
		Reason:        &in.Reason,
		Notes:         &in.Notes,
		Tag:           &in.Tag,
	}
	if err := applyFocusPatch(stock, patch, true); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(stock).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, nil
}

// applyFocusPatch validates and copies patch fields onto stock, then recomputes
// the derived metrics. On create the entry and target prices are required.
func applyFocusPatch(stock *models.FocusStock, patch FocusStockPatch, create bool) error {
	if patch.Symbol != nil {
		symbol := ledger.NormalizeSymbol(*patch.Symbol)
		if symbol == "" {
			return apperrors.Validation("symbol", "is required")
		}
		if len(symbol) > ledger.MaxSymbolLength {
			return apperrors.Validation("symbol", "must be at most 20 characters")
		}
		stock.Symbol = symbol
	}

	prices := []struct {
		field     string
		value     ledger.Number
		dst       *decimal.Decimal
		required  bool
		allowZero bool
	}{
		{"entry_price", patch.EntryPrice, &stock.EntryPrice, create, false},
		{"target_price", patch.TargetPrice, &stock.TargetPrice, create, false},
		{"stop_loss_price", patch.StopLossPrice, &stock.StopLossPrice, false, true},
	}
	for _, p := range prices {
		if !p.value.IsSet() || p.value.Raw() == "" {
			if p.required {
				return apperrors.Validation(p.field, "is required")
			}
			continue
		}
		v, err := p.value.Decimal()
		if err != nil {
			return apperrors.Validation(p.field, "must be a number")
		}
		if v.IsNegative() || (v.IsZero() && !p.allowZero) {
			if p.allowZero {
				return apperrors.Validation(p.field, "cannot be negative")
			}
			return apperrors.Validation(p.field, "must be greater than 0")
		}
		*p.dst = v
	}

	if patch.CurrentPrice.IsSet() && patch.CurrentPrice.Raw() != "" {
		v, err := patch.CurrentPrice.Decimal()
		if err != nil {
			return apperrors.Validation("current_price", "must be a number")
		}
		if !v.IsPositive() {
			return apperrors.Validation("current_price", "must be greater than 0")
		}
		stock.CurrentPrice = &v
	}

	if patch.Tag != nil {
		tag := models.FocusTag(strings.ToLower(strings.TrimSpace(*patch.Tag)))
		switch tag {
		case "", models.FocusTagMonitor, models.FocusTagWatch, models.FocusTagWorked, models.FocusTagFailed, models.FocusTagMissed:
			stock.Tag = tag
		default:
			return apperrors.Validation("tag", "must be one of monitor, watch, worked, failed, missed")
		}
	}
	if patch.Reason != nil {
		stock.Reason = strings.TrimSpace(*patch.Reason)
	}
	if patch.Notes != nil {
		stock.Notes = strings.TrimSpace(*patch.Notes)
	}

	stock.Recompute()
	return nil
}

// GetFocusStock returns one of the user's focus stocks.
func (s *focusStockService) GetFocusStock(ctx context.Context, userID, id string) (*models.FocusStock, error) {
	return findFocusStock(s.db.WithContext(ctx), userID, id)
}

func findFocusStock(tx *gorm.DB, userID, id string) (*models.FocusStock, error) {
	var stock models.FocusStock
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&stock).Error; err != nil {
		return nil, lookupError(err, apperrors.ErrFocusStockNotFound)
	}
	return &stock, nil
}

// ListFocusStocks retrieves a paginated, filtered list of the user's focus stocks, newest first.
func (s *focusStockService) ListFocusStocks(ctx context.Context, userID string, filter FocusStockFilter, page pagination.PageRequest) (*pagination.PageResponse[models.FocusStock], error) {
	base := s.db.WithContext(ctx).Model(&models.FocusStock{}).Where("user_id = ?", userID)
	if filter.Tag != nil {
		base = base.Where("tag = ?", *filter.Tag)
	}
	if filter.Taken != nil {
		base = base.Where("trade_taken = ?", *filter.Taken)
	}
	if filter.Month != nil {
		base = base.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		base = base.Where("year = ?", *filter.Year)
	}

	resp, err := pagination.Find[models.FocusStock](base, page, "date_added DESC, created_at DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return resp, nil
}

// UpdateFocusStock applies a partial update and refreshes month and year.
func (s *focusStockService) UpdateFocusStock(ctx context.Context, userID, id string, patch FocusStockPatch) (*models.FocusStock, error) {
	db := s.db.WithContext(ctx)
	stock, err := findFocusStock(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyFocusPatch(stock, patch, false); err != nil {
		return nil, err
	}
	stock.Month, stock.Year = ledger.MonthYear(s.clock.now())

	if err := db.Save(stock).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stock, nil
}

// DeleteFocusStock hard deletes a focus stock. A position created from it is kept.
func (s *focusStockService) DeleteFocusStock(ctx context.Context, userID, id string) error {
	db := s.db.WithContext(ctx)
	stock, err := findFocusStock(db, userID, id)
	if err != nil {
		return err
	}
	if err := db.Delete(stock).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkTaken converts a focus stock into a position in one transaction. An
// OPEN position in the same symbol absorbs the trade at a weighted average
// entry price; otherwise a new BUY position is opened. The stock is flipped to
// taken with a compare-and-set so a concurrent conversion rolls back.
func (s *focusStockService) MarkTaken(ctx context.Context, userID, id string, in MarkTakenInput) (*MergeResult, error) {
	now := s.clock.now()
	result := &MergeResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stock, err := findFocusStock(tx, userID, id)
		if err != nil {
			return err
		}
		if stock.TradeTaken {
			return apperrors.ErrTradeAlreadyTaken
		}

		entryPrice := in.EntryPrice
		if !entryPrice.IsSet() || entryPrice.Raw() == "" {
			entryPrice = ledger.NumberFrom(stock.MarkPrice())
		}
		quantity := in.Quantity
		if !quantity.IsSet() || quantity.Raw() == "" {
			quantity = ledger.NewNumber("1")
		}

		// The trade runs through the same validator as any new position, which
		// also rejects bad prices, quantities and future trade dates.
		draft, fe := ledger.Validate(ledger.Input{
			Symbol:     stock.Symbol,
			Direction:  string(ledger.DirectionBuy),
			EntryPrice: entryPrice,
			Quantity:   quantity,
			EntryDate:  in.TradeDate,
			Status:     string(ledger.StatusOpen),
			Notes:      focusNotes(stock),
		}, now)
		if fe != nil {
			if fe.Field == "entry_date" {
				fe.Field = "trade_date"
			}
			return validationError(fe)
		}

		owner := models.UserOwner(userID)
		existing, err := latestOpenPosition(tx, owner, stock.Symbol)
		if err != nil {
			return err
		}

		var position *models.Position
		if existing == nil {
			if position, err = createPositionWithDB(tx, userID, owner, draft); err != nil {
				return err
			}
		} else {
			if draft.Quantity > math.MaxInt64-existing.Quantity {
				return apperrors.Validation("quantity", "is too large to add to the open position")
			}
			position = existing
			position.EntryPrice = ledger.WeightedAverage(position.Quantity, position.EntryPrice, draft.Quantity, draft.EntryPrice)
			position.Quantity += draft.Quantity
			position.Recompute()
			if err := tx.Save(position).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result.Merged = true
		}

		tradeDate := draft.EntryDate
		tradedPrice := draft.EntryPrice
		positionID := position.ID
		res := tx.Model(&models.FocusStock{}).
			Where("id = ? AND trade_taken = ?", stock.ID, false).
			Updates(map[string]any{
				"trade_taken":        true,
				"trade_date":         tradeDate,
				"traded_quantity":    draft.Quantity,
				"traded_entry_price": tradedPrice,
				"traded_position_id": positionID,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTradeAlreadyTaken
		}

		stock.TradeTaken = true
		stock.TradeDate = &tradeDate
		stock.TradedQuantity = draft.Quantity
		stock.TradedEntryPrice = &tradedPrice
		stock.TradedPositionID = &positionID

		result.FocusStock = stock
		result.Position = position
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}

	s.publish(ctx, events.FocusStockConverted, userID, result.FocusStock, map[string]any{
		"position_id": result.Position.ID,
		"quantity":    result.FocusStock.TradedQuantity,
		"entry_price": result.FocusStock.TradedEntryPrice,
		"merged":      result.Merged,
	})
	return result, nil
}

func focusNotes(stock *models.FocusStock) string {
	if stock.Reason == "" {
		return "Focus stock"
	}
	return "Focus stock: " + stock.Reason
}

// latestOpenPosition returns the owner's most recently created OPEN position
// in symbol, or nil when there is none.
func latestOpenPosition(tx *gorm.DB, owner models.Owner, symbol string) (*models.Position, error) {
	var position models.Position
	err := tx.Where("owner_type = ? AND owner_id = ? AND symbol = ? AND status = ?",
		owner.Type, owner.ID, symbol, ledger.StatusOpen).
		Order("created_at DESC, id DESC").
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &position, nil
}

// RevertTaken undoes a conversion in one transaction. The traded quantity is
// removed from the position, or the position is deleted when nothing else
// remains. The entry price is left as it is: without per-lot history the
// earlier weighted average cannot be recovered exactly.
func (s *focusStockService) RevertTaken(ctx context.Context, userID, id string) (*RevertResult, error) {
	result := &RevertResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stock, err := findFocusStock(tx, userID, id)
		if err != nil {
			return err
		}
		if !stock.TradeTaken {
			return apperrors.ErrTradeNotTaken
		}

		owner := models.UserOwner(userID)
		var position *models.Position
		// A recorded position that no longer exists was removed by the user;
		// the symbol lookup only serves stocks taken without a recorded id.
		if stock.TradedPositionID != nil {
			position, err = findPosition(tx, owner, *stock.TradedPositionID)
			if errors.Is(err, apperrors.ErrPositionNotFound) {
				position = nil
			} else if err != nil {
				return err
			}
		} else if position, err = latestOpenPosition(tx, owner, stock.Symbol); err != nil {
			return err
		}

		if position != nil {
			if position.Quantity > stock.TradedQuantity {
				position.Quantity -= stock.TradedQuantity
				position.Recompute()
				if err := tx.Save(position).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				result.Position = position
			} else {
				if err := tx.Delete(position).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				result.PositionDeleted = true
			}
		}

		res := tx.Model(&models.FocusStock{}).
			Where("id = ? AND trade_taken = ?", stock.ID, true).
			Updates(map[string]any{
				"trade_taken":        false,
				"trade_date":         nil,
				"traded_quantity":    0,
				"traded_entry_price": nil,
				"traded_position_id": nil,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTradeNotTaken
		}

		stock.ClearTrade()
		result.FocusStock = stock
		return nil
	})
	if err != nil {
		return nil, passThrough(err)
	}

	payload := map[string]any{"position_deleted": result.PositionDeleted}
	if result.Position != nil {
		payload["position_id"] = result.Position.ID
		payload["remaining_quantity"] = result.Position.Quantity
	}
	s.publish(ctx, events.FocusStockReverted, userID, result.FocusStock, payload)
	return result, nil
}

// WatchedSymbols lists the symbols of every untaken focus stock.
func (s *focusStockService) WatchedSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := s.db.WithContext(ctx).Model(&models.FocusStock{}).
		Where("trade_taken = ?", false).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return symbols, nil
}

// ApplyQuotes refreshes the current price and status colour of every focus
// stock in a quoted symbol. Returns the number of stocks updated.
func (s *focusStockService) ApplyQuotes(ctx context.Context, prices map[string]decimal.Decimal) (int64, error) {
	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for symbol, price := range prices {
			if !price.IsPositive() {
				continue
			}
			var stocks []models.FocusStock
			if err := tx.Where("symbol = ?", ledger.NormalizeSymbol(symbol)).Find(&stocks).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			for i := range stocks {
				mark := price
				stocks[i].CurrentPrice = &mark
				stocks[i].Recompute()
				if err := tx.Save(&stocks[i]).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, passThrough(err)
	}
	return updated, nil
}

func (s *focusStockService) publish(ctx context.Context, eventType events.EventType, userID string, stock *models.FocusStock, payload map[string]any) {
	evt := events.New(eventType, stock.ID, stock.Symbol, payload)
	evt.UserID = userID
	evt.OwnerType = string(models.OwnerUser)
	evt.OwnerID = userID
	events.Emit(ctx, s.sink, evt)
}
