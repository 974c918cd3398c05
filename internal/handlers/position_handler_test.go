package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "tradebook/internal/errors"
	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/pagination"
	"tradebook/internal/services"
)

// --- mock position service ---

type mockPositionService struct {
	createPositionFn  func(actorID string, owner models.Owner, in ledger.Input) (*models.Position, error)
	getPositionFn     func(owner models.Owner, id string) (*models.Position, error)
	listPositionsFn   func(owner models.Owner, filter services.PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error)
	updatePositionFn  func(actorID string, owner models.Owner, id string, patch ledger.Patch) (*models.Position, error)
	closePositionFn   func(actorID string, owner models.Owner, id string, exitPrice ledger.Number, exitDate string) (*models.Position, error)
	updateMarkPriceFn func(actorID string, owner models.Owner, id string, price ledger.Number) (*models.Position, error)
	deletePositionFn  func(actorID string, owner models.Owner, id string) error
}

func (m *mockPositionService) CreatePosition(_ context.Context, actorID string, owner models.Owner, in ledger.Input) (*models.Position, error) {
	if m.createPositionFn != nil {
		return m.createPositionFn(actorID, owner, in)
	}
	return &models.Position{Base: models.Base{ID: testPosID}}, nil
}

func (m *mockPositionService) GetPosition(_ context.Context, owner models.Owner, id string) (*models.Position, error) {
	if m.getPositionFn != nil {
		return m.getPositionFn(owner, id)
	}
	return &models.Position{Base: models.Base{ID: id}}, nil
}

func (m *mockPositionService) ListPositions(_ context.Context, owner models.Owner, filter services.PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error) {
	if m.listPositionsFn != nil {
		return m.listPositionsFn(owner, filter, page)
	}
	return pagination.NewPageResponse([]models.Position{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockPositionService) AllPositions(_ context.Context, _ models.Owner) ([]models.Position, error) {
	return nil, nil
}

func (m *mockPositionService) UpdatePosition(_ context.Context, actorID string, owner models.Owner, id string, patch ledger.Patch) (*models.Position, error) {
	if m.updatePositionFn != nil {
		return m.updatePositionFn(actorID, owner, id, patch)
	}
	return &models.Position{Base: models.Base{ID: id}}, nil
}

func (m *mockPositionService) ClosePosition(_ context.Context, actorID string, owner models.Owner, id string, exitPrice ledger.Number, exitDate string) (*models.Position, error) {
	if m.closePositionFn != nil {
		return m.closePositionFn(actorID, owner, id, exitPrice, exitDate)
	}
	return &models.Position{Base: models.Base{ID: id}}, nil
}

func (m *mockPositionService) UpdateMarkPrice(_ context.Context, actorID string, owner models.Owner, id string, price ledger.Number) (*models.Position, error) {
	if m.updateMarkPriceFn != nil {
		return m.updateMarkPriceFn(actorID, owner, id, price)
	}
	return &models.Position{Base: models.Base{ID: id}}, nil
}

func (m *mockPositionService) DeletePosition(_ context.Context, actorID string, owner models.Owner, id string) error {
	if m.deletePositionFn != nil {
		return m.deletePositionFn(actorID, owner, id)
	}
	return nil
}

func (m *mockPositionService) OpenSymbols(_ context.Context) ([]string, error) { return nil, nil }

func (m *mockPositionService) ApplyQuotes(_ context.Context, _ map[string]decimal.Decimal) (int64, error) {
	return 0, nil
}

var _ services.PositionServicer = (*mockPositionService)(nil)

func setupPositionRouter(handler *PositionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/positions", handler.CreatePosition)
	auth.GET("/positions", handler.GetPositions)
	auth.GET("/positions/:id", handler.GetPosition)
	auth.PUT("/positions/:id", handler.UpdatePosition)
	auth.POST("/positions/:id/close", handler.ClosePosition)
	auth.PUT("/positions/:id/price", handler.UpdatePrice)
	auth.DELETE("/positions/:id", handler.DeletePosition)
	return r
}

func TestPositionHandler_CreatePosition(t *testing.T) {
	t.Run("returns 201 and scopes to the caller", func(t *testing.T) {
		audit := &mockAuditService{}
		var gotOwner models.Owner
		var gotInput ledger.Input
		svc := &mockPositionService{
			createPositionFn: func(actorID string, owner models.Owner, in ledger.Input) (*models.Position, error) {
				gotOwner, gotInput = owner, in
				return &models.Position{
					Base:       models.Base{ID: testPosID},
					Symbol:     "TCS",
					Status:     ledger.StatusOpen,
					EntryPrice: decimal.RequireFromString("3800"),
					Quantity:   10,
					CreatedBy:  actorID,
				}, nil
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, audit))

		rec := doRequest(r, "POST", "/positions",
			`{"symbol":"tcs","entry_price":"3800","quantity":10,"entry_date":"2024-01-10","status":"OPEN"}`)

		assertStatus(t, rec, http.StatusCreated)
		if gotOwner != models.UserOwner(testUserID) {
			t.Errorf("expected user owner, got %+v", gotOwner)
		}
		if gotInput.EntryPrice.Raw() != "3800" || gotInput.Quantity.Raw() != "10" {
			t.Errorf("numbers not passed through raw: %q %q", gotInput.EntryPrice.Raw(), gotInput.Quantity.Raw())
		}
		position := parseJSON(t, rec)["position"].(map[string]interface{})
		if position["symbol"] != "TCS" {
			t.Errorf("expected TCS, got %v", position["symbol"])
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_POSITION" {
			t.Errorf("expected CREATE_POSITION audit entry, got %v", got)
		}
	})

	t.Run("returns 400 with field on validation failure", func(t *testing.T) {
		svc := &mockPositionService{
			createPositionFn: func(string, models.Owner, ledger.Input) (*models.Position, error) {
				return nil, apperrors.Validation("exit_price", "is required when status is CLOSED")
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/positions",
			`{"symbol":"tcs","entry_price":3800,"quantity":10,"entry_date":"2024-01-10","status":"CLOSED"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "VALIDATION_FAILED")
		fields := result["error"].(map[string]interface{})["fields"].(map[string]interface{})
		if _, ok := fields["exit_price"]; !ok {
			t.Errorf("expected exit_price field error, got %v", fields)
		}
	})

	t.Run("returns 400 on malformed JSON", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockPositionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/positions", `{"symbol":`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestPositionHandler_GetPositions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.PositionFilter
		var gotPage pagination.PageRequest
		svc := &mockPositionService{
			listPositionsFn: func(_ models.Owner, filter services.PositionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Position], error) {
				gotFilter, gotPage = filter, page
				return pagination.NewPageResponse([]models.Position{{Symbol: "TCS"}}, pagination.PageRequest{Page: 2, PageSize: 5}, 6), nil
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/positions?status=OPEN&direction=SELL&symbol=tcs&month=1&year=2024&page=2&page_size=5", "")

		assertStatus(t, rec, http.StatusOK)
		if gotFilter.Status == nil || *gotFilter.Status != ledger.StatusOpen {
			t.Errorf("expected OPEN filter, got %v", gotFilter.Status)
		}
		if gotFilter.Direction == nil || *gotFilter.Direction != ledger.DirectionSell {
			t.Errorf("expected SELL filter, got %v", gotFilter.Direction)
		}
		if gotFilter.Symbol != "tcs" || *gotFilter.Month != 1 || *gotFilter.Year != 2024 {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		result := parseJSON(t, rec)
		if result["total_pages"].(float64) != 2 {
			t.Errorf("expected 2 pages, got %v", result["total_pages"])
		}
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockPositionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/positions?status=PENDING", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects oversized pages", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockPositionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/positions?page_size=500", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestPositionHandler_GetPosition(t *testing.T) {
	t.Run("returns 400 on invalid id", func(t *testing.T) {
		r := setupPositionRouter(NewPositionHandler(&mockPositionService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/positions/42", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockPositionService{
			getPositionFn: func(models.Owner, string) (*models.Position, error) {
				return nil, apperrors.ErrPositionNotFound
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/positions/"+testPosID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "POSITION_NOT_FOUND")
	})
}

func TestPositionHandler_UpdatePosition(t *testing.T) {
	var gotPatch ledger.Patch
	svc := &mockPositionService{
		updatePositionFn: func(_ string, _ models.Owner, id string, patch ledger.Patch) (*models.Position, error) {
			gotPatch = patch
			return &models.Position{Base: models.Base{ID: id}, Status: ledger.StatusOpen}, nil
		},
	}
	r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "PUT", "/positions/"+testPosID, `{"status":"OPEN","notes":"trail stop"}`)

	assertStatus(t, rec, http.StatusOK)
	if gotPatch.Status == nil || *gotPatch.Status != "OPEN" {
		t.Errorf("expected status patch, got %v", gotPatch.Status)
	}
	if gotPatch.EntryPrice.IsSet() {
		t.Error("expected untouched entry price to stay unset")
	}
}

func TestPositionHandler_ClosePosition(t *testing.T) {
	t.Run("returns 200 with realized pnl", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockPositionService{
			closePositionFn: func(_ string, _ models.Owner, id string, exitPrice ledger.Number, exitDate string) (*models.Position, error) {
				if exitPrice.Raw() != "3900" || exitDate != "2024-01-20" {
					t.Errorf("unexpected exit %s on %s", exitPrice.Raw(), exitDate)
				}
				return &models.Position{Base: models.Base{ID: id}, Status: ledger.StatusClosed, PnL: decimal.RequireFromString("1000")}, nil
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, audit))

		rec := doRequest(r, "POST", "/positions/"+testPosID+"/close", `{"exit_price":3900,"exit_date":"2024-01-20"}`)

		assertStatus(t, rec, http.StatusOK)
		position := parseJSON(t, rec)["position"].(map[string]interface{})
		if position["status"] != "CLOSED" || position["pnl"] != "1000" {
			t.Errorf("unexpected position %v", position)
		}
		if audit.entries[0].changes["pnl"] != "1000" {
			t.Errorf("expected pnl in audit changes, got %v", audit.entries[0].changes)
		}
	})

	t.Run("returns 409 when already closed", func(t *testing.T) {
		svc := &mockPositionService{
			closePositionFn: func(string, models.Owner, string, ledger.Number, string) (*models.Position, error) {
				return nil, apperrors.ErrPositionAlreadyClosed
			},
		}
		r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/positions/"+testPosID+"/close", `{"exit_price":3900,"exit_date":"2024-01-20"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "POSITION_ALREADY_CLOSED")
	})
}

func TestPositionHandler_UpdatePrice(t *testing.T) {
	svc := &mockPositionService{
		updateMarkPriceFn: func(string, models.Owner, string, ledger.Number) (*models.Position, error) {
			return nil, apperrors.ErrPositionNotOpen
		},
	}
	r := setupPositionRouter(NewPositionHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "PUT", "/positions/"+testPosID+"/price", `{"current_price":"4000"}`)

	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "POSITION_NOT_OPEN")
}

func TestPositionHandler_DeletePosition(t *testing.T) {
	audit := &mockAuditService{}
	deleted := ""
	svc := &mockPositionService{
		deletePositionFn: func(_ string, _ models.Owner, id string) error {
			deleted = id
			return nil
		},
	}
	r := setupPositionRouter(NewPositionHandler(svc, audit))

	rec := doRequest(r, "DELETE", "/positions/"+testPosID, "")

	assertStatus(t, rec, http.StatusOK)
	if deleted != testPosID {
		t.Errorf("expected %s deleted, got %q", testPosID, deleted)
	}
	if got := audit.actions(); len(got) != 1 || got[0] != "DELETE_POSITION" {
		t.Errorf("expected DELETE_POSITION audit entry, got %v", got)
	}
}
