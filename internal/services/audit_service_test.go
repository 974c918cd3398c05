package services

import (
	"context"
	"encoding/json"
	"testing"

	"tradebook/internal/models"
	"tradebook/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log(context.Background(), "u1", "CLOSE_POSITION", "position", "p1", "127.0.0.1", map[string]any{
		"exit_price": "3900",
	})
	svc.Log(context.Background(), "u1", "DELETE_POSITION", "position", "p1", "127.0.0.1", nil)

	var entries []models.AuditLog
	testutil.AssertNoError(t, db.Order("created_at ASC").Find(&entries).Error)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	var changes map[string]string
	if err := json.Unmarshal(entries[0].Changes, &changes); err != nil {
		t.Fatalf("changes are not JSON: %v", err)
	}
	if changes["exit_price"] != "3900" {
		t.Errorf("expected exit_price change, got %v", changes)
	}
	if entries[1].Action != "DELETE_POSITION" || len(entries[1].Changes) != 0 {
		t.Errorf("unexpected second entry %+v", entries[1])
	}
}

func TestAuditLogCanceledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Log(ctx, "u1", "CREATE_POSITION", "position", "p2", "", nil)

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	if count != 1 {
		t.Errorf("expected entry written despite canceled request, got %d", count)
	}
}
