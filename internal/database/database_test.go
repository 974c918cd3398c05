package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tradebook/internal/ledger"
	"tradebook/internal/models"
	"tradebook/internal/services"
)

// setupPostgres starts a disposable Postgres and applies the migrations.
func setupPostgres(t *testing.T) *Manager {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("tradebook"),
		tcpostgres.WithUsername("tradebook"),
		tcpostgres.WithPassword("tradebook"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &Config{Host: host, Port: port.Port(), User: "tradebook", Password: "tradebook", DBName: "tradebook", SSLMode: "disable"}
	mgr, err := NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.RunMigrations("../../migrations"))
	// Second run is a no-op.
	require.NoError(t, mgr.RunMigrations("../../migrations"))
	return mgr
}

func TestPostgresPositionLifecycle(t *testing.T) {
	mgr := setupPostgres(t)
	db := mgr.DB()
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	users := services.NewUserService(db, func() time.Time { return now })
	user, err := users.CreateUser(ctx, "pg@example.com", "password123", "", "")
	require.NoError(t, err)

	positions := services.NewPositionService(db, nil, func() time.Time { return now })
	owner := models.UserOwner(user.ID)

	created, err := positions.CreatePosition(ctx, user.ID, owner, ledger.Input{
		Symbol:     "tcs",
		EntryPrice: ledger.NewNumber("3800.50"),
		Quantity:   ledger.NewNumber("10"),
		EntryDate:  "2024-01-10",
	})
	require.NoError(t, err)

	closed, err := positions.ClosePosition(ctx, user.ID, owner, created.ID, ledger.NewNumber("3900.50"), "2024-01-20")
	require.NoError(t, err)
	assert.Equal(t, "1000", closed.PnL.String())

	reloaded, err := positions.GetPosition(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusClosed, reloaded.Status)
	assert.Equal(t, "38005", reloaded.TotalInvestment.String())
	assert.Equal(t, "2024-01-20", reloaded.ExitDate.Format(time.DateOnly))
	assert.Equal(t, 1, reloaded.Month)
}

func TestPostgresExtremeReturnIsStored(t *testing.T) {
	mgr := setupPostgres(t)
	db := mgr.DB()
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	users := services.NewUserService(db, func() time.Time { return now })
	user, err := users.CreateUser(ctx, "extreme@example.com", "password123", "", "")
	require.NoError(t, err)

	positions := services.NewPositionService(db, nil, func() time.Time { return now })
	owner := models.UserOwner(user.ID)

	created, err := positions.CreatePosition(ctx, user.ID, owner, ledger.Input{
		Symbol:     "PENNY",
		EntryPrice: ledger.NewNumber("0.01"),
		Quantity:   ledger.NewNumber("1000000000"),
		EntryDate:  "2024-01-10",
		Status:     string(ledger.StatusClosed),
		ExitPrice:  ledger.NewNumber("1000000"),
		ExitDate:   "2024-01-20",
	})
	require.NoError(t, err)

	reloaded, err := positions.GetPosition(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "9999999900", reloaded.PnLPercentage.String())
	assert.Equal(t, "999999990000000", reloaded.PnL.String())
}

func TestPostgresLifecycleConstraint(t *testing.T) {
	mgr := setupPostgres(t)
	db := mgr.DB()

	user := &models.User{Email: "c@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	// A CLOSED row without exit fields is rejected by the database itself.
	err := db.Exec(`INSERT INTO positions (id, owner_type, owner_id, created_by, symbol, status, entry_price, quantity, entry_date, month, year)
		VALUES (gen_random_uuid(), 'user', ?, ?, 'TCS', 'CLOSED', 100, 1, '2024-01-10', 1, 2024)`, user.ID, user.ID).Error
	assert.Error(t, err)
}
