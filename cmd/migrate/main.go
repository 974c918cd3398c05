package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"tradebook/internal/config"
	"tradebook/internal/database"
	"tradebook/internal/logger"
)

const usage = "usage: migrate <up [N] | down [N] | goto V | force V | version>"

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Named("migrate").With("dir", cfg.MigrationsDir, "db", cfg.DBName)
	m, err := migrate.New("file://"+cfg.MigrationsDir, database.NewConfig(cfg).URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warnw("source close failed", "error", srcErr)
		}
		if dbErr != nil {
			log.Warnw("database close failed", "error", dbErr)
		}
	}()

	return execute(m, log, args[0], args[1:])
}

func execute(m *migrate.Migrate, log *zap.SugaredLogger, command string, rest []string) error {
	switch command {
	case "up":
		steps, err := optionalSteps(rest)
		if err != nil {
			return err
		}
		if steps == 0 {
			err = m.Up()
		} else {
			err = m.Steps(steps)
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}

	case "down":
		steps, err := optionalSteps(rest)
		if err != nil {
			return err
		}
		if steps == 0 {
			steps = 1
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}

	case "goto":
		version, err := requiredVersion(rest)
		if err != nil {
			return err
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration goto failed: %w", err)
		}

	case "force":
		// Clears the dirty flag left by a failed migration; runs no SQL.
		version, err := requiredVersion(rest)
		if err != nil {
			return err
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}

	case "version":
	default:
		return fmt.Errorf("unknown command %q, %s", command, usage)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	log.Infow("schema version", "command", command, "version", version, "dirty", dirty)
	return nil
}

func optionalSteps(rest []string) (int, error) {
	if len(rest) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step count %q", rest[0])
	}
	return n, nil
}

func requiredVersion(rest []string) (int, error) {
	if len(rest) == 0 {
		return 0, errors.New(usage)
	}
	v, err := strconv.Atoi(rest[0])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version %q", rest[0])
	}
	return v, nil
}
