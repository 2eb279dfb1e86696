package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func Init(driver, connection string) (*sqlx.DB, error) {
	// SQLite: create data directory if needed
	if driver == "sqlite" {
		file, _, _ := strings.Cut(connection, "?")
		err := os.MkdirAll(filepath.Dir(file), 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	limits := poolFor(driver)
	db.SetMaxOpenConns(limits.MaxOpen)
	db.SetMaxIdleConns(limits.MaxIdle)
	db.SetConnMaxLifetime(limits.MaxLifetime)

	slog.Info("database connected", "driver", driver)

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// pool holds the connection pool limits for one driver.
type pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration // 0 keeps connections forever
}

func poolFor(driver string) pool {
	if driver == "sqlite" {
		// A ":memory:" database lives only as long as its one connection
		// so it must never be recycled.
		return pool{MaxOpen: 1, MaxIdle: 1}
	}
	return pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 5 * time.Minute}
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
