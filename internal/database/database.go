package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the storefront.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

var ErrNotFound = errors.New("not found")

// NewDB opens the database at path and creates tables if they don't exist.
func NewDB(path string, logger zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	l := logger.With().Str("component", "database").Logger()
	l.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: db, logger: l}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			phase TEXT NOT NULL DEFAULT 'idle',
			intent TEXT NOT NULL DEFAULT '',
			selected_franchise TEXT,
			pending_franchise TEXT,
			cart_franchise_id TEXT NOT NULL DEFAULT '',
			loyalty_points INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS cart_items (
			session_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			unit_price REAL NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, product_id),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS loyalty_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			franchise_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'placed',
			items TEXT NOT NULL,
			subtotal REAL NOT NULL DEFAULT 0,
			delivery_fee REAL NOT NULL DEFAULT 0,
			total REAL NOT NULL DEFAULT 0,
			points_earned INTEGER NOT NULL DEFAULT 0,
			customer_lat REAL,
			customer_lng REAL,
			placed_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id, placed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_loyalty_session ON loyalty_history(session_id, created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
