package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		name TEXT PRIMARY KEY,
		alpha REAL NOT NULL,
		gamma REAL NOT NULL,
		epsilon REAL NOT NULL,
		games_played INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS q_values (
		agent TEXT NOT NULL,
		state_key TEXT NOT NULL,
		action INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (agent, state_key, action)
	)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		agent TEXT NOT NULL,
		episode INTEGER NOT NULL,
		reward REAL NOT NULL,
		PRIMARY KEY (agent, episode)
	)`,
}

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	for _, query := range schema {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
