package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

type sqlAgent struct {
	conn *sql.DB
	name string
}

// NewSQLiteAgentRepository stores one row per (state, action) pair. The schema is created by
// storage.Storage.Init.
func NewSQLiteAgentRepository(conn *sql.DB, name string) AgentRepository {
	return &sqlAgent{
		conn: conn,
		name: name,
	}
}

func (that *sqlAgent) Save(ctx context.Context, snapshot *entity.AgentSnapshot) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return errStorage("can't begin transaction", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	if err = that.save(ctx, tx, snapshot); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return errStorage("can't commit agent", err)
	}

	return nil
}

func (that *sqlAgent) save(ctx context.Context, tx *sql.Tx, snapshot *entity.AgentSnapshot) error {
	for _, query := range []string{
		`DELETE FROM agents WHERE name = ?`,
		`DELETE FROM q_values WHERE agent = ?`,
		`DELETE FROM rewards WHERE agent = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, that.name); err != nil {
			return errStorage("can't clear agent", err)
		}
	}

	params := snapshot.Hyperparameters
	query := `INSERT INTO agents (name, alpha, gamma, epsilon, games_played) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, that.name, params.Alpha, params.Gamma, params.Epsilon, snapshot.GamesPlayed); err != nil {
		return errStorage("can't save agent", err)
	}

	values, err := tx.PrepareContext(ctx, `INSERT INTO q_values (agent, state_key, action, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errStorage("can't prepare q values", err)
	}
	defer values.Close()

	for key, row := range snapshot.QTable {
		for action, value := range row {
			if _, err = values.ExecContext(ctx, that.name, string(key), action, value); err != nil {
				return errStorage("can't save q value", err)
			}
		}
	}

	rewards, err := tx.PrepareContext(ctx, `INSERT INTO rewards (agent, episode, reward) VALUES (?, ?, ?)`)
	if err != nil {
		return errStorage("can't prepare rewards", err)
	}
	defer rewards.Close()

	for episode, reward := range snapshot.Rewards {
		if _, err = rewards.ExecContext(ctx, that.name, episode, reward); err != nil {
			return errStorage("can't save reward", err)
		}
	}

	return nil
}

func (that *sqlAgent) Load(ctx context.Context) (*entity.AgentSnapshot, error) {
	snapshot := &entity.AgentSnapshot{
		Name:    that.name,
		QTable:  make(entity.QTable),
		Rewards: make([]float64, 0),
	}

	params := &snapshot.Hyperparameters
	query := `SELECT alpha, gamma, epsilon, games_played FROM agents WHERE name = ?`
	err := that.conn.QueryRowContext(ctx, query, that.name).Scan(&params.Alpha, &params.Gamma, &params.Epsilon, &snapshot.GamesPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound(that.name)
	}
	if err != nil {
		return nil, errStorage("can't find agent", err)
	}

	if err = that.loadValues(ctx, snapshot); err != nil {
		return nil, err
	}

	if err = that.loadRewards(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (that *sqlAgent) loadValues(ctx context.Context, snapshot *entity.AgentSnapshot) error {
	rows, err := that.conn.QueryContext(ctx, `SELECT state_key, action, value FROM q_values WHERE agent = ?`, that.name)
	if err != nil {
		return errStorage("can't query q values", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key    string
			action int
			value  float64
		)

		if err = rows.Scan(&key, &action, &value); err != nil {
			return errStorage("can't scan q value", err)
		}

		if action < 0 || action >= entity.BoardSize {
			return errCorrupt(that.name, fmt.Errorf("action %d for state %q", action, key))
		}

		row := snapshot.QTable[entity.BoardKey(key)]
		row[action] = value
		snapshot.QTable[entity.BoardKey(key)] = row
	}

	if err = rows.Err(); err != nil {
		return errStorage("can't read q values", err)
	}

	return nil
}

func (that *sqlAgent) loadRewards(ctx context.Context, snapshot *entity.AgentSnapshot) error {
	rows, err := that.conn.QueryContext(ctx, `SELECT reward FROM rewards WHERE agent = ? ORDER BY episode`, that.name)
	if err != nil {
		return errStorage("can't query rewards", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reward float64
		if err = rows.Scan(&reward); err != nil {
			return errStorage("can't scan reward", err)
		}

		snapshot.Rewards = append(snapshot.Rewards, reward)
	}

	if err = rows.Err(); err != nil {
		return errStorage("can't read rewards", err)
	}

	return nil
}

func (that *sqlAgent) Exists(ctx context.Context) (bool, error) {
	var count int

	err := that.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents WHERE name = ?`, that.name).Scan(&count)
	if err != nil {
		return false, errStorage("can't count agents", err)
	}

	return count > 0, nil
}
