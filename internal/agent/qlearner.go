// Package agent implements a tabular Q-learning player.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

const (
	DefaultAlpha   = 0.5
	DefaultGamma   = 0.9
	DefaultEpsilon = 0.1
)

var ErrInvalidHyperparameters = errors.New("invalid hyperparameters")

// QLearner keeps one value estimate per (board key, cell) pair. Missing pairs read as 0.
type QLearner struct {
	name    string
	params  entity.Hyperparameters
	table   entity.QTable
	rewards []float64
	games   int

	rnd *rand.Rand
}

func DefaultHyperparameters() entity.Hyperparameters {
	return entity.Hyperparameters{
		Alpha:   DefaultAlpha,
		Gamma:   DefaultGamma,
		Epsilon: DefaultEpsilon,
	}
}

func ValidateHyperparameters(params entity.Hyperparameters) error {
	switch {
	case params.Alpha < 0 || params.Alpha > 1:
		return fmt.Errorf("%w: alpha %v not in [0, 1]", ErrInvalidHyperparameters, params.Alpha)
	case params.Gamma < 0 || params.Gamma > 1:
		return fmt.Errorf("%w: gamma %v not in [0, 1]", ErrInvalidHyperparameters, params.Gamma)
	case params.Epsilon < 0 || params.Epsilon > 1:
		return fmt.Errorf("%w: epsilon %v not in [0, 1]", ErrInvalidHyperparameters, params.Epsilon)
	}

	return nil
}

// New creates an agent with an empty table. rnd drives exploration only.
func New(name string, params entity.Hyperparameters, rnd *rand.Rand) (*QLearner, error) {
	if err := ValidateHyperparameters(params); err != nil {
		return nil, err
	}

	return &QLearner{
		name:    name,
		params:  params,
		table:   make(entity.QTable),
		rewards: make([]float64, 0),
		rnd:     rnd,
	}, nil
}

// FromSnapshot rebuilds an agent saved with Snapshot.
func FromSnapshot(snapshot *entity.AgentSnapshot, rnd *rand.Rand) (*QLearner, error) {
	learner, err := New(snapshot.Name, snapshot.Hyperparameters, rnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrCorruptAgent, err)
	}

	for key, values := range snapshot.QTable {
		if _, err = entity.ParseBoardKey(key); err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrCorruptAgent, err)
		}
		learner.table[key] = values
	}

	learner.rewards = append(learner.rewards, snapshot.Rewards...)
	learner.games = snapshot.GamesPlayed

	return learner, nil
}

func (that *QLearner) Snapshot() *entity.AgentSnapshot {
	table := make(entity.QTable, len(that.table))
	for key, values := range that.table {
		table[key] = values
	}

	rewards := make([]float64, len(that.rewards))
	copy(rewards, that.rewards)

	return &entity.AgentSnapshot{
		Name:            that.name,
		Hyperparameters: that.params,
		QTable:          table,
		Rewards:         rewards,
		GamesPlayed:     that.games,
	}
}

func (that *QLearner) Name() string {
	return that.name
}

func (that *QLearner) Hyperparameters() entity.Hyperparameters {
	return that.params
}

// Value returns the estimate for playing cell on the board identified by key.
func (that *QLearner) Value(key entity.BoardKey, cell int) float64 {
	if cell < 0 || cell >= entity.BoardSize {
		return 0
	}

	return that.table[key][cell]
}

// SelectAction picks a legal cell. When training it explores with probability epsilon;
// otherwise it takes the highest valued cell, preferring the lowest index on ties.
func (that *QLearner) SelectAction(board entity.Board, training bool) (int, error) {
	moves := board.LegalMoves()
	if len(moves) == 0 {
		return 0, apperror.ErrNoLegalMoves
	}

	if training && that.params.Epsilon > 0 && that.rnd.Float64() < that.params.Epsilon {
		return moves[that.rnd.Intn(len(moves))], nil
	}

	return that.greedy(board.Key(), moves), nil
}

func (that *QLearner) greedy(key entity.BoardKey, moves []int) int {
	values := that.table[key]

	best := moves[0]
	for _, cell := range moves[1:] {
		if values[cell] > values[best] {
			best = cell
		}
	}

	return best
}

// Update applies Q(s,a) += alpha * (reward + gamma * max Q(s',a') - Q(s,a)).
// The future term is dropped when done is set or s' has no legal moves.
func (that *QLearner) Update(key entity.BoardKey, action int, reward float64, nextKey entity.BoardKey, done bool) error {
	if action < 0 || action >= entity.BoardSize {
		return fmt.Errorf("%w: %w: cell %d", apperror.ErrInvalidMove, apperror.ErrInvalidCell, action)
	}

	future := 0.0
	if !done {
		next, err := entity.ParseBoardKey(nextKey)
		if err != nil {
			return fmt.Errorf("failed to decode next state: %w", err)
		}

		if moves := next.LegalMoves(); len(moves) > 0 {
			future = that.table[nextKey][that.greedy(nextKey, moves)]
		}
	}

	values := that.table[key]
	values[action] += that.params.Alpha * (reward + that.params.Gamma*future - values[action])

	if that.params.Alpha > 0 {
		that.table[key] = values
	}

	return nil
}

func (that *QLearner) RecordEpisodeReward(total float64) {
	that.rewards = append(that.rewards, total)
	that.games++
}

func (that *QLearner) Rewards() []float64 {
	rewards := make([]float64, len(that.rewards))
	copy(rewards, that.rewards)

	return rewards
}

func (that *QLearner) GamesPlayed() int {
	return that.games
}

// States reports how many board keys have an entry in the table.
func (that *QLearner) States() int {
	return len(that.table)
}
