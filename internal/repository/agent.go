package repository

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// AgentRepository stores one named agent snapshot.
type AgentRepository interface {
	Save(ctx context.Context, snapshot *entity.AgentSnapshot) error
	Load(ctx context.Context) (*entity.AgentSnapshot, error)
	Exists(ctx context.Context) (bool, error)
}

func errNotFound(name string) error {
	return fmt.Errorf("%w: %w: %s", apperror.ErrPersistence, apperror.ErrAgentNotFound, name)
}

func errCorrupt(name string, err error) error {
	return fmt.Errorf("%w: %w: %s: %w", apperror.ErrPersistence, apperror.ErrCorruptAgent, name, err)
}

func errStorage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperror.ErrPersistence, op, err)
}
