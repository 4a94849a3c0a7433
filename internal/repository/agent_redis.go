package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

type dbAgent struct {
	client *redis.Client
	name   string
}

// NewRedisAgentRepository keeps the snapshot as JSON under agent:<name>.
func NewRedisAgentRepository(client *redis.Client, name string) AgentRepository {
	return &dbAgent{
		client: client,
		name:   name,
	}
}

func (that *dbAgent) key() string {
	return "agent:" + that.name
}

func (that *dbAgent) Save(ctx context.Context, snapshot *entity.AgentSnapshot) error {
	agentJSON, err := json.Marshal(snapshot)
	if err != nil {
		return errStorage("could not marshal agent", err)
	}

	if err = that.client.Set(ctx, that.key(), agentJSON, 0).Err(); err != nil {
		return errStorage("failed to set agent", err)
	}

	return nil
}

func (that *dbAgent) Load(ctx context.Context) (*entity.AgentSnapshot, error) {
	response, err := that.client.Get(ctx, that.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errNotFound(that.key())
	}

	if err != nil {
		return nil, errStorage("failed to get agent", err)
	}

	var snapshot entity.AgentSnapshot
	if err = json.Unmarshal(response, &snapshot); err != nil {
		return nil, errCorrupt(that.key(), err)
	}

	return &snapshot, nil
}

func (that *dbAgent) Exists(ctx context.Context) (bool, error) {
	count, err := that.client.Exists(ctx, that.key()).Result()
	if err != nil {
		return false, errStorage("failed to check agent", err)
	}

	return count > 0, nil
}
