package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

var ErrInvalidEpisodes = errors.New("episode count must be positive")

type learner interface {
	SelectAction(board entity.Board, training bool) (int, error)
	Update(key entity.BoardKey, action int, reward float64, nextKey entity.BoardKey, done bool) error
	RecordEpisodeReward(total float64)
	GamesPlayed() int
	Snapshot() *entity.AgentSnapshot
}

// opponent is anything that can pick a cell for mark: the teacher or a human.
type opponent interface {
	ChooseMove(ctx context.Context, board entity.Board, mark entity.Mark) (int, error)
}

type agentRepo interface {
	Save(ctx context.Context, snapshot *entity.AgentSnapshot) error
}

type Options struct {
	AgentMark   entity.Mark
	Rewards     RewardScheme
	ReportEvery int
}

type GameManager struct {
	logger *slog.Logger

	learner   learner
	agentRepo agentRepo

	agentMark   entity.Mark
	rewards     RewardScheme
	reportEvery int
}

// EpisodeResult is the final board of one game and the reward the agent collected.
type EpisodeResult struct {
	Game    *entity.Game
	Outcome entity.Outcome
	Reward  float64
}

// Score counts outcomes from the agent's point of view.
type Score struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

// pendingTurn is an agent move waiting for the opponent's reply.
type pendingTurn struct {
	key    entity.BoardKey
	action int
}

func NewGameManager(logger *slog.Logger, learner learner, agentRepo agentRepo, opts Options) (*GameManager, error) {
	if !opts.AgentMark.IsPlayer() {
		return nil, fmt.Errorf("%w: agent mark %q", apperror.ErrInvalidMark, opts.AgentMark)
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),

		learner:   learner,
		agentRepo: agentRepo,

		agentMark:   opts.AgentMark,
		rewards:     opts.Rewards,
		reportEvery: opts.ReportEvery,
	}, nil
}

func (that *GameManager) AgentMark() entity.Mark {
	return that.agentMark
}

// PlayEpisode runs one game between the agent and opp. When learn is set the agent is
// updated after every transition and the episode reward is recorded.
func (that *GameManager) PlayEpisode(ctx context.Context, opp opponent, learn bool) (*EpisodeResult, error) {
	game := entity.NewGame()
	opponentMark := that.agentMark.Opponent()

	var (
		pending *pendingTurn
		total   float64
	)

	for game.IsOngoing() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("episode interrupted: %w", err)
		}

		if game.Turn == that.agentMark {
			before := game.Board

			cell, err := that.learner.SelectAction(before, learn)
			if err != nil {
				return nil, fmt.Errorf("agent failed to select action: %w", err)
			}

			if err = game.MakeTurn(that.agentMark, cell); err != nil {
				return nil, fmt.Errorf("agent made an illegal turn: %w", err)
			}

			if game.IsFinished() {
				reward := that.rewards.For(game.Board, that.agentMark)
				total += reward

				if err = that.update(learn, before.Key(), cell, reward, game.Board.Key(), true); err != nil {
					return nil, err
				}
				break
			}

			pending = &pendingTurn{key: before.Key(), action: cell}
			continue
		}

		cell, err := opp.ChooseMove(ctx, game.Board, opponentMark)
		if err != nil {
			return nil, fmt.Errorf("opponent failed to choose move: %w", err)
		}

		if err = game.MakeTurn(opponentMark, cell); err != nil {
			return nil, fmt.Errorf("opponent made an illegal turn: %w", err)
		}

		if pending == nil {
			continue
		}

		// the agent's last transition ends either in the opponent's terminal move or at the
		// agent's next decision point
		reward := that.rewards.For(game.Board, that.agentMark)
		total += reward

		if err = that.update(learn, pending.key, pending.action, reward, game.Board.Key(), game.IsFinished()); err != nil {
			return nil, err
		}
		pending = nil
	}

	if learn {
		that.learner.RecordEpisodeReward(total)
	}

	return &EpisodeResult{
		Game:    game,
		Outcome: game.Board.Outcome(),
		Reward:  total,
	}, nil
}

func (that *GameManager) update(learn bool, key entity.BoardKey, action int, reward float64, nextKey entity.BoardKey, done bool) error {
	if !learn {
		return nil
	}

	if err := that.learner.Update(key, action, reward, nextKey, done); err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	return nil
}

// Teach plays episodes against teacher with learning enabled.
func (that *GameManager) Teach(ctx context.Context, teacher opponent, episodes int) (Score, error) {
	log := that.logger.With("method", "Teach")

	if episodes <= 0 {
		return Score{}, fmt.Errorf("%w: %d", ErrInvalidEpisodes, episodes)
	}

	var score Score
	for played := 1; played <= episodes; played++ {
		result, err := that.PlayEpisode(ctx, teacher, true)
		if err != nil {
			return score, fmt.Errorf("failed to play episode %d: %w", played, err)
		}

		score.add(result.Game.Board, that.agentMark)

		if that.reportEvery > 0 && played%that.reportEvery == 0 {
			log.Info("games played", "count", played, "total", that.learner.GamesPlayed(),
				"wins", score.Wins, "draws", score.Draws, "losses", score.Losses)
		}
	}

	return score, nil
}

// Evaluate plays greedy games against opp without touching the agent.
func (that *GameManager) Evaluate(ctx context.Context, opp opponent, games int) (Score, error) {
	var score Score
	for i := 0; i < games; i++ {
		result, err := that.PlayEpisode(ctx, opp, false)
		if err != nil {
			return score, fmt.Errorf("failed to play evaluation game: %w", err)
		}

		score.add(result.Game.Board, that.agentMark)
	}

	return score, nil
}

func (that *GameManager) SaveAgent(ctx context.Context) error {
	if err := that.agentRepo.Save(ctx, that.learner.Snapshot()); err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}

	return nil
}

func (that *Score) add(board entity.Board, mark entity.Mark) {
	switch winner := board.Winner(); {
	case winner == mark:
		that.Wins++
	case winner == mark.Opponent():
		that.Losses++
	default:
		that.Draws++
	}
}

func (that Score) Total() int {
	return that.Wins + that.Draws + that.Losses
}
