package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// human is the interactive side of a play session.
type human interface {
	opponent
	ShowResult(result *EpisodeResult, agentMark entity.Mark) error
	PlayAgain(ctx context.Context, gamesPlayed int) (bool, error)
}

// Play loops games against a human until they decline another one. It returns the number
// of games played in this session.
func (that *GameManager) Play(ctx context.Context, player human, learn bool) (int, error) {
	log := that.logger.With("method", "Play")

	gamesPlayed := 0
	for {
		result, err := that.PlayEpisode(ctx, player, learn)
		if err != nil {
			return gamesPlayed, fmt.Errorf("failed to play game: %w", err)
		}
		gamesPlayed++

		log.Debug("game finished", "outcome", result.Outcome, "reward", result.Reward)

		if err = player.ShowResult(result, that.agentMark); err != nil {
			return gamesPlayed, fmt.Errorf("failed to show result: %w", err)
		}

		again, err := player.PlayAgain(ctx, gamesPlayed)
		if err != nil {
			return gamesPlayed, fmt.Errorf("failed to read decision: %w", err)
		}

		if !again {
			return gamesPlayed, nil
		}
	}
}
