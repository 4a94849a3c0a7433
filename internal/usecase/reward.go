package usecase

import "github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"

// RewardScheme is what the agent receives at the end of its transitions.
// Intermediate moves always earn 0.
type RewardScheme struct {
	Win  float64
	Loss float64
	Draw float64
}

// For scores board from mark's point of view.
func (that RewardScheme) For(board entity.Board, mark entity.Mark) float64 {
	switch board.Outcome() {
	case entity.OutcomeXWins, entity.OutcomeOWins:
		if board.Winner() == mark {
			return that.Win
		}
		return that.Loss
	case entity.OutcomeDraw:
		return that.Draw
	default:
		return 0
	}
}
