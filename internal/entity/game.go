package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	MarkTie Mark = "-"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is one episode: a board plus turn bookkeeping. X always moves first.
type Game struct {
	Board  Board  `json:"board"`
	Winner Mark   `json:"winner"`
	Status string `json:"status"`
	Turn   Mark   `json:"player_turn"`
}

func NewGame() *Game {
	return &Game{
		Board:  Board{},
		Turn:   MarkX,
		Status: StatusOngoing,
	}
}

func (that *Game) DetermineGameResult() Mark {
	if winner := that.Board.Winner(); winner != EmptyCell {
		return winner
	}

	// the game will continue until all the squares are full
	if !that.Board.IsFull() {
		return EmptyCell
	}

	return MarkTie
}

func (that *Game) UpdateGameState() {
	switch winner := that.DetermineGameResult(); winner {
	// one player wins
	case MarkX, MarkO:
		that.Winner = winner
		that.Status = StatusFinished
		that.Turn = EmptyCell
	// tie
	case MarkTie:
		that.Winner = MarkTie
		that.Status = StatusFinished
		that.Turn = EmptyCell
	// game continue
	default:
		that.Status = StatusOngoing
	}
}

func (that *Game) MakeTurn(mark Mark, cell int) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	board, err := that.Board.Apply(cell, mark)
	if err != nil {
		return err
	}

	that.Board = board
	that.Turn = mark.Opponent()

	that.UpdateGameState()

	return nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsDraw() bool {
	return that.Winner == MarkTie
}
