package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// TeacherService plays optimal Tic-Tac-Toe from a fixed list of tactical rules.
type TeacherService interface {
	ChooseMove(ctx context.Context, board entity.Board, mark entity.Mark) (int, error)
}

// rule returns a cell and true when it applies to the position.
type rule func(board entity.Board, mark entity.Mark) (int, bool)

type teacherService struct {
	rules []rule
}

func NewTeacherService() TeacherService {
	return &teacherService{
		rules: []rule{
			winningMove,
			blockingMove,
			forkingMove,
			blockingForkMove,
			centerMove,
			oppositeCornerMove,
			cornerMove,
			sideMove,
		},
	}
}

func (that *teacherService) ChooseMove(_ context.Context, board entity.Board, mark entity.Mark) (int, error) {
	if !mark.IsPlayer() {
		return 0, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if board.Winner() != entity.EmptyCell {
		return 0, apperror.ErrGameFinished
	}

	if board.IsFull() {
		return 0, ErrNoAvailableMoves
	}

	for _, r := range that.rules {
		if cell, ok := r(board, mark); ok {
			return cell, nil
		}
	}

	// sideMove covers every remaining cell, so this is unreachable on a non-full board
	return 0, ErrNoAvailableMoves
}

func winningMove(board entity.Board, mark entity.Mark) (int, bool) {
	cells := winningCells(board, mark)
	if len(cells) == 0 {
		return 0, false
	}

	return cells[0], true
}

func blockingMove(board entity.Board, mark entity.Mark) (int, bool) {
	return winningMove(board, mark.Opponent())
}

func forkingMove(board entity.Board, mark entity.Mark) (int, bool) {
	cells := forkCells(board, mark)
	if len(cells) == 0 {
		return 0, false
	}

	return cells[0], true
}

// blockingForkMove takes the opponent's only fork cell. With several fork cells it forces
// the opponent to answer a threat whose block does not build a fork.
func blockingForkMove(board entity.Board, mark entity.Mark) (int, bool) {
	opponent := mark.Opponent()

	forks := forkCells(board, opponent)
	switch len(forks) {
	case 0:
		return 0, false
	case 1:
		return forks[0], true
	}

	for _, cell := range board.LegalMoves() {
		next, _ := board.Apply(cell, mark)

		threats := winningCells(next, mark)
		if len(threats) != 1 {
			continue
		}

		reply, _ := next.Apply(threats[0], opponent)
		if len(winningCells(reply, opponent)) < 2 {
			return cell, true
		}
	}

	return forks[0], true
}

func centerMove(board entity.Board, _ entity.Mark) (int, bool) {
	return entity.Center, board[entity.Center] == entity.EmptyCell
}

func oppositeCornerMove(board entity.Board, mark entity.Mark) (int, bool) {
	opponent := mark.Opponent()

	for _, corner := range entity.Corners {
		opposite := entity.BoardSize - 1 - corner
		if board[corner] == opponent && board[opposite] == entity.EmptyCell {
			return opposite, true
		}
	}

	return 0, false
}

func cornerMove(board entity.Board, _ entity.Mark) (int, bool) {
	return firstEmpty(board, entity.Corners)
}

func sideMove(board entity.Board, _ entity.Mark) (int, bool) {
	return firstEmpty(board, entity.Sides)
}

func firstEmpty(board entity.Board, cells []int) (int, bool) {
	for _, cell := range cells {
		if board[cell] == entity.EmptyCell {
			return cell, true
		}
	}

	return 0, false
}

// winningCells lists the empty cells that complete a line for mark, ascending.
func winningCells(board entity.Board, mark entity.Mark) []int {
	cells := make([]int, 0, 2)

	for _, cell := range board.LegalMoves() {
		next, _ := board.Apply(cell, mark)
		if next.Winner() == mark {
			cells = append(cells, cell)
		}
	}

	return cells
}

// forkCells lists the empty cells that leave mark with two winning cells at once.
func forkCells(board entity.Board, mark entity.Mark) []int {
	cells := make([]int, 0, 2)

	for _, cell := range board.LegalMoves() {
		next, _ := board.Apply(cell, mark)
		if len(winningCells(next, mark)) >= 2 {
			cells = append(cells, cell)
		}
	}

	return cells
}
