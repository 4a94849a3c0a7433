package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
)

type Mark string

const (
	MarkX     Mark = "X"
	MarkO     Mark = "O"
	EmptyCell Mark = ""
)

const (
	BoardSize = 9
	Center    = 4

	emptyKeyChar = '-'
)

type Outcome string

const (
	OutcomeOngoing Outcome = "ongoing"
	OutcomeXWins   Outcome = "x-wins"
	OutcomeOWins   Outcome = "o-wins"
	OutcomeDraw    Outcome = "draw"
)

var (
	ErrInvalidBoardKey = errors.New("invalid board key")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}

	Corners = []int{0, 2, 6, 8}
	Sides   = []int{1, 3, 5, 7}
)

// Opponent returns the other player's mark.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

func (that Mark) IsPlayer() bool {
	return that == MarkX || that == MarkO
}

// BoardKey is the row-major encoding of a board, one character per cell.
type BoardKey string

// Board is a 3x3 grid in row-major order. It is a value type: Apply returns a copy.
type Board [BoardSize]Mark

func (that Board) LegalMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

func (that Board) Apply(cell int, mark Mark) (Board, error) {
	if !mark.IsPlayer() {
		return that, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if cell < 0 || cell >= BoardSize {
		return that, fmt.Errorf("%w: %w: cell %d", apperror.ErrInvalidMove, apperror.ErrInvalidCell, cell)
	}

	if that[cell] != EmptyCell {
		return that, fmt.Errorf("%w: %w: cell %d", apperror.ErrInvalidMove, apperror.ErrCellOccupied, cell)
	}

	next := that
	next[cell] = mark

	return next, nil
}

// Winner returns the mark owning a complete line, or EmptyCell.
func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) IsDraw() bool {
	return that.Winner() == EmptyCell && that.IsFull()
}

func (that Board) IsTerminal() bool {
	return that.Winner() != EmptyCell || that.IsFull()
}

func (that Board) Outcome() Outcome {
	switch that.Winner() {
	case MarkX:
		return OutcomeXWins
	case MarkO:
		return OutcomeOWins
	}

	if that.IsFull() {
		return OutcomeDraw
	}

	return OutcomeOngoing
}

func (that Board) Count(mark Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

func (that Board) Key() BoardKey {
	var sb strings.Builder
	sb.Grow(BoardSize)

	for _, cell := range that {
		if cell == EmptyCell {
			sb.WriteByte(emptyKeyChar)
			continue
		}
		sb.WriteString(string(cell))
	}

	return BoardKey(sb.String())
}

func (that Board) String() string {
	return string(that.Key())
}

// ParseBoardKey decodes a key produced by Board.Key.
func ParseBoardKey(key BoardKey) (Board, error) {
	var board Board

	if len(key) != BoardSize {
		return board, fmt.Errorf("%w: %q has length %d", ErrInvalidBoardKey, key, len(key))
	}

	for i := 0; i < BoardSize; i++ {
		switch key[i] {
		case emptyKeyChar:
			board[i] = EmptyCell
		case 'X':
			board[i] = MarkX
		case 'O':
			board[i] = MarkO
		default:
			return board, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidBoardKey, key[i], key)
		}
	}

	return board, nil
}
