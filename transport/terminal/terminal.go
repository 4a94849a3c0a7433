// Package terminal is the human side of a game: it renders boards and validates input.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
)

var (
	ErrRetry       = errors.New("invalid input")
	ErrInputClosed = errors.New("input closed")
)

// ParseMove turns a 1-9 cell number into a board index that is free on board.
func ParseMove(raw string, board entity.Board) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrRetry, strings.TrimSpace(raw))
	}

	cell := number - 1
	if cell < 0 || cell >= entity.BoardSize {
		return 0, fmt.Errorf("%w: choose a cell between 1 and %d", ErrRetry, entity.BoardSize)
	}

	if board[cell] != entity.EmptyCell {
		return 0, fmt.Errorf("%w: cell %d is already taken", ErrRetry, number)
	}

	return cell, nil
}

// ParseDecision accepts y/yes/n/no in any case.
func ParseDecision(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: please choose 'y' or 'n'", ErrRetry)
	}
}

// RenderBoard draws the board with cell numbers in the empty squares.
func RenderBoard(board entity.Board) string {
	var sb strings.Builder

	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}

		for col := 0; col < 3; col++ {
			cell := row*3 + col

			symbol := strconv.Itoa(cell + 1)
			if board[cell] != entity.EmptyCell {
				symbol = string(board[cell])
			}

			if col > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(" " + symbol + " ")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (that *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(that.out, format, args...)
}

// ChooseMove shows the board and asks until a free cell is entered.
func (that *Terminal) ChooseMove(ctx context.Context, board entity.Board, mark entity.Mark) (int, error) {
	that.Printf("\n%s\n", RenderBoard(board))

	for {
		line, err := that.prompt(ctx, fmt.Sprintf("Your move (%s), cell 1-9: ", mark))
		if err != nil {
			return 0, err
		}

		cell, err := ParseMove(line, board)
		if errors.Is(err, ErrRetry) {
			that.Printf("%v\n", err)
			continue
		}

		return cell, err
	}
}

func (that *Terminal) ShowResult(result *usecase.EpisodeResult, agentMark entity.Mark) error {
	that.Printf("\n%s\n", RenderBoard(result.Game.Board))

	switch winner := result.Game.Board.Winner(); winner {
	case entity.EmptyCell:
		that.Printf("It's a draw.\n")
	case agentMark:
		that.Printf("The agent wins.\n")
	default:
		that.Printf("You win!\n")
	}

	return nil
}

// PlayAgain asks whether to continue. Closed input counts as no.
func (that *Terminal) PlayAgain(ctx context.Context, gamesPlayed int) (bool, error) {
	that.Printf("Games played: %d\n", gamesPlayed)

	return that.Confirm(ctx, "Do you want to play again? [y/n]: ")
}

// Confirm asks a yes/no question until it gets a valid answer.
func (that *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		line, err := that.prompt(ctx, question)
		if errors.Is(err, ErrInputClosed) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		answer, err := ParseDecision(line)
		if errors.Is(err, ErrRetry) {
			that.Printf("Invalid input. Please choose 'y' or 'n'.\n")
			continue
		}

		return answer, err
	}
}

func (that *Terminal) prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("prompt canceled: %w", err)
	}

	that.Printf("%s", question)

	line, err := that.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if strings.TrimSpace(line) == "" {
			return "", ErrInputClosed
		}
		return line, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return line, nil
}
