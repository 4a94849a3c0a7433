package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrInvalidMove   = errors.New("invalid move")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrNoLegalMoves  = errors.New("no legal moves")
	ErrInvalidMark   = errors.New("invalid mark")
	ErrPersistence   = errors.New("agent persistence failed")
	ErrAgentNotFound = errors.New("agent state not found")
	ErrCorruptAgent  = errors.New("agent state is corrupt")

	ErrConfigConflict = errors.New("conflicting run options")
)
