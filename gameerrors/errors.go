package gameerrors

import "errors"

// Room and engine sentinel errors. Shared by the game, storage, rooms, api
// and ws packages to avoid circular imports.
var (
	ErrRoomNotFound   = errors.New("game not found")
	ErrRoomFull       = errors.New("game is full")
	ErrRoomFinished   = errors.New("game already finished")
	ErrRoomNotStarted = errors.New("waiting for second player")

	ErrNotYourTurn        = errors.New("not your turn")
	ErrCardNotFound       = errors.New("card not found")
	ErrInvalidPlay        = errors.New("invalid play")
	ErrVerifyPending      = errors.New("verification pending")
	ErrColorPickPending   = errors.New("color pick pending")
	ErrNoVerifyPending    = errors.New("no verification pending")
	ErrNoColorPickPending = errors.New("no color pick pending")
	ErrNotColorPicker     = errors.New("another player must pick the color")
	ErrNotVerifyTarget    = errors.New("cannot verify")
	ErrNoCards            = errors.New("no cards")
)
