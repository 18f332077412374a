package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRoomFull        = fmt.Errorf("%w: room is full", ErrConflict)
	ErrAlreadyStarted  = fmt.Errorf("%w: game already started", ErrConflict)
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrQuestionSource  = errors.New("question source unavailable")
	ErrTaskPanic       = errors.New("room task panicked")
)
