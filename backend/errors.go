// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrInvalidOption      = errors.New("option does not belong to poll")
	ErrPollClosed         = errors.New("poll is closed")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnknownDataset     = errors.New("unknown dataset")
)

// Error carries the message the backend reported for a failed operation.
// Message is shown to users verbatim.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf wraps a sentinel with a backend message.
func Errorf(op string, sentinel error, message string) *Error {
	return &Error{Op: op, Message: message, Err: sentinel}
}

// Message returns the user-facing text for err: the backend message when
// one is attached, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
