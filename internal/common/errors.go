// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrNotFound indicates a card, note, or settings blob that does not exist.
	ErrNotFound = errors.New("not found")

	// Collection errors.
	ErrCollectionClosed = errors.New("collection closed")
	ErrUnknownDeck      = errors.New("unknown deck")
	ErrUnknownNoteType  = errors.New("unknown note type")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidQuery  = errors.New("invalid search query")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
