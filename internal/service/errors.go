package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPool is returned when no question matches the requested skill and level
	ErrEmptyPool = errors.New("no questions available for the selected skill and level")
	// ErrSessionClosed is returned by any call on a session that was ended or abandoned
	ErrSessionClosed = errors.New("practice session is closed")
	// ErrAnswerPending is returned when the current question was already answered
	ErrAnswerPending = errors.New("current question already answered")
	// ErrNoQuestion is returned when the session has no question left to answer
	ErrNoQuestion = errors.New("no current question")
	// ErrNoSession is returned when an operation needs an active session and there is none
	ErrNoSession = errors.New("no active practice session")
)

// ValidationError reports bad input. No state was changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PersistenceError reports a failed write that the caller must know about
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
