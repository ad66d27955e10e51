package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUserExists is returned when registering a username that is taken.
	ErrUserExists = errors.New("username already exists")
	// ErrUserNotFound is returned by credential stores for unknown usernames.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both unknown users and password mismatches.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPackageSize is returned for question counts outside the offered set.
	ErrInvalidPackageSize = errors.New("invalid package size")
	// ErrInvalidAnswer is returned when an answer does not match the question's choices.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrWrongStage is returned when an action is not allowed on the current screen.
	ErrWrongStage = errors.New("action not allowed at this stage")
	// ErrSessionNotFound is returned when a session context cannot be resumed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// MissingColumnError reports question bank columns absent from the header.
// It is fatal: no quiz can be built from such a bank.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("question bank is missing required column(s): %s", strings.Join(e.Columns, ", "))
}

// StorageError wraps a failed read or write of persisted state.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a StorageError.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsWarning reports errors that leave the user on the same screen without
// aborting anything.
func IsWarning(err error) bool {
	switch {
	case errors.Is(err, ErrUserExists),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidPackageSize),
		errors.Is(err, ErrInvalidAnswer),
		errors.Is(err, ErrWrongStage),
		errors.Is(err, ErrInvalidInput):
		return true
	}
	return false
}
