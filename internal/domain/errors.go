package domain

import "errors"

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is returned when sign-in fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when the caller does not own the resource or lacks the role.
	ErrForbidden = errors.New("forbidden")
	// ErrAttemptNotFound indicates no attempt exists with the given id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptSubmitted indicates a mutation on an attempt that is no longer in progress.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrAttemptInProgress indicates the student already holds an open attempt for the quiz.
	ErrAttemptInProgress = errors.New("attempt already in progress")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates no directory entry matched.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates an unknown or expired login session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates a malformed request body.
	ErrInvalidInput = errors.New("invalid input")
)
