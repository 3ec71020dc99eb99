package services

import (
	"errors"
	"fmt"
)

// Client errors. Handlers map each one to an HTTP status and message.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrBanned             = errors.New("user is banned")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVoted       = errors.New("already voted on this product")
	ErrInvalidVoteType    = errors.New("invalid vote type")

	ErrProductNotFound = fmt.Errorf("failed product %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)
