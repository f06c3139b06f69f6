package domain

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidUser        = errors.New("invalid user data")

	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidID    = errors.New("invalid id format")
	ErrInvalidTask  = errors.New("invalid task")
)
