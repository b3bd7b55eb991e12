package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConflict           = errors.New("status conflict")
	ErrAlreadyPaid        = errors.New("order already paid")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidAmount      = errors.New("invalid amount")
)
