package service

import "errors"

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGeneratorOffline    = errors.New("generation service unavailable")
	ErrOperationInFlight   = errors.New("operation already in progress")
	ErrInvalidInput        = errors.New("missing or invalid input")
	ErrNotFound            = errors.New("not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)
