package service

import (
	"errors"
	"fmt"
)

// Operation-level failures.  The HTTP boundary maps each to a status code;
// SessionExpired and SessionSuperseded reach the caller as the same 401 and
// are told apart only in logs.
var (
	ErrNotFound           = errors.New("principal not found")
	ErrUnverified         = errors.New("email not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBanned             = fmt.Errorf("%w: account suspended", ErrUnauthorized)
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionSuperseded  = errors.New("session superseded")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidInput       = errors.New("invalid input")
)
