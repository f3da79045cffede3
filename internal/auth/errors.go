package auth

import "buzzatt/internal/apperr"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot probe for accounts.
	ErrInvalidCredentials  = apperr.Authentication("Incorrect email or password")
	ErrInvalidToken        = apperr.Authentication("Could not validate credentials")
	ErrDuplicateEmail      = apperr.Conflict("Email already registered")
	ErrMissingMatricNumber = apperr.Validation("Matric number required for students")
	ErrWrongProfile        = apperr.Forbidden("Not permitted for this profile type")
)
