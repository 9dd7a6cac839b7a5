// Package common defines shared constants and sentinel errors used across
// client layers of mealkeeper. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")

	// Input errors.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)
