package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Match errors
	ErrMatchNotFound = errors.New("match not found")
	ErrNoRivals      = errors.New("not enough ready rivals")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
)
