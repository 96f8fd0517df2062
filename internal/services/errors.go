package services

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrLevelNotFound    = errors.New("level not found")
	ErrLevelNotEmpty    = errors.New("level still owns challenges")
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameExists     = errors.New("team name already registered")
	ErrEmailExists        = errors.New("email already registered")
	ErrTeamExists         = errors.New("team name or email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenCreation      = errors.New("failed to create token")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
