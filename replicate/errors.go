package replicate

import "errors"

var (
	// ErrRepositoryRequired is returned when a catalog repository is not provided.
	ErrRepositoryRequired = errors.New("catalog repository required")

	// ErrSourceRequired is returned when a catalog source is not provided.
	ErrSourceRequired = errors.New("catalog source required")

	// ErrCooldown is returned when a load is requested during the cooldown
	// window and there is no local data to fall back to.
	ErrCooldown = errors.New("load attempted during cooldown")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
