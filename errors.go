package vigil

import "errors"

var (
	// Store errors.
	ErrNoStore           = errors.New("vigil: no store configured")
	ErrStoreClosed       = errors.New("vigil: store closed")
	ErrMigrationFailed   = errors.New("vigil: migration failed")
	ErrUnknownCollection = errors.New("vigil: unknown collection")

	// Not found errors.
	ErrJobNotFound        = errors.New("vigil: job not found")
	ErrVideoNotFound      = errors.New("vigil: video not found")
	ErrDeadLetterNotFound = errors.New("vigil: dead letter entry not found")

	// Conflict errors.
	ErrDeadLetterExists = errors.New("vigil: dead letter entry already exists for job")

	// Validation errors.
	ErrMissingJobID          = errors.New("vigil: missing job id")
	ErrMissingFailureContext = errors.New("vigil: missing or incomplete failure context")
	ErrInvalidThreshold      = errors.New("vigil: invalid threshold")
	ErrUnknownService        = errors.New("vigil: unknown quota service")
)
