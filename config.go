package vigil

import "time"

// Config holds configuration for the Vigil coordinator.
type Config struct {
	// ScanSchedule is the cron expression for periodic stuck-job scans.
	ScanSchedule string

	// MonitorSchedule is the cron expression for periodic quota reports.
	MonitorSchedule string

	// InvocationTimeout bounds a single Route, Scan, or Monitor invocation.
	InvocationTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadLimit caps how many records a sweep reads from one collection.
	// Remaining records are picked up by the next sweep.
	ReadLimit int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ScanSchedule:      "*/5 * * * *",
		MonitorSchedule:   "*/15 * * * *",
		InvocationTimeout: 60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadLimit:         500,
	}
}
