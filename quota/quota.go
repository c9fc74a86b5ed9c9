package quota

import (
	"context"
	"time"
)

// UsageSource counts records created in a collection since a point in time.
// The composite store implements it.
type UsageSource interface {
	CountCreatedSince(ctx context.Context, collection string, since time.Time) (int64, error)
}

// Band grades a utilization ratio.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandModerate Band = "moderate"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// Cutoffs holds the lower bounds of the moderate, warning, and critical
// bands.
type Cutoffs struct {
	Moderate float64
	Warning  float64
	Critical float64
}

// DefaultCutoffs returns the stock band boundaries.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{Moderate: 0.6, Warning: 0.8, Critical: 0.95}
}

// Band grades a utilization ratio against the cutoffs.
func (c Cutoffs) Band(utilization float64) Band {
	switch {
	case utilization >= c.Critical:
		return BandCritical
	case utilization >= c.Warning:
		return BandWarning
	case utilization >= c.Moderate:
		return BandModerate
	default:
		return BandHealthy
	}
}

// ServiceConfig describes one external service budget.
type ServiceConfig struct {
	// Name identifies the external service.
	Name string

	// Collection is the store collection whose record creations count
	// against this service's quota.
	Collection string

	// DailyLimit is the provider's daily request or unit budget.
	DailyLimit int64

	// Weight is this service's share of the overall health blend. Weights
	// are normalized across services at report time.
	Weight float64

	// ResetTimezone is the IANA timezone whose midnight resets the daily
	// window. Empty means UTC.
	ResetTimezone string
}

// Config holds monitor configuration.
type Config struct {
	// Services lists the budgets to track.
	Services []ServiceConfig

	// AlertThreshold is the default utilization at which alerts fire when a
	// request does not specify one.
	AlertThreshold float64

	// Cutoffs sets the band boundaries.
	Cutoffs Cutoffs
}

// DefaultConfig returns a Config covering the pipeline's two metered
// providers: the video platform API (counted per discovered video) and the
// speech-to-text provider (counted per submitted transcript).
func DefaultConfig() Config {
	return Config{
		Services: []ServiceConfig{
			{Name: "video_platform", Collection: "videos", DailyLimit: 10000, Weight: 0.6},
			{Name: "speech_to_text", Collection: "transcripts", DailyLimit: 100, Weight: 0.4},
		},
		AlertThreshold: 0.8,
		Cutoffs:        DefaultCutoffs(),
	}
}

// window returns the current daily window bounds for a reset timezone.
func window(tz string, now time.Time) (start, next time.Time, err error) {
	loc := time.UTC
	if tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	local := now.In(loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return start, start.AddDate(0, 0, 1), nil
}
