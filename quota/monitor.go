package quota

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/id"
)

// AlertSeverity grades a quota alert.
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Risk grades a projected utilization.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ServiceState is one service's position in its current daily window.
type ServiceState struct {
	Service     string    `json:"service"`
	Usage       int64     `json:"usage"`
	DailyLimit  int64     `json:"daily_limit"`
	Utilization float64   `json:"utilization"`
	Band        Band      `json:"band"`
	WindowStart time.Time `json:"window_start"`
	NextReset   time.Time `json:"next_reset"`
}

// Alert fires when a service's utilization crosses the alert threshold.
type Alert struct {
	Service     string        `json:"service"`
	Severity    AlertSeverity `json:"severity"`
	Utilization float64       `json:"utilization"`
	Message     string        `json:"message"`
	Action      string        `json:"recommended_action"`
	TimeToReset time.Duration `json:"time_to_reset"`
}

// Prediction extrapolates the observed burn rate across the full window.
type Prediction struct {
	Service              string  `json:"service"`
	HourlyRate           float64 `json:"hourly_rate"`
	PredictedDailyUsage  int64   `json:"predicted_daily_usage"`
	ProjectedUtilization float64 `json:"projected_utilization"`
	Risk                 Risk    `json:"risk"`
}

// OverallHealth blends per-service utilizations into one weighted score.
// The blend can read healthy while one service is nearly exhausted; the
// bottleneck field exists so operators catch that case.
type OverallHealth struct {
	Score      float64 `json:"score"`
	Band       Band    `json:"band"`
	Bottleneck string  `json:"bottleneck_service"`
}

// Report is the outcome of one monitor run.
type Report struct {
	ReportID    id.ReportID    `json:"report_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Threshold   float64        `json:"alert_threshold"`
	States      []ServiceState `json:"services"`
	Alerts      []Alert        `json:"alerts"`
	Predictions []Prediction   `json:"predictions,omitempty"`
	Overall     OverallHealth  `json:"overall"`
}

// Request describes one monitor run. A zero AlertThreshold falls back to
// the configured default.
type Request struct {
	AlertThreshold     float64
	IncludePredictions bool
}

// Hooks receives monitor lifecycle notifications.
type Hooks interface {
	EmitQuotaAlert(ctx context.Context, alert *Alert)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithConfig replaces the monitor configuration.
func WithConfig(cfg Config) Option {
	return func(m *Monitor) { m.cfg = cfg }
}

// WithHooks sets the lifecycle hook sink.
func WithHooks(h Hooks) Option {
	return func(m *Monitor) { m.hooks = h }
}

// WithNow overrides the clock. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor reports quota consumption across the configured services.
type Monitor struct {
	usage  UsageSource
	cfg    Config
	logger *slog.Logger
	hooks  Hooks
	now    func() time.Time
}

// NewMonitor creates a Monitor over the given usage source.
func NewMonitor(usage UsageSource, opts ...Option) *Monitor {
	m := &Monitor{
		usage:  usage,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Monitor reads every service's usage for the current window, grades
// utilization, raises alerts at the threshold, and optionally extrapolates
// burn rates. A failed usage count fails the whole report; zero is never
// substituted for an error.
func (m *Monitor) Monitor(ctx context.Context, req Request) (*Report, error) {
	threshold := req.AlertThreshold
	if threshold == 0 {
		threshold = m.cfg.AlertThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("vigil/quota: %w: alert threshold %v outside [0, 1]",
			vigil.ErrInvalidThreshold, threshold)
	}

	now := m.now().UTC()
	report := &Report{
		ReportID:    id.NewReportID(),
		GeneratedAt: now,
		Threshold:   threshold,
	}

	var (
		weightedSum float64
		weightTotal float64
		maxUtil     = -1.0
	)

	for _, svc := range m.cfg.Services {
		windowStart, nextReset, err := window(svc.ResetTimezone, now)
		if err != nil {
			return nil, fmt.Errorf("vigil/quota: service %s: %w", svc.Name, err)
		}

		usage, err := m.usage.CountCreatedSince(ctx, svc.Collection, windowStart)
		if err != nil {
			return nil, fmt.Errorf("vigil/quota: count %s: %w", svc.Collection, err)
		}

		var util float64
		if svc.DailyLimit > 0 {
			util = float64(usage) / float64(svc.DailyLimit)
		}

		state := ServiceState{
			Service:     svc.Name,
			Usage:       usage,
			DailyLimit:  svc.DailyLimit,
			Utilization: util,
			Band:        m.cfg.Cutoffs.Band(util),
			WindowStart: windowStart,
			NextReset:   nextReset,
		}
		report.States = append(report.States, state)

		weightedSum += svc.Weight * util
		weightTotal += svc.Weight
		if util > maxUtil {
			maxUtil = util
			report.Overall.Bottleneck = svc.Name
		}

		if util >= threshold {
			alert := buildAlert(svc.Name, util, nextReset.Sub(now), m.cfg.Cutoffs)
			report.Alerts = append(report.Alerts, alert)

			m.logger.Warn("quota alert",
				slog.String("service", svc.Name),
				slog.String("severity", string(alert.Severity)),
				slog.Float64("utilization", util),
				slog.Duration("time_to_reset", alert.TimeToReset))

			if m.hooks != nil {
				m.hooks.EmitQuotaAlert(ctx, &alert)
			}
		}

		if req.IncludePredictions {
			if pred, ok := buildPrediction(svc.Name, usage, svc.DailyLimit, now.Sub(windowStart)); ok {
				report.Predictions = append(report.Predictions, pred)
			}
		}
	}

	if weightTotal > 0 {
		report.Overall.Score = weightedSum / weightTotal
	}
	report.Overall.Band = m.cfg.Cutoffs.Band(report.Overall.Score)

	m.logger.Info("quota report generated",
		slog.String("report_id", report.ReportID.String()),
		slog.Int("services", len(report.States)),
		slog.Int("alerts", len(report.Alerts)),
		slog.String("overall_band", string(report.Overall.Band)),
		slog.String("bottleneck", report.Overall.Bottleneck))

	return report, nil
}

func buildAlert(service string, util float64, toReset time.Duration, cutoffs Cutoffs) Alert {
	severity := AlertWarning
	action := "throttle producers for this service until the window resets"
	if util >= cutoffs.Critical {
		severity = AlertCritical
		action = "pause producers for this service until the window resets"
	}

	return Alert{
		Service:     service,
		Severity:    severity,
		Utilization: util,
		Message:     fmt.Sprintf("%s at %.0f%% of daily quota", service, util*100),
		Action:      action,
		TimeToReset: toReset,
	}
}

// predictionFloor guards the hourly rate against division by a near-zero
// window age right after reset.
const predictionFloor = time.Minute

func buildPrediction(service string, usage, limit int64, elapsed time.Duration) (Prediction, bool) {
	if elapsed < predictionFloor || limit <= 0 {
		return Prediction{}, false
	}

	rate := float64(usage) / elapsed.Hours()
	predicted := rate * 24
	projected := predicted / float64(limit)

	risk := RiskLow
	switch {
	case projected >= 1.0:
		risk = RiskHigh
	case projected >= 0.8:
		risk = RiskMedium
	}

	return Prediction{
		Service:              service,
		HourlyRate:           rate,
		PredictedDailyUsage:  int64(math.Round(predicted)),
		ProjectedUtilization: projected,
		Risk:                 risk,
	}, true
}
