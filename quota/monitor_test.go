package quota_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/store/memory"
)

var base = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

// usageStub serves counts from a fixed map and records the window start
// each collection was queried with.
type usageStub struct {
	counts map[string]int64
	since  map[string]time.Time
	errFor string
}

func (u *usageStub) CountCreatedSince(_ context.Context, collection string, since time.Time) (int64, error) {
	if u.errFor != "" && u.errFor == collection {
		return 0, errors.New("backend offline")
	}
	if u.since == nil {
		u.since = make(map[string]time.Time)
	}
	u.since[collection] = since

	return u.counts[collection], nil
}

func testConfig() quota.Config {
	return quota.Config{
		Services: []quota.ServiceConfig{
			{Name: "video_platform", Collection: "videos", DailyLimit: 10000, Weight: 0.6},
			{Name: "speech_to_text", Collection: "transcripts", DailyLimit: 100, Weight: 0.4},
		},
		AlertThreshold: 0.8,
		Cutoffs:        quota.DefaultCutoffs(),
	}
}

func newTestMonitor(usage quota.UsageSource, opts ...quota.Option) *quota.Monitor {
	opts = append([]quota.Option{
		quota.WithNow(func() time.Time { return base }),
		quota.WithConfig(testConfig()),
	}, opts...)

	return quota.NewMonitor(usage, opts...)
}

// alertHook captures fired quota alerts.
type alertHook struct {
	alerts []*quota.Alert
}

func (h *alertHook) EmitQuotaAlert(_ context.Context, alert *quota.Alert) {
	h.alerts = append(h.alerts, alert)
}

// ──────────────────────────────────────────────────
// Bands
// ──────────────────────────────────────────────────

func TestCutoffs_Band(t *testing.T) {
	cutoffs := quota.DefaultCutoffs()

	tests := []struct {
		utilization float64
		want        quota.Band
	}{
		{0, quota.BandHealthy},
		{0.59, quota.BandHealthy},
		{0.6, quota.BandModerate},
		{0.79, quota.BandModerate},
		{0.8, quota.BandWarning},
		{0.94, quota.BandWarning},
		{0.95, quota.BandCritical},
		{1.2, quota.BandCritical},
	}

	for _, tt := range tests {
		if got := cutoffs.Band(tt.utilization); got != tt.want {
			t.Errorf("Band(%v) = %v, want %v", tt.utilization, got, tt.want)
		}
	}
}

// ──────────────────────────────────────────────────
// Reports
// ──────────────────────────────────────────────────

func TestMonitor_Report(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 3000, "transcripts": 50}}
	m := newTestMonitor(usage)

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	if rep.ReportID.IsNil() {
		t.Error("every report gets an ID")
	}
	if !rep.GeneratedAt.Equal(base) {
		t.Errorf("GeneratedAt = %v, want %v", rep.GeneratedAt, base)
	}
	if rep.Threshold != 0.8 {
		t.Errorf("Threshold = %v, want the configured default", rep.Threshold)
	}
	if len(rep.States) != 2 {
		t.Fatalf("States = %d, want 2", len(rep.States))
	}

	videos := rep.States[0]
	if videos.Service != "video_platform" || videos.Usage != 3000 || videos.Utilization != 0.3 {
		t.Errorf("video_platform state = %+v, want usage 3000 at 0.3", videos)
	}
	if videos.Band != quota.BandHealthy {
		t.Errorf("video_platform band = %v, want healthy", videos.Band)
	}

	midnight := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !videos.WindowStart.Equal(midnight) {
		t.Errorf("WindowStart = %v, want %v", videos.WindowStart, midnight)
	}
	if !videos.NextReset.Equal(midnight.AddDate(0, 0, 1)) {
		t.Errorf("NextReset = %v, want next midnight", videos.NextReset)
	}

	speech := rep.States[1]
	if speech.Service != "speech_to_text" || speech.Usage != 50 || speech.Utilization != 0.5 {
		t.Errorf("speech_to_text state = %+v, want usage 50 at 0.5", speech)
	}

	if len(rep.Alerts) != 0 {
		t.Errorf("Alerts = %v, want none below the threshold", rep.Alerts)
	}

	// Weighted blend: 0.6*0.3 + 0.4*0.5 = 0.38.
	if math.Abs(rep.Overall.Score-0.38) > 1e-9 {
		t.Errorf("Overall.Score = %v, want 0.38", rep.Overall.Score)
	}
	if rep.Overall.Band != quota.BandHealthy {
		t.Errorf("Overall.Band = %v, want healthy", rep.Overall.Band)
	}
	if rep.Overall.Bottleneck != "speech_to_text" {
		t.Errorf("Bottleneck = %q, want the most utilized service", rep.Overall.Bottleneck)
	}
}

func TestMonitor_WindowRespectsResetTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	usage := &usageStub{counts: map[string]int64{"transcripts": 10}}
	m := newTestMonitor(usage, quota.WithConfig(quota.Config{
		Services: []quota.ServiceConfig{{
			Name:          "speech_to_text",
			Collection:    "transcripts",
			DailyLimit:    100,
			Weight:        1,
			ResetTimezone: "America/New_York",
		}},
		AlertThreshold: 0.8,
		Cutoffs:        quota.DefaultCutoffs(),
	}))

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	localMidnight := time.Date(2026, time.March, 14, 0, 0, 0, 0, loc)
	if !usage.since["transcripts"].Equal(localMidnight) {
		t.Errorf("counted since %v, want local midnight %v", usage.since["transcripts"], localMidnight)
	}
	if !rep.States[0].WindowStart.Equal(localMidnight) {
		t.Errorf("WindowStart = %v, want %v", rep.States[0].WindowStart, localMidnight)
	}
	if !rep.States[0].NextReset.Equal(localMidnight.AddDate(0, 0, 1)) {
		t.Errorf("NextReset = %v, want the next local midnight", rep.States[0].NextReset)
	}
}

func TestMonitor_InvalidTimezoneFailsReport(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{}}
	m := newTestMonitor(usage, quota.WithConfig(quota.Config{
		Services: []quota.ServiceConfig{{
			Name:          "broken",
			Collection:    "videos",
			DailyLimit:    100,
			Weight:        1,
			ResetTimezone: "Mars/Olympus",
		}},
		AlertThreshold: 0.8,
		Cutoffs:        quota.DefaultCutoffs(),
	}))

	if _, err := m.Monitor(context.Background(), quota.Request{}); err == nil {
		t.Fatal("expected an unknown timezone to fail the report")
	}
}

// ──────────────────────────────────────────────────
// Alerts
// ──────────────────────────────────────────────────

func TestMonitor_AlertsAtThreshold(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 8000, "transcripts": 96}}
	hook := &alertHook{}
	m := newTestMonitor(usage, quota.WithHooks(hook))

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	if len(rep.Alerts) != 2 {
		t.Fatalf("Alerts = %d, want 2", len(rep.Alerts))
	}

	// Exactly at the threshold still alerts.
	warning := rep.Alerts[0]
	if warning.Service != "video_platform" || warning.Severity != quota.AlertWarning {
		t.Errorf("first alert = %+v, want a video_platform warning", warning)
	}
	if !strings.Contains(warning.Action, "throttle") {
		t.Errorf("warning action = %q, want a throttle instruction", warning.Action)
	}

	critical := rep.Alerts[1]
	if critical.Service != "speech_to_text" || critical.Severity != quota.AlertCritical {
		t.Errorf("second alert = %+v, want a speech_to_text critical", critical)
	}
	if critical.Message != "speech_to_text at 96% of daily quota" {
		t.Errorf("Message = %q", critical.Message)
	}
	if !strings.Contains(critical.Action, "pause") {
		t.Errorf("critical action = %q, want a pause instruction", critical.Action)
	}
	if critical.TimeToReset != 12*time.Hour {
		t.Errorf("TimeToReset = %v, want 12h from a noon run", critical.TimeToReset)
	}

	if len(hook.alerts) != 2 {
		t.Errorf("hook fired %d times, want 2", len(hook.alerts))
	}
}

func TestMonitor_ThresholdOverride(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 6000, "transcripts": 96}}
	m := newTestMonitor(usage)
	ctx := context.Background()

	rep, err := m.Monitor(ctx, quota.Request{AlertThreshold: 0.5})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(rep.Alerts) != 2 {
		t.Errorf("Alerts = %d, want both services above a 0.5 threshold", len(rep.Alerts))
	}

	rep, err = m.Monitor(ctx, quota.Request{AlertThreshold: 0.99})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if len(rep.Alerts) != 0 {
		t.Errorf("Alerts = %d, want none below a 0.99 threshold", len(rep.Alerts))
	}
}

func TestMonitor_ThresholdValidation(t *testing.T) {
	m := newTestMonitor(&usageStub{counts: map[string]int64{}})

	if _, err := m.Monitor(context.Background(), quota.Request{AlertThreshold: 1.5}); !errors.Is(err, vigil.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
	if _, err := m.Monitor(context.Background(), quota.Request{AlertThreshold: -0.1}); !errors.Is(err, vigil.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

// ──────────────────────────────────────────────────
// Predictions
// ──────────────────────────────────────────────────

func TestMonitor_Predictions(t *testing.T) {
	tests := []struct {
		name        string
		transcripts int64
		wantDaily   int64
		wantRisk    quota.Risk
	}{
		{"low burn", 10, 20, quota.RiskLow},
		{"medium burn", 45, 90, quota.RiskMedium},
		{"will exhaust", 50, 100, quota.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Noon UTC: 12 of 24 window hours elapsed, so the predicted
			// daily usage is twice the observed count.
			usage := &usageStub{counts: map[string]int64{"videos": 0, "transcripts": tt.transcripts}}
			m := newTestMonitor(usage)

			rep, err := m.Monitor(context.Background(), quota.Request{IncludePredictions: true})
			if err != nil {
				t.Fatalf("Monitor: %v", err)
			}

			var pred *quota.Prediction
			for i := range rep.Predictions {
				if rep.Predictions[i].Service == "speech_to_text" {
					pred = &rep.Predictions[i]
				}
			}
			if pred == nil {
				t.Fatalf("no speech_to_text prediction in %+v", rep.Predictions)
			}

			wantRate := float64(tt.transcripts) / 12
			if pred.HourlyRate != wantRate {
				t.Errorf("HourlyRate = %v, want %v", pred.HourlyRate, wantRate)
			}
			if pred.PredictedDailyUsage != tt.wantDaily {
				t.Errorf("PredictedDailyUsage = %d, want %d", pred.PredictedDailyUsage, tt.wantDaily)
			}
			if pred.Risk != tt.wantRisk {
				t.Errorf("Risk = %v, want %v", pred.Risk, tt.wantRisk)
			}
		})
	}
}

func TestMonitor_PredictionsOmittedWithoutRequest(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 5000, "transcripts": 50}}
	m := newTestMonitor(usage)

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if rep.Predictions != nil {
		t.Errorf("Predictions = %v, want none unless requested", rep.Predictions)
	}
}

func TestMonitor_PredictionsOmittedEarlyInWindow(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 3, "transcripts": 1}}
	justAfterReset := time.Date(2026, time.March, 14, 0, 0, 30, 0, time.UTC)
	m := quota.NewMonitor(usage,
		quota.WithNow(func() time.Time { return justAfterReset }),
		quota.WithConfig(testConfig()))

	rep, err := m.Monitor(context.Background(), quota.Request{IncludePredictions: true})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	// 30 seconds into the window the burn rate is meaningless noise.
	if rep.Predictions != nil {
		t.Errorf("Predictions = %v, want none this early in the window", rep.Predictions)
	}
}

// ──────────────────────────────────────────────────
// Overall health
// ──────────────────────────────────────────────────

// A heavily weighted idle service can drag the blended score into the
// healthy band while a lighter service is critically starved. The blend
// alone is not a safety signal; the bottleneck field carries the warning.
func TestMonitor_MixedUtilizationBlend(t *testing.T) {
	usage := &usageStub{counts: map[string]int64{"videos": 1000, "transcripts": 96}}
	m := newTestMonitor(usage)

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	// 0.6*0.1 + 0.4*0.96 = 0.444: healthy.
	if rep.Overall.Band != quota.BandHealthy {
		t.Errorf("Overall.Band = %v, want healthy despite the starved service", rep.Overall.Band)
	}
	if rep.States[1].Band != quota.BandCritical {
		t.Errorf("speech_to_text band = %v, want critical", rep.States[1].Band)
	}
	if rep.Overall.Bottleneck != "speech_to_text" {
		t.Errorf("Bottleneck = %q, want speech_to_text", rep.Overall.Bottleneck)
	}

	// The starved service still alerts even though the blend looks fine.
	if len(rep.Alerts) != 1 || rep.Alerts[0].Severity != quota.AlertCritical {
		t.Errorf("Alerts = %+v, want one critical alert", rep.Alerts)
	}
}

// ──────────────────────────────────────────────────
// Failure propagation
// ──────────────────────────────────────────────────

func TestMonitor_CountErrorPropagates(t *testing.T) {
	usage := &usageStub{
		counts: map[string]int64{"videos": 100},
		errFor: "transcripts",
	}
	hook := &alertHook{}
	m := newTestMonitor(usage, quota.WithHooks(hook))

	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err == nil {
		t.Fatal("expected a count failure to fail the report")
	}
	if rep != nil {
		t.Errorf("report = %+v, want nil on failure", rep)
	}
	if !strings.Contains(err.Error(), "transcripts") {
		t.Errorf("error %q should name the failing collection", err)
	}
}

// ──────────────────────────────────────────────────
// Against the store
// ──────────────────────────────────────────────────

func TestMonitor_WithMemoryStore(t *testing.T) {
	s := memory.New()
	// Two videos inside today's window, one from yesterday.
	s.SeedCreated("videos", base.Add(-time.Hour), base.Add(-3*time.Hour), base.Add(-30*time.Hour))
	// One transcript inside the window.
	s.SeedCreated("transcripts", base.Add(-2*time.Hour))

	m := newTestMonitor(s)
	rep, err := m.Monitor(context.Background(), quota.Request{})
	if err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	if rep.States[0].Usage != 2 {
		t.Errorf("video usage = %d, want 2 inside the window", rep.States[0].Usage)
	}
	if rep.States[1].Usage != 1 {
		t.Errorf("transcript usage = %d, want 1", rep.States[1].Usage)
	}
}
