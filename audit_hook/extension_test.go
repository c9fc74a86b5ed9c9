package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	ah "github.com/raynmakers/vigil/audit_hook"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/ext"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/scan"
)

// ── Mock recorder ────────────────────────────────────

// mockRecorder captures audit events for verification.
type mockRecorder struct {
	mu     sync.Mutex
	events []*ah.AuditEvent
}

func (m *mockRecorder) Record(_ context.Context, evt *ah.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockRecorder) last() *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockRecorder) findByAction(action string) *ah.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, evt := range m.events {
		if evt.Action == action {
			return evt
		}
	}
	return nil
}

// ── Test helpers ─────────────────────────────────────

func newTestEntry(sev dlq.Severity) *dlq.Entry {
	return &dlq.Entry{
		ID:       id.NewDeadLetterID(),
		JobID:    "job-abc",
		JobType:  job.TypeSingleTranscribe,
		Severity: sev,
		Priority: dlq.PriorityUrgent,
		Failure: dlq.FailureContext{
			ErrorType:    "authorization denied",
			ErrorMessage: "token expired",
			RetryCount:   3,
		},
	}
}

func newTestResult() *scan.Result {
	return &scan.Result{
		ScanID:        id.NewScanID(),
		TotalStuck:    5,
		StaleCount:    3,
		CriticalCount: 2,
		Duration:      120 * time.Millisecond,
		Health:        scan.HealthImpact{Score: 44, Level: scan.ImpactMedium, ProcessingEfficiency: 56},
	}
}

func newTestAlert(sev quota.AlertSeverity) *quota.Alert {
	return &quota.Alert{
		Service:     "video_platform",
		Severity:    sev,
		Utilization: 0.96,
		Message:     "video_platform at 96% of daily quota",
		Action:      "pause producers for this service until the window resets",
		TimeToReset: 4 * time.Hour,
	}
}

// ── Tests ────────────────────────────────────────────

func TestExtension_Name(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	if e.Name() != "audit-hook" {
		t.Errorf("expected name %q, got %q", "audit-hook", e.Name())
	}
}

// ── Recovery lifecycle tests ─────────────────────────

func TestExtension_DeadLetterRouted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	ctx := context.Background()
	entry := newTestEntry(dlq.SeverityHigh)

	if err := e.OnDeadLetterRouted(ctx, entry); err != nil {
		t.Fatalf("OnDeadLetterRouted: %v", err)
	}

	evt := rec.last()
	if evt == nil {
		t.Fatal("no event recorded")
	}
	if evt.Action != ah.ActionDeadLetterRouted {
		t.Errorf("Action: want %q, got %q", ah.ActionDeadLetterRouted, evt.Action)
	}
	if evt.Resource != ah.ResourceDeadLetter {
		t.Errorf("Resource: want %q, got %q", ah.ResourceDeadLetter, evt.Resource)
	}
	if evt.Category != ah.CategoryRecovery {
		t.Errorf("Category: want %q, got %q", ah.CategoryRecovery, evt.Category)
	}
	if evt.ResourceID != entry.ID.String() {
		t.Errorf("ResourceID: want %q, got %q", entry.ID.String(), evt.ResourceID)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
	if evt.Metadata["job_id"] != "job-abc" {
		t.Errorf("Metadata[job_id]: want %q, got %v", "job-abc", evt.Metadata["job_id"])
	}
	if evt.Metadata["job_type"] != "single_transcribe" {
		t.Errorf("Metadata[job_type]: want %q, got %v", "single_transcribe", evt.Metadata["job_type"])
	}
	if evt.Metadata["retry_count"] != 3 {
		t.Errorf("Metadata[retry_count]: want %d, got %v", 3, evt.Metadata["retry_count"])
	}
}

func TestExtension_DeadLetterRouted_SeverityMapping(t *testing.T) {
	tests := []struct {
		entrySev dlq.Severity
		auditSev string
	}{
		{dlq.SeverityHigh, ah.SeverityCritical},
		{dlq.SeverityMedium, ah.SeverityWarning},
		{dlq.SeverityLow, ah.SeverityInfo},
	}

	for _, tt := range tests {
		rec := &mockRecorder{}
		e := ah.New(rec)

		if err := e.OnDeadLetterRouted(context.Background(), newTestEntry(tt.entrySev)); err != nil {
			t.Fatalf("OnDeadLetterRouted(%s): %v", tt.entrySev, err)
		}
		if got := rec.last().Severity; got != tt.auditSev {
			t.Errorf("entry severity %s: audit severity want %q, got %q", tt.entrySev, tt.auditSev, got)
		}
	}
}

func TestExtension_DeadLetterReplayed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	entryID := id.NewDeadLetterID()

	if err := e.OnDeadLetterReplayed(context.Background(), entryID, "job-abc"); err != nil {
		t.Fatalf("OnDeadLetterReplayed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionDeadLetterReplayed {
		t.Errorf("Action: want %q, got %q", ah.ActionDeadLetterReplayed, evt.Action)
	}
	if evt.Severity != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeSuccess, evt.Outcome)
	}
	if evt.ResourceID != entryID.String() {
		t.Errorf("ResourceID: want %q, got %q", entryID.String(), evt.ResourceID)
	}
	if evt.Metadata["job_id"] != "job-abc" {
		t.Errorf("Metadata[job_id]: want %q, got %v", "job-abc", evt.Metadata["job_id"])
	}
}

// ── Scan lifecycle tests ─────────────────────────────

func TestExtension_ScanCompleted(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	res := newTestResult()

	if err := e.OnScanCompleted(context.Background(), res); err != nil {
		t.Fatalf("OnScanCompleted: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionScanCompleted {
		t.Errorf("Action: want %q, got %q", ah.ActionScanCompleted, evt.Action)
	}
	if evt.Resource != ah.ResourceScan {
		t.Errorf("Resource: want %q, got %q", ah.ResourceScan, evt.Resource)
	}
	if evt.Category != ah.CategoryScan {
		t.Errorf("Category: want %q, got %q", ah.CategoryScan, evt.Category)
	}
	// Two critical records → warning severity.
	if evt.Severity != ah.SeverityWarning {
		t.Errorf("Severity: want %q, got %q", ah.SeverityWarning, evt.Severity)
	}
	if evt.Metadata["total_stuck"] != 5 {
		t.Errorf("Metadata[total_stuck]: want %d, got %v", 5, evt.Metadata["total_stuck"])
	}
	if evt.Metadata["health_score"] != 44 {
		t.Errorf("Metadata[health_score]: want %d, got %v", 44, evt.Metadata["health_score"])
	}
}

func TestExtension_ScanCompleted_CleanSweepIsInfo(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	res := &scan.Result{ScanID: id.NewScanID()}

	if err := e.OnScanCompleted(context.Background(), res); err != nil {
		t.Fatalf("OnScanCompleted: %v", err)
	}
	if got := rec.last().Severity; got != ah.SeverityInfo {
		t.Errorf("Severity: want %q, got %q", ah.SeverityInfo, got)
	}
}

// ── Quota lifecycle tests ────────────────────────────

func TestExtension_QuotaAlert_Critical(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	alert := newTestAlert(quota.AlertCritical)

	if err := e.OnQuotaAlert(context.Background(), alert); err != nil {
		t.Fatalf("OnQuotaAlert: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionQuotaAlert {
		t.Errorf("Action: want %q, got %q", ah.ActionQuotaAlert, evt.Action)
	}
	if evt.Resource != ah.ResourceService {
		t.Errorf("Resource: want %q, got %q", ah.ResourceService, evt.Resource)
	}
	if evt.ResourceID != "video_platform" {
		t.Errorf("ResourceID: want %q, got %q", "video_platform", evt.ResourceID)
	}
	if evt.Severity != ah.SeverityCritical {
		t.Errorf("Severity: want %q, got %q", ah.SeverityCritical, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
	if evt.Metadata["utilization"] != 0.96 {
		t.Errorf("Metadata[utilization]: want %v, got %v", 0.96, evt.Metadata["utilization"])
	}
}

func TestExtension_QuotaAlert_Warning(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	alert := newTestAlert(quota.AlertWarning)

	if err := e.OnQuotaAlert(context.Background(), alert); err != nil {
		t.Fatalf("OnQuotaAlert: %v", err)
	}

	evt := rec.last()
	if evt.Severity != ah.SeverityWarning {
		t.Errorf("Severity: want %q, got %q", ah.SeverityWarning, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeSuccess {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeSuccess, evt.Outcome)
	}
}

// ── Sweep lifecycle tests ────────────────────────────

func TestExtension_SweepFailed(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	sweepErr := errors.New("store unavailable")

	if err := e.OnSweepFailed(context.Background(), "scan", sweepErr); err != nil {
		t.Fatalf("OnSweepFailed: %v", err)
	}

	evt := rec.last()
	if evt.Action != ah.ActionSweepFailed {
		t.Errorf("Action: want %q, got %q", ah.ActionSweepFailed, evt.Action)
	}
	if evt.Severity != ah.SeverityCritical {
		t.Errorf("Severity: want %q, got %q", ah.SeverityCritical, evt.Severity)
	}
	if evt.Outcome != ah.OutcomeFailure {
		t.Errorf("Outcome: want %q, got %q", ah.OutcomeFailure, evt.Outcome)
	}
	if evt.Reason != "store unavailable" {
		t.Errorf("Reason: want %q, got %q", "store unavailable", evt.Reason)
	}
	if evt.Metadata["error"] != "store unavailable" {
		t.Errorf("Metadata[error]: want %q, got %v", "store unavailable", evt.Metadata["error"])
	}
}

// ── WithActions filter tests ─────────────────────────

func TestExtension_WithActions_FiltersDisabled(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec, ah.WithActions(ah.ActionDeadLetterRouted, ah.ActionQuotaAlert))

	ctx := context.Background()

	// Scan completed is NOT enabled — should be silently skipped.
	if err := e.OnScanCompleted(ctx, newTestResult()); err != nil {
		t.Fatalf("OnScanCompleted: %v", err)
	}
	if rec.count() != 0 {
		t.Errorf("expected 0 events (scan disabled), got %d", rec.count())
	}

	// Routed IS enabled — should be recorded.
	if err := e.OnDeadLetterRouted(ctx, newTestEntry(dlq.SeverityLow)); err != nil {
		t.Fatalf("OnDeadLetterRouted: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("expected 1 event (routed enabled), got %d", rec.count())
	}

	// Alert IS enabled — should be recorded.
	if err := e.OnQuotaAlert(ctx, newTestAlert(quota.AlertWarning)); err != nil {
		t.Fatalf("OnQuotaAlert: %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("expected 2 events, got %d", rec.count())
	}
}

// ── RecorderFunc adapter test ────────────────────────

func TestRecorderFunc(t *testing.T) {
	var captured *ah.AuditEvent
	fn := ah.RecorderFunc(func(_ context.Context, evt *ah.AuditEvent) error {
		captured = evt
		return nil
	})

	e := ah.New(fn)

	if err := e.OnDeadLetterRouted(context.Background(), newTestEntry(dlq.SeverityLow)); err != nil {
		t.Fatalf("OnDeadLetterRouted: %v", err)
	}
	if captured == nil {
		t.Fatal("RecorderFunc was not called")
	}
	if captured.Action != ah.ActionDeadLetterRouted {
		t.Errorf("Action: want %q, got %q", ah.ActionDeadLetterRouted, captured.Action)
	}
}

// ── Recorder error handling test ─────────────────────

func TestExtension_RecorderError_DoesNotPropagate(t *testing.T) {
	failingRecorder := ah.RecorderFunc(func(_ context.Context, _ *ah.AuditEvent) error {
		return errors.New("audit backend down")
	})

	e := ah.New(failingRecorder)

	// Hook should NOT return an error — audit failures must not block
	// the recovery pipeline.
	if err := e.OnDeadLetterRouted(context.Background(), newTestEntry(dlq.SeverityLow)); err != nil {
		t.Fatalf("expected no error (audit failure swallowed), got: %v", err)
	}
}

// ── Registry integration test ────────────────────────

func TestExtension_ViaRegistry(t *testing.T) {
	rec := &mockRecorder{}
	e := ah.New(rec)
	logger := slog.Default()

	reg := ext.NewRegistry(logger)
	reg.Register(e)

	ctx := context.Background()

	reg.EmitDeadLetterRouted(ctx, newTestEntry(dlq.SeverityMedium))
	reg.EmitDeadLetterReplayed(ctx, id.NewDeadLetterID(), "job-abc")
	reg.EmitScanCompleted(ctx, newTestResult())
	reg.EmitQuotaAlert(ctx, newTestAlert(quota.AlertWarning))
	reg.EmitSweepFailed(ctx, "quota", errors.New("count failed"))

	// Verify all 5 event types were recorded.
	allActions := ah.AllActions()
	if rec.count() != len(allActions) {
		t.Fatalf("expected %d events, got %d", len(allActions), rec.count())
	}

	for _, action := range allActions {
		evt := rec.findByAction(action)
		if evt == nil {
			t.Errorf("missing event for action %q", action)
		}
	}
}

// ── AllActions test ──────────────────────────────────

func TestAllActions(t *testing.T) {
	actions := ah.AllActions()
	if len(actions) != 5 {
		t.Errorf("expected 5 actions, got %d", len(actions))
	}
}
