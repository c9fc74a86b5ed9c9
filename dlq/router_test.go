package dlq_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/store/memory"
)

func newTestRouter(opts ...dlq.RouterOption) (*dlq.Router, *memory.Store) {
	s := memory.New()
	return dlq.NewRouter(s, s, opts...), s
}

func routeReq(jobID, jobType, errType string) dlq.RouteRequest {
	return dlq.RouteRequest{
		JobID:   jobID,
		JobType: jobType,
		Failure: dlq.FailureContext{
			ErrorType:    errType,
			ErrorMessage: "synthetic failure",
			RetryCount:   2,
		},
	}
}

// hookRecorder captures routed entries emitted through the hook sink.
type hookRecorder struct {
	entries  []*dlq.Entry
	replayed []string
}

func (h *hookRecorder) EmitDeadLetterRouted(_ context.Context, e *dlq.Entry) {
	h.entries = append(h.entries, e)
}

func (h *hookRecorder) EmitDeadLetterReplayed(_ context.Context, _ id.DeadLetterID, jobID string) {
	h.replayed = append(h.replayed, jobID)
}

// ──────────────────────────────────────────────────
// Severity classification
// ──────────────────────────────────────────────────

func TestClassification_Severity(t *testing.T) {
	class := dlq.DefaultClassification()

	tests := []struct {
		name    string
		errType string
		retries int
		want    dlq.Severity
	}{
		{"authorization marker", "authorization_error", 0, dlq.SeverityHigh},
		{"authentication marker", "AuthenticationFailure", 0, dlq.SeverityHigh},
		{"permission marker", "permission denied", 0, dlq.SeverityHigh},
		{"corruption marker", "data-corruption", 0, dlq.SeverityHigh},
		{"security marker", "security_violation", 0, dlq.SeverityHigh},
		{"critical marker", "critical_timeout", 0, dlq.SeverityHigh},
		{"quota marker", "quota_exceeded", 0, dlq.SeverityMedium},
		{"budget marker", "budget limit reached", 0, dlq.SeverityMedium},
		{"config marker", "invalid_config", 0, dlq.SeverityMedium},
		{"dependency marker", "dependency_unavailable", 0, dlq.SeverityMedium},
		{"high beats medium", "critical quota breach", 0, dlq.SeverityHigh},
		{"unmatched low retries", "some_transient_error", 4, dlq.SeverityLow},
		{"retry escalation at threshold", "some_transient_error", 5, dlq.SeverityMedium},
		{"retry escalation above threshold", "some_transient_error", 9, dlq.SeverityMedium},
		{"marker wins over escalation", "authorization_error", 9, dlq.SeverityHigh},
		{"empty type", "", 0, dlq.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := dlq.FailureContext{ErrorType: tt.errType, ErrorMessage: "x", RetryCount: tt.retries}
			if got := class.Severity(fc); got != tt.want {
				t.Errorf("Severity(%q, retries=%d) = %v, want %v", tt.errType, tt.retries, got, tt.want)
			}
		})
	}
}

func TestClassification_CustomMarkers(t *testing.T) {
	class := dlq.Classification{
		HighSeverity:    []string{"meltdown"},
		RetryEscalation: 0, // disabled
	}

	fc := dlq.FailureContext{ErrorType: "meltdown imminent", ErrorMessage: "x"}
	if got := class.Severity(fc); got != dlq.SeverityHigh {
		t.Errorf("custom high marker: got %v, want %v", got, dlq.SeverityHigh)
	}

	fc = dlq.FailureContext{ErrorType: "whatever", ErrorMessage: "x", RetryCount: 50}
	if got := class.Severity(fc); got != dlq.SeverityLow {
		t.Errorf("disabled escalation: got %v, want %v", got, dlq.SeverityLow)
	}
}

// ──────────────────────────────────────────────────
// Recovery priority
// ──────────────────────────────────────────────────

func TestRecoveryPriority(t *testing.T) {
	tests := []struct {
		name string
		sev  dlq.Severity
		typ  job.Type
		want dlq.Priority
	}{
		{"high severity is always urgent", dlq.SeverityHigh, job.TypeBatchTranscribe, dlq.PriorityUrgent},
		{"high severity realtime", dlq.SeverityHigh, job.TypeSingleVideoFetch, dlq.PriorityUrgent},
		{"medium realtime", dlq.SeverityMedium, job.TypeChannelScrape, dlq.PriorityHigh},
		{"medium batch", dlq.SeverityMedium, job.TypeBatchSummarize, dlq.PriorityLow},
		{"low realtime", dlq.SeverityLow, job.TypeSingleTranscribe, dlq.PriorityMedium},
		{"low batch", dlq.SeverityLow, job.TypeBatchTranscribe, dlq.PriorityLow},
		{"low unknown", dlq.SeverityLow, job.TypeUnknown, dlq.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dlq.RecoveryPriority(tt.sev, tt.typ); got != tt.want {
				t.Errorf("RecoveryPriority(%v, %v) = %v, want %v", tt.sev, tt.typ, got, tt.want)
			}
		})
	}
}

func TestPriorityRank_Ordering(t *testing.T) {
	order := []dlq.Priority{dlq.PriorityLow, dlq.PriorityMedium, dlq.PriorityHigh, dlq.PriorityUrgent}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%v should rank above %v", order[i], order[i-1])
		}
	}
}

// ──────────────────────────────────────────────────
// Triage metadata
// ──────────────────────────────────────────────────

func TestBuildMetadata_ChannelScrape(t *testing.T) {
	cfg := dlq.DefaultMetadataConfig()
	inputs := map[string]any{"channels": []string{"creator-a", "creator-b", "creator-c"}}

	meta := dlq.BuildMetadata(cfg, job.TypeChannelScrape, inputs)

	if got := meta["channel_count"]; got != 3 {
		t.Errorf("channel_count = %v, want 3", got)
	}
	if got := meta["estimated_quota_units"]; got != 300 {
		t.Errorf("estimated_quota_units = %v, want 300", got)
	}
	if got, ok := meta["target_channels"].([]string); !ok || len(got) != 3 {
		t.Errorf("target_channels = %v, want three channels", meta["target_channels"])
	}
}

func TestBuildMetadata_SingleVideoFetch(t *testing.T) {
	cfg := dlq.DefaultMetadataConfig()
	// []any form, as decoded JSON delivers it.
	inputs := map[string]any{"video_ids": []any{"v1", "v2"}}

	meta := dlq.BuildMetadata(cfg, job.TypeSingleVideoFetch, inputs)

	if got := meta["video_count"]; got != 2 {
		t.Errorf("video_count = %v, want 2", got)
	}
	if got := meta["estimated_quota_units"]; got != 2 {
		t.Errorf("estimated_quota_units = %v, want 2", got)
	}
}

func TestBuildMetadata_TranscribeCostRounding(t *testing.T) {
	cfg := dlq.DefaultMetadataConfig()
	inputs := map[string]any{"video_ids": []string{"v1", "v2", "v3"}}

	// Single: 3 × $0.65 rounds to cents.
	meta := dlq.BuildMetadata(cfg, job.TypeSingleTranscribe, inputs)
	if got := meta["estimated_cost_usd"]; got != 1.95 {
		t.Errorf("single estimated_cost_usd = %v, want 1.95", got)
	}

	// Batch estimates carry doubled granularity: half-cent steps.
	odd := cfg
	odd.PerVideoRateUSD = 0.333
	one := map[string]any{"video_id": "v1"}

	meta = dlq.BuildMetadata(odd, job.TypeSingleTranscribe, one)
	if got := meta["estimated_cost_usd"]; got != 0.33 {
		t.Errorf("single odd-rate cost = %v, want 0.33", got)
	}
	meta = dlq.BuildMetadata(odd, job.TypeBatchTranscribe, one)
	if got := meta["estimated_cost_usd"]; got != 0.335 {
		t.Errorf("batch odd-rate cost = %v, want 0.335", got)
	}
}

func TestBuildMetadata_SummarizePlatformDefault(t *testing.T) {
	cfg := dlq.DefaultMetadataConfig()

	// No platforms named: default applies.
	meta := dlq.BuildMetadata(cfg, job.TypeSingleSummarize, map[string]any{"video_id": "v1"})
	if got, ok := meta["target_platforms"].([]string); !ok || !reflect.DeepEqual(got, []string{"slack"}) {
		t.Errorf("target_platforms = %v, want [slack]", meta["target_platforms"])
	}

	// Named platforms pass through.
	meta = dlq.BuildMetadata(cfg, job.TypeBatchSummarize, map[string]any{
		"video_ids":        []string{"v1", "v2"},
		"target_platforms": []string{"notion", "slack"},
	})
	if got, ok := meta["target_platforms"].([]string); !ok || !reflect.DeepEqual(got, []string{"notion", "slack"}) {
		t.Errorf("target_platforms = %v, want [notion slack]", meta["target_platforms"])
	}
}

func TestBuildMetadata_UnknownTypeFallback(t *testing.T) {
	meta := dlq.BuildMetadata(dlq.DefaultMetadataConfig(), job.TypeUnknown, nil)
	if got := meta["job_type"]; got != "unknown" {
		t.Errorf("job_type = %v, want unknown", got)
	}
	if _, ok := meta["note"]; !ok {
		t.Error("fallback metadata should carry a note")
	}
}

func TestBuildMetadata_MissingInputsDegrade(t *testing.T) {
	// Nil inputs must not panic and must produce zero-valued metadata.
	meta := dlq.BuildMetadata(dlq.DefaultMetadataConfig(), job.TypeChannelScrape, nil)
	if got := meta["channel_count"]; got != 0 {
		t.Errorf("channel_count = %v, want 0", got)
	}
	if got := meta["estimated_quota_units"]; got != 0 {
		t.Errorf("estimated_quota_units = %v, want 0", got)
	}
}

// ──────────────────────────────────────────────────
// Route
// ──────────────────────────────────────────────────

func TestRouter_Route_BuildsEntry(t *testing.T) {
	r, s := newTestRouter()
	ctx := context.Background()

	req := routeReq("job-1", "single_transcribe", "quota_exceeded")
	req.Failure.Inputs = map[string]any{"video_id": "v1"}
	req.Hints = map[string]string{"note": "retry after reset"}

	res, err := r.Route(ctx, req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Status != dlq.RouteStatusRouted {
		t.Fatalf("Status = %v, want %v", res.Status, dlq.RouteStatusRouted)
	}

	entry := res.Entry
	if entry.JobID != "job-1" {
		t.Errorf("JobID = %q, want %q", entry.JobID, "job-1")
	}
	if entry.JobType != job.TypeSingleTranscribe {
		t.Errorf("JobType = %v, want %v", entry.JobType, job.TypeSingleTranscribe)
	}
	if entry.Severity != dlq.SeverityMedium {
		t.Errorf("Severity = %v, want %v", entry.Severity, dlq.SeverityMedium)
	}
	// Medium severity on a realtime type bumps to high priority.
	if entry.Priority != dlq.PriorityHigh {
		t.Errorf("Priority = %v, want %v", entry.Priority, dlq.PriorityHigh)
	}
	if entry.Attempts != 3 {
		t.Errorf("Attempts = %d, want retry count + 1 = 3", entry.Attempts)
	}
	if entry.RoutedAt.IsZero() {
		t.Error("expected RoutedAt to be set")
	}
	if entry.Hints["note"] != "retry after reset" {
		t.Errorf("Hints = %v, want the request hints", entry.Hints)
	}
	if got := entry.Metadata["estimated_cost_usd"]; got != 0.65 {
		t.Errorf("Metadata[estimated_cost_usd] = %v, want 0.65", got)
	}

	// The entry is durably stored and findable by job ID.
	stored, err := s.GetDeadLetterByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetDeadLetterByJobID: %v", err)
	}
	if stored.ID != entry.ID {
		t.Errorf("stored entry %v, want %v", stored.ID, entry.ID)
	}
}

func TestRouter_Route_Validation(t *testing.T) {
	r, _ := newTestRouter()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dlq.RouteRequest
		wantErr error
	}{
		{
			name:    "missing job id",
			req:     routeReq("", "channel_scrape", "timeout"),
			wantErr: vigil.ErrMissingJobID,
		},
		{
			name:    "blank job id",
			req:     routeReq("   ", "channel_scrape", "timeout"),
			wantErr: vigil.ErrMissingJobID,
		},
		{
			name: "missing error type",
			req: dlq.RouteRequest{
				JobID:   "job-1",
				JobType: "channel_scrape",
				Failure: dlq.FailureContext{ErrorMessage: "boom"},
			},
			wantErr: vigil.ErrMissingFailureContext,
		},
		{
			name: "missing error message",
			req: dlq.RouteRequest{
				JobID:   "job-1",
				JobType: "channel_scrape",
				Failure: dlq.FailureContext{ErrorType: "timeout"},
			},
			wantErr: vigil.ErrMissingFailureContext,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Route(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRouter_Route_CleanupDeletesActiveRecord(t *testing.T) {
	r, s := newTestRouter()
	ctx := context.Background()

	active := &job.Job{
		Entity: vigil.NewEntity(),
		ID:     "job-1",
		Type:   job.TypeChannelScrape,
		Status: job.StatusFailed,
	}
	if err := s.PutJob(ctx, active); err != nil {
		t.Fatalf("PutJob: %v", err)
	}

	res, err := r.Route(ctx, routeReq("job-1", "channel_scrape", "timeout"))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Cleanup != dlq.CleanupDeleted {
		t.Errorf("Cleanup = %v, want %v", res.Cleanup, dlq.CleanupDeleted)
	}
	if _, err := s.GetJob(ctx, job.TypeChannelScrape, "job-1"); !errors.Is(err, vigil.ErrJobNotFound) {
		t.Errorf("active record should be deleted, got %v", err)
	}
}

func TestRouter_Route_CleanupSkippedWithoutActiveRecord(t *testing.T) {
	r, _ := newTestRouter()
	ctx := context.Background()

	res, err := r.Route(ctx, routeReq("orphan", "channel_scrape", "timeout"))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Cleanup != dlq.CleanupSkipped {
		t.Errorf("Cleanup = %v, want %v", res.Cleanup, dlq.CleanupSkipped)
	}
}

func TestRouter_Route_Idempotent(t *testing.T) {
	r, s := newTestRouter()
	ctx := context.Background()

	first, err := r.Route(ctx, routeReq("job-1", "single_video_fetch", "timeout"))
	if err != nil {
		t.Fatalf("first Route: %v", err)
	}

	// A fresh active record appears, then the same job is routed again.
	// The duplicate must short-circuit without touching the new record.
	replacement := &job.Job{
		Entity: vigil.NewEntity(),
		ID:     "job-1",
		Type:   job.TypeSingleVideoFetch,
		Status: job.StatusProcessing,
	}
	if err := s.PutJob(ctx, replacement); err != nil {
		t.Fatalf("PutJob: %v", err)
	}

	second, err := r.Route(ctx, routeReq("job-1", "single_video_fetch", "timeout"))
	if err != nil {
		t.Fatalf("second Route: %v", err)
	}
	if second.Status != dlq.RouteStatusAlreadyExists {
		t.Fatalf("Status = %v, want %v", second.Status, dlq.RouteStatusAlreadyExists)
	}
	if second.Cleanup != dlq.CleanupNone {
		t.Errorf("Cleanup = %v, want %v", second.Cleanup, dlq.CleanupNone)
	}
	if second.Entry.ID != first.Entry.ID {
		t.Errorf("duplicate route returned entry %v, want original %v", second.Entry.ID, first.Entry.ID)
	}
	if _, err := s.GetJob(ctx, job.TypeSingleVideoFetch, "job-1"); err != nil {
		t.Errorf("replacement record must survive a duplicate route: %v", err)
	}

	// Exactly one entry in the collection.
	count, err := s.CountDeadLetters(ctx, dlq.CountOpts{})
	if err != nil {
		t.Fatalf("CountDeadLetters: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestRouter_Route_UnknownTypeDegrades(t *testing.T) {
	r, _ := newTestRouter()
	ctx := context.Background()

	res, err := r.Route(ctx, routeReq("job-1", "mystery-operation", "timeout"))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Entry.JobType != job.TypeUnknown {
		t.Errorf("JobType = %v, want %v", res.Entry.JobType, job.TypeUnknown)
	}
	if _, ok := res.Entry.Metadata["note"]; !ok {
		t.Error("unknown type should carry fallback metadata")
	}
}

func TestRouter_Route_NormalizesTypeSpelling(t *testing.T) {
	r, _ := newTestRouter()
	ctx := context.Background()

	res, err := r.Route(ctx, routeReq("job-1", "Channel-Scrape", "timeout"))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Entry.JobType != job.TypeChannelScrape {
		t.Errorf("JobType = %v, want %v", res.Entry.JobType, job.TypeChannelScrape)
	}
}

func TestRouter_Route_FiresHook(t *testing.T) {
	rec := &hookRecorder{}
	r, _ := newTestRouter(dlq.WithHooks(rec))
	ctx := context.Background()

	if _, err := r.Route(ctx, routeReq("job-1", "channel_scrape", "timeout")); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(rec.entries))
	}

	// Duplicate routes do not re-fire the hook.
	if _, err := r.Route(ctx, routeReq("job-1", "channel_scrape", "timeout")); err != nil {
		t.Fatalf("duplicate Route: %v", err)
	}
	if len(rec.entries) != 1 {
		t.Errorf("hook fired %d times after duplicate, want 1", len(rec.entries))
	}

	if _, err := r.Replay(ctx, rec.entries[0].ID); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(rec.replayed) != 1 || rec.replayed[0] != "job-1" {
		t.Errorf("replay hook saw %v, want [job-1]", rec.replayed)
	}
}

// ──────────────────────────────────────────────────
// Exists / Replay
// ──────────────────────────────────────────────────

func TestRouter_Exists(t *testing.T) {
	r, _ := newTestRouter()
	ctx := context.Background()

	ok, err := r.Exists(ctx, "job-1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists = true before routing")
	}

	if _, err := r.Route(ctx, routeReq("job-1", "channel_scrape", "timeout")); err != nil {
		t.Fatalf("Route: %v", err)
	}

	ok, err = r.Exists(ctx, "job-1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("Exists = false after routing")
	}
}

func TestRouter_Replay(t *testing.T) {
	r, s := newTestRouter()
	ctx := context.Background()

	req := routeReq("job-1", "single_summarize", "dependency_unavailable")
	req.Failure.Inputs = map[string]any{"video_id": "v1", "target_platforms": []string{"slack"}}

	res, err := r.Route(ctx, req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	j, err := r.Replay(ctx, res.Entry.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if j.ID != "job-1" {
		t.Errorf("replayed job ID = %q, want %q", j.ID, "job-1")
	}
	if j.Status != job.StatusQueued {
		t.Errorf("replayed status = %v, want %v", j.Status, job.StatusQueued)
	}
	if j.RetryCount != 0 {
		t.Errorf("replayed retry count = %d, want 0", j.RetryCount)
	}
	if j.Inputs["video_id"] != "v1" {
		t.Errorf("replayed inputs = %v, want the captured inputs", j.Inputs)
	}

	// The active record is back in its collection.
	stored, err := s.GetJob(ctx, job.TypeSingleSummarize, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.Status != job.StatusQueued {
		t.Errorf("stored status = %v, want %v", stored.Status, job.StatusQueued)
	}

	// The entry is kept, stamped as replayed.
	entry, err := s.GetDeadLetter(ctx, res.Entry.ID)
	if err != nil {
		t.Fatalf("GetDeadLetter: %v", err)
	}
	if entry.ReplayedAt == nil {
		t.Error("expected ReplayedAt to be set")
	}
}

func TestRouter_Replay_NotFound(t *testing.T) {
	r, _ := newTestRouter()

	_, err := r.Replay(context.Background(), id.NewDeadLetterID())
	if !errors.Is(err, vigil.ErrDeadLetterNotFound) {
		t.Fatalf("expected ErrDeadLetterNotFound, got %v", err)
	}
}

func TestRouter_RoutedAtIsUTC(t *testing.T) {
	r, _ := newTestRouter()

	res, err := r.Route(context.Background(), routeReq("job-1", "channel_scrape", "timeout"))
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.Entry.RoutedAt.Location() != time.UTC {
		t.Errorf("RoutedAt location = %v, want UTC", res.Entry.RoutedAt.Location())
	}
}
