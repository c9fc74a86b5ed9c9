package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/video"
)

// Config holds scanner defaults. Request fields override per sweep.
type Config struct {
	// StalenessThreshold is the default age at which a record is stale.
	StalenessThreshold time.Duration

	// CriticalThreshold is the default age at which a record is critical.
	CriticalThreshold time.Duration

	// ReadLimit caps how many records one sweep reads per collection.
	ReadLimit int

	// Concurrency bounds parallel collection reads.
	Concurrency int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StalenessThreshold: 24 * time.Hour,
		CriticalThreshold:  72 * time.Hour,
		ReadLimit:          500,
		Concurrency:        4,
	}
}

// Hooks receives scanner lifecycle notifications.
type Hooks interface {
	EmitScanCompleted(ctx context.Context, res *Result)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithConfig replaces the scanner defaults.
func WithConfig(cfg Config) Option {
	return func(s *Scanner) { s.cfg = cfg }
}

// WithHooks sets the lifecycle hook sink.
func WithHooks(h Hooks) Option {
	return func(s *Scanner) { s.hooks = h }
}

// WithNow overrides the clock. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// Scanner sweeps the job and video collections for records that stopped
// making progress.
type Scanner struct {
	jobs   job.Store
	videos video.Store
	router *dlq.Router
	logger *slog.Logger
	cfg    Config
	hooks  Hooks
	now    func() time.Time
}

// NewScanner creates a Scanner. The router is used for critical
// escalations.
func NewScanner(jobs job.Store, videos video.Store, router *dlq.Router, opts ...Option) *Scanner {
	s := &Scanner{
		jobs:   jobs,
		videos: videos,
		router: router,
		logger: slog.Default(),
		cfg:    DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Request describes one sweep. Zero thresholds fall back to the scanner's
// configured defaults.
type Request struct {
	Staleness              time.Duration
	Critical               time.Duration
	IncludeStatusBreakdown bool
	EscalateCritical       bool
}

// Scan sweeps every job collection and the video collection, classifies
// aged records, diagnoses causes, and optionally escalates critical jobs to
// the dead letter collection. All reads complete before any escalation
// write starts, so a failed sweep leaves no partial side effects.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	staleness := req.Staleness
	if staleness == 0 {
		staleness = s.cfg.StalenessThreshold
	}
	critical := req.Critical
	if critical == 0 {
		critical = s.cfg.CriticalThreshold
	}
	if staleness <= 0 || critical <= 0 {
		return nil, fmt.Errorf("vigil/scan: %w: thresholds must be positive", vigil.ErrInvalidThreshold)
	}
	if critical < staleness {
		return nil, fmt.Errorf("vigil/scan: %w: critical %s below staleness %s",
			vigil.ErrInvalidThreshold, critical, staleness)
	}

	started := time.Now()
	now := s.now().UTC()
	cutoff := now.Add(-staleness)

	records, err := s.readStale(ctx, now, cutoff, staleness, critical)
	if err != nil {
		return nil, err
	}

	// Oldest first, then by collection and ID for a stable order.
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.Before(records[j].UpdatedAt)
		}
		if records[i].Collection != records[j].Collection {
			return records[i].Collection < records[j].Collection
		}

		return records[i].ID < records[j].ID
	})

	analysis := BuildAnalysis(records)
	thresholds := Thresholds{Staleness: staleness, Critical: critical}

	res := &Result{
		ScanID:          id.NewScanID(),
		StartedAt:       now,
		Thresholds:      thresholds,
		TotalStuck:      len(records),
		StaleCount:      analysis.ByState[StateStale],
		CriticalCount:   analysis.ByState[StateCritical],
		Records:         records,
		Analysis:        analysis,
		Health:          ComputeHealthImpact(analysis.ByState[StateStale], analysis.ByState[StateCritical]),
		Recommendations: BuildRecommendations(analysis, thresholds),
	}

	if req.IncludeStatusBreakdown {
		res.StatusBreakdown = buildStatusBreakdown(records)
	}

	if req.EscalateCritical {
		res.Escalations = s.escalate(ctx, records)
	}

	res.Duration = time.Since(started)

	routed := 0
	for _, esc := range res.Escalations {
		if esc.Routed {
			routed++
		}
	}
	s.logger.Info("stuck record scan completed",
		slog.String("scan_id", res.ScanID.String()),
		slog.Int("total_stuck", res.TotalStuck),
		slog.Int("stale", res.StaleCount),
		slog.Int("critical", res.CriticalCount),
		slog.Int("escalated", routed),
		slog.Duration("duration", res.Duration))

	if s.hooks != nil {
		s.hooks.EmitScanCompleted(ctx, res)
	}

	return res, nil
}

// readStale queries every collection independently and merges the flagged
// records. Any single read failure fails the whole sweep.
func (s *Scanner) readStale(ctx context.Context, now, cutoff time.Time, staleness, critical time.Duration) ([]StuckRecord, error) {
	var (
		mu      sync.Mutex
		records []StuckRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, typ := range job.AllTypes() {
		g.Go(func() error {
			jobs, err := s.jobs.ListStaleJobs(gctx, typ, cutoff, s.cfg.ReadLimit)
			if err != nil {
				return fmt.Errorf("vigil/scan: list %s: %w", typ.Collection(), err)
			}

			flagged := make([]StuckRecord, 0, len(jobs))
			for _, j := range jobs {
				if j.Status.Terminal() {
					continue
				}
				age := now.Sub(j.UpdatedAt)
				flagged = append(flagged, StuckRecord{
					ID:         j.ID,
					Collection: typ.Collection(),
					JobType:    typ,
					Status:     string(j.Status),
					State:      classify(age, critical),
					AgeHours:   age.Hours(),
					RetryCount: j.RetryCount,
					UpdatedAt:  j.UpdatedAt,
					Cause:      Diagnose(typ, string(j.Status), age),
					inputs:     j.Inputs,
				})
			}

			mu.Lock()
			records = append(records, flagged...)
			mu.Unlock()

			return nil
		})
	}

	g.Go(func() error {
		videos, err := s.videos.ListStaleVideos(gctx, cutoff, s.cfg.ReadLimit)
		if err != nil {
			return fmt.Errorf("vigil/scan: list %s: %w", video.Collection, err)
		}

		flagged := make([]StuckRecord, 0, len(videos))
		for _, v := range videos {
			if v.Status.Terminal() {
				continue
			}
			age := now.Sub(v.UpdatedAt)
			flagged = append(flagged, StuckRecord{
				ID:         v.ID,
				Collection: video.Collection,
				Status:     string(v.Status),
				State:      classify(age, critical),
				AgeHours:   age.Hours(),
				UpdatedAt:  v.UpdatedAt,
				Cause:      Diagnose("", string(v.Status), age),
			})
		}

		mu.Lock()
		records = append(records, flagged...)
		mu.Unlock()

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

// classify grades an age that already passed the staleness cutoff.
func classify(age, critical time.Duration) State {
	if age >= critical {
		return StateCritical
	}

	return StateStale
}

// escalate routes every critical job without an existing dead letter entry.
// Videos are progress markers, not retryable work, so they are never
// escalated. Failures are recorded per job and never abort the sweep.
func (s *Scanner) escalate(ctx context.Context, records []StuckRecord) []Escalation {
	var escalations []Escalation

	for _, rec := range records {
		if rec.State != StateCritical || rec.JobType == "" {
			continue
		}

		esc := Escalation{
			JobID:      rec.ID,
			Collection: rec.Collection,
			Cause:      rec.Cause,
			Action:     RecommendedAction(rec.Cause.Category),
		}

		exists, err := s.router.Exists(ctx, rec.ID)
		if err != nil {
			esc.Error = err.Error()
			escalations = append(escalations, esc)
			s.logger.Error("escalation existence check failed",
				slog.String("job_id", rec.ID), slog.String("error", err.Error()))

			continue
		}
		if exists {
			esc.AlreadyRouted = true
			escalations = append(escalations, esc)

			continue
		}

		res, err := s.router.Route(ctx, dlq.RouteRequest{
			JobID:   rec.ID,
			JobType: rec.JobType.String(),
			Failure: dlq.FailureContext{
				ErrorType: escalationErrorType(rec.Cause.Category),
				ErrorMessage: fmt.Sprintf("critical stuck job: %s for %.1f hours (%s)",
					rec.Status, rec.AgeHours, rec.Cause.Detail),
				RetryCount: rec.RetryCount,
				Inputs:     rec.inputs,
			},
			Hints: map[string]string{
				"recommended_action": esc.Action,
				"escalated_by":       "stuck_record_scan",
			},
		})
		if err != nil {
			esc.Error = err.Error()
			s.logger.Error("escalation routing failed",
				slog.String("job_id", rec.ID), slog.String("error", err.Error()))
		} else {
			esc.Routed = res.Status == dlq.RouteStatusRouted
			esc.AlreadyRouted = res.Status == dlq.RouteStatusAlreadyExists
			esc.DLQID = res.Entry.ID
		}

		escalations = append(escalations, esc)
	}

	return escalations
}

func buildStatusBreakdown(records []StuckRecord) map[string]map[string]int {
	breakdown := make(map[string]map[string]int)
	for _, rec := range records {
		byStatus, ok := breakdown[rec.Collection]
		if !ok {
			byStatus = make(map[string]int)
			breakdown[rec.Collection] = byStatus
		}
		byStatus[rec.Status]++
	}

	return breakdown
}
