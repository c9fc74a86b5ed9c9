package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/store"
	"github.com/raynmakers/vigil/video"
)

var _ store.Store = (*Store)(nil)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu sync.RWMutex

	jobs     map[job.Type]map[string]*job.Job
	videos   map[string]*video.Video
	dlqs     map[string]*dlq.Entry
	dlqByJob map[string]string // original job ID -> entry ID

	// created is an append-only ledger of creation timestamps per
	// collection. Quota usage counts documents created in a window, which
	// must survive later deletion of the document itself.
	created map[string][]time.Time
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:     make(map[job.Type]map[string]*job.Job),
		videos:   make(map[string]*video.Video),
		dlqs:     make(map[string]*dlq.Entry),
		dlqByJob: make(map[string]string),
		created:  make(map[string][]time.Time),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Job Store
// ──────────────────────────────────────────────────

// PutJob inserts or replaces an active job record in its type's collection.
// Zero timestamps are stamped with the current time so hand-built records
// remain valid; caller-supplied timestamps are preserved.
func (m *Store) PutJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *j
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}

	byID, ok := m.jobs[cp.Type]
	if !ok {
		byID = make(map[string]*job.Job)
		m.jobs[cp.Type] = byID
	}
	if _, exists := byID[cp.ID]; !exists {
		m.appendCreatedLocked(cp.Type.Collection(), cp.CreatedAt)
	}
	byID[cp.ID] = &cp
	return nil
}

// GetJob retrieves an active job by type and producer-assigned ID.
func (m *Store) GetJob(_ context.Context, typ job.Type, jobID string) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[typ][jobID]
	if !ok {
		return nil, vigil.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// DeleteJob removes an active job record.
func (m *Store) DeleteJob(_ context.Context, typ job.Type, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[typ][jobID]; !ok {
		return vigil.ErrJobNotFound
	}
	delete(m.jobs[typ], jobID)
	return nil
}

// ListStaleJobs returns non-terminal jobs of the given type whose UpdatedAt
// is at or before cutoff, oldest first, capped at limit.
func (m *Store) ListStaleJobs(_ context.Context, typ job.Type, cutoff time.Time, limit int) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.jobs[typ]))
	for _, j := range m.jobs[typ] {
		if j.Status.Terminal() {
			continue
		}
		if j.UpdatedAt.After(cutoff) {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].UpdatedAt.Before(result[k].UpdatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountJobs returns the number of active jobs of the given type.
func (m *Store) CountJobs(_ context.Context, typ job.Type) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.jobs[typ])), nil
}

// ──────────────────────────────────────────────────
// Video Store
// ──────────────────────────────────────────────────

// PutVideo inserts or replaces a video record.
func (m *Store) PutVideo(_ context.Context, v *video.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *v
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}

	if _, exists := m.videos[cp.ID]; !exists {
		m.appendCreatedLocked(video.Collection, cp.CreatedAt)
	}
	m.videos[cp.ID] = &cp
	return nil
}

// GetVideo retrieves a video by platform ID.
func (m *Store) GetVideo(_ context.Context, videoID string) (*video.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.videos[videoID]
	if !ok {
		return nil, vigil.ErrVideoNotFound
	}
	cp := *v
	return &cp, nil
}

// ListStaleVideos returns non-terminal videos whose UpdatedAt is at or
// before cutoff, oldest first, capped at limit.
func (m *Store) ListStaleVideos(_ context.Context, cutoff time.Time, limit int) ([]*video.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*video.Video, 0, len(m.videos))
	for _, v := range m.videos {
		if v.Status.Terminal() {
			continue
		}
		if v.UpdatedAt.After(cutoff) {
			continue
		}
		cp := *v
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].UpdatedAt.Before(result[k].UpdatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountVideos returns the number of video records.
func (m *Store) CountVideos(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.videos)), nil
}

// ──────────────────────────────────────────────────
// DLQ Store
// ──────────────────────────────────────────────────

// RouteDeadLetter persists the entry and removes the active job record for
// the same job ID, as one atomic batch under the store lock.
func (m *Store) RouteDeadLetter(_ context.Context, entry *dlq.Entry) (dlq.CleanupStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.dlqByJob[entry.JobID]; exists {
		return dlq.CleanupNone, vigil.ErrDeadLetterExists
	}

	cp := *entry
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	m.dlqs[cp.ID.String()] = &cp
	m.dlqByJob[cp.JobID] = cp.ID.String()
	m.appendCreatedLocked(dlq.Collection, cp.CreatedAt)

	if _, ok := m.jobs[entry.JobType][entry.JobID]; ok {
		delete(m.jobs[entry.JobType], entry.JobID)
		return dlq.CleanupDeleted, nil
	}
	return dlq.CleanupSkipped, nil
}

// GetDeadLetter retrieves an entry by ID.
func (m *Store) GetDeadLetter(_ context.Context, entryID id.DeadLetterID) (*dlq.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.dlqs[entryID.String()]
	if !ok {
		return nil, vigil.ErrDeadLetterNotFound
	}
	cp := *e
	return &cp, nil
}

// GetDeadLetterByJobID retrieves the entry for an original job ID.
func (m *Store) GetDeadLetterByJobID(_ context.Context, jobID string) (*dlq.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entryID, ok := m.dlqByJob[jobID]
	if !ok {
		return nil, vigil.ErrDeadLetterNotFound
	}
	cp := *m.dlqs[entryID]
	return &cp, nil
}

// ListDeadLetters returns entries matching the given options, most recently
// routed first.
func (m *Store) ListDeadLetters(_ context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*dlq.Entry, 0, len(m.dlqs))
	for _, e := range m.dlqs {
		if opts.JobType != "" && e.JobType != opts.JobType {
			continue
		}
		if opts.Severity != "" && e.Severity != opts.Severity {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].RoutedAt.After(result[k].RoutedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// MarkReplayed stamps ReplayedAt on an entry.
func (m *Store) MarkReplayed(_ context.Context, entryID id.DeadLetterID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.dlqs[entryID.String()]
	if !ok {
		return vigil.ErrDeadLetterNotFound
	}
	now := time.Now().UTC()
	e.ReplayedAt = &now
	e.UpdatedAt = now
	return nil
}

// PurgeDeadLetters removes entries routed before the given time.
func (m *Store) PurgeDeadLetters(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for key, e := range m.dlqs {
		if e.RoutedAt.Before(before) {
			delete(m.dlqs, key)
			delete(m.dlqByJob, e.JobID)
			count++
		}
	}
	return count, nil
}

// CountDeadLetters returns the number of entries matching the options.
func (m *Store) CountDeadLetters(_ context.Context, opts dlq.CountOpts) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, e := range m.dlqs {
		if opts.JobType != "" && e.JobType != opts.JobType {
			continue
		}
		if opts.Severity != "" && e.Severity != opts.Severity {
			continue
		}
		count++
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Quota usage
// ──────────────────────────────────────────────────

// CountCreatedSince counts documents created in the collection at or after
// since. Deleted documents still count; the ledger is append-only.
func (m *Store) CountCreatedSince(_ context.Context, collection string, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, t := range m.created[collection] {
		if !t.Before(since) {
			count++
		}
	}
	return count, nil
}

// SeedCreated records creation timestamps for a collection so quota usage
// queries see them. Intended for tests and development seeding of
// collections no subsystem writes, such as "transcripts".
func (m *Store) SeedCreated(collection string, times ...time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range times {
		m.appendCreatedLocked(collection, t)
	}
}

func (m *Store) appendCreatedLocked(collection string, t time.Time) {
	m.created[collection] = append(m.created[collection], t.UTC())
}
