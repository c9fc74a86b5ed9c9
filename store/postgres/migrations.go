package postgres

// migration is one named, ordered schema change. Statements run
// sequentially; a migration is recorded only after all of them succeed.
type migration struct {
	name       string
	statements []string
}

// migrations is the ordered schema history. Append only -- never edit an
// entry that has shipped.
var migrations = []migration{
	{
		name: "001_create_pipeline_jobs",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS pipeline_jobs (
				job_id       TEXT NOT NULL,
				job_type     TEXT NOT NULL,
				status       TEXT NOT NULL DEFAULT 'queued',
				retry_count  INTEGER NOT NULL DEFAULT 0,
				inputs       JSONB,
				created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (job_type, job_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_pipeline_jobs_stale
				ON pipeline_jobs (job_type, updated_at)
				WHERE status NOT IN ('completed', 'cancelled')`,
			`CREATE INDEX IF NOT EXISTS idx_pipeline_jobs_created
				ON pipeline_jobs (job_type, created_at)`,
		},
	},
	{
		name: "002_create_videos",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS videos (
				video_id   TEXT PRIMARY KEY,
				platform   TEXT NOT NULL DEFAULT '',
				title      TEXT NOT NULL DEFAULT '',
				channel    TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL DEFAULT 'discovered',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_videos_stale
				ON videos (updated_at)
				WHERE status NOT IN ('indexed', 'failed')`,
			`CREATE INDEX IF NOT EXISTS idx_videos_created
				ON videos (created_at)`,
		},
	},
	{
		name: "003_create_dead_letters",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS dead_letters (
				id                  TEXT PRIMARY KEY,
				job_id              TEXT NOT NULL UNIQUE,
				job_type            TEXT NOT NULL,
				severity            TEXT NOT NULL,
				recovery_priority   TEXT NOT NULL,
				error_type          TEXT NOT NULL,
				error_message       TEXT NOT NULL,
				retry_count         INTEGER NOT NULL DEFAULT 0,
				last_attempt_at     TIMESTAMPTZ,
				inputs              JSONB,
				metadata            JSONB,
				recovery_hints      JSONB,
				routed_at           TIMESTAMPTZ NOT NULL,
				processing_attempts INTEGER NOT NULL DEFAULT 0,
				replayed_at         TIMESTAMPTZ,
				created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_dead_letters_routed
				ON dead_letters (routed_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_dead_letters_type_severity
				ON dead_letters (job_type, severity)`,
		},
	},
	{
		// The transcript writers are pipeline components, not vigil, but a
		// postgres deployment needs the table to exist for quota usage
		// counting to work.
		name: "004_create_transcripts",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS transcripts (
				video_id   TEXT PRIMARY KEY,
				provider   TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transcripts_created
				ON transcripts (created_at)`,
		},
	},
}
