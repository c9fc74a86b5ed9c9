package job

import (
	"strings"

	"github.com/raynmakers/vigil"
)

// Type identifies the kind of pipeline work a job performs. The set is
// closed: ParseType maps anything unrecognized to TypeUnknown.
type Type string

const (
	// TypeSingleVideoFetch fetches metadata for one video from the platform API.
	TypeSingleVideoFetch Type = "single_video_fetch"
	// TypeChannelScrape discovers recent videos across one or more channels.
	TypeChannelScrape Type = "channel_scrape"
	// TypeSingleTranscribe transcribes one video.
	TypeSingleTranscribe Type = "single_transcribe"
	// TypeBatchTranscribe transcribes a batch of videos in one submission.
	TypeBatchTranscribe Type = "batch_transcribe"
	// TypeSingleSummarize summarizes one transcript.
	TypeSingleSummarize Type = "single_summarize"
	// TypeBatchSummarize summarizes a batch of transcripts.
	TypeBatchSummarize Type = "batch_summarize"
	// TypeUnknown is the fallback for unrecognized type strings.
	TypeUnknown Type = "unknown"
)

// typeProfile describes the fixed attributes of a job type.
type typeProfile struct {
	collection string
	realtime   bool
	batch      bool
}

// typeProfiles drives parsing, collection naming, the latency class, and
// batch handling. TypeUnknown deliberately has no entry; its profile is
// synthesized so new entries here cannot be forgotten in lookups.
var typeProfiles = map[Type]typeProfile{
	TypeSingleVideoFetch: {collection: "jobs_single_video_fetch", realtime: true},
	TypeChannelScrape:    {collection: "jobs_channel_scrape", realtime: true},
	TypeSingleTranscribe: {collection: "jobs_single_transcribe", realtime: true},
	TypeBatchTranscribe:  {collection: "jobs_batch_transcribe", batch: true},
	TypeSingleSummarize:  {collection: "jobs_single_summarize", realtime: true},
	TypeBatchSummarize:   {collection: "jobs_batch_summarize", batch: true},
}

// unknownProfile is returned for TypeUnknown and any type missing from
// typeProfiles.
var unknownProfile = typeProfile{collection: "jobs_unknown"}

// ParseType normalizes a raw type string into a Type. Unrecognized values
// map to TypeUnknown; ParseType never fails.
func ParseType(s string) Type {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	t := Type(normalized)
	if _, ok := typeProfiles[t]; ok {
		return t
	}

	return TypeUnknown
}

// AllTypes returns the concrete job types in stable order, excluding
// TypeUnknown. Sweeps iterate this list to cover every job collection.
func AllTypes() []Type {
	return []Type{
		TypeSingleVideoFetch,
		TypeChannelScrape,
		TypeSingleTranscribe,
		TypeBatchTranscribe,
		TypeSingleSummarize,
		TypeBatchSummarize,
	}
}

func (t Type) profile() typeProfile {
	if p, ok := typeProfiles[t]; ok {
		return p
	}

	return unknownProfile
}

// Collection returns the store collection name for this job type.
func (t Type) Collection() string { return t.profile().collection }

// Realtime reports whether the type belongs to the latency-sensitive class
// (single-item fetch, scrape, transcribe, summarize).
func (t Type) Realtime() bool { return t.profile().realtime }

// Batch reports whether the type is a batch variant.
func (t Type) Batch() bool { return t.profile().batch }

// String returns the wire representation of the type.
func (t Type) String() string { return string(t) }

// Status is the producer-assigned lifecycle status of a job. Values are
// open-ended; Vigil only distinguishes terminal from non-terminal.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusRetrying   Status = "retrying"
	StatusFailed     Status = "failed"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status ends a job's lifecycle. Failed is not
// terminal here: a failed job that was never dead-letter routed is exactly
// the kind of record a scan must flag.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Job represents an active pipeline job record in the shared store.
type Job struct {
	vigil.Entity

	ID         string         `json:"job_id"`
	Type       Type           `json:"job_type"`
	Status     Status         `json:"status"`
	RetryCount int            `json:"retry_count"`
	Inputs     map[string]any `json:"inputs,omitempty"`
}
