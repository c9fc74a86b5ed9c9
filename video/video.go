package video

import "github.com/raynmakers/vigil"

// Collection is the store collection holding video records.
const Collection = "videos"

// Status represents a video's position in the processing lifecycle.
type Status string

const (
	// StatusDiscovered means the video was found by a scrape but not yet queued.
	StatusDiscovered Status = "discovered"
	// StatusTranscriptionQueued means the video is waiting for a transcription slot.
	StatusTranscriptionQueued Status = "transcription_queued"
	// StatusTranscribing means a transcription request is in flight.
	StatusTranscribing Status = "transcribing"
	// StatusTranscribed means the transcript is stored.
	StatusTranscribed Status = "transcribed"
	// StatusSummaryQueued means the transcript is waiting for summarization.
	StatusSummaryQueued Status = "summary_queued"
	// StatusSummarizing means a summarization request is in flight.
	StatusSummarizing Status = "summarizing"
	// StatusSummarized means the summary is stored.
	StatusSummarized Status = "summarized"
	// StatusIndexed means the summary reached the search index. Terminal.
	StatusIndexed Status = "indexed"
	// StatusFailed means the pipeline gave up on this video. Terminal.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status ends the video's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// Video represents a video work item in the shared store.
type Video struct {
	vigil.Entity

	ID       string `json:"video_id"`
	Platform string `json:"platform"`
	Title    string `json:"title,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Status   Status `json:"status"`
}
