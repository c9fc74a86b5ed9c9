// Package video defines the video work-item records the pipeline moves
// through discovery, transcription, summarization, and indexing, plus the
// store interface Vigil uses to watch them.
//
// Records are keyed by the platform's video ID and live in the "videos"
// collection. Vigil treats the status lifecycle as a progress signal only:
// a record sitting in a non-terminal status past the staleness threshold is
// stuck, whatever the producers were doing with it.
package video
