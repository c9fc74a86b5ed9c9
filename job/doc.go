// Package job defines the active job records Vigil watches: the closed job
// type enumeration, the job entity, and the store interface.
//
// # Job Entity
//
// A [Job] is a unit of pipeline work written by an upstream producer agent.
// Vigil never executes jobs; it reads them to detect staleness and deletes
// them when routing to the dead letter collection. Records are keyed by a
// producer-assigned ID, unique within the collection for their type, and
// live in one collection per type ("jobs_channel_scrape",
// "jobs_single_transcribe", ...).
//
// # Job Types
//
// [Type] is a closed enumeration. [ParseType] maps any unrecognized string
// to [TypeUnknown] rather than failing, so records written by newer
// producers degrade to generic handling instead of breaking a sweep. Each
// type carries a profile: its collection name, whether it belongs to the
// latency-sensitive realtime class, and whether it is a batch variant.
//
// # Status
//
// Status values are produced upstream; Vigil only needs to know which ones
// are terminal. Terminal records are never flagged as stuck.
package job
