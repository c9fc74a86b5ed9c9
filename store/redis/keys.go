package redis

// Redis key naming conventions for vigil data.
// All keys are prefixed with "vigil:" to avoid collisions.

const keyPrefix = "vigil:"

// ── Record keys ──

// jobKey returns the key for a job record: vigil:job:{collection}:{id}
func jobKey(collection, jobID string) string {
	return keyPrefix + "job:" + collection + ":" + jobID
}

// videoKey returns the key for a video record: vigil:video:{id}
func videoKey(videoID string) string { return keyPrefix + "video:" + videoID }

// dlqKey returns the key for a dead letter entry: vigil:dlq:{id}
func dlqKey(entryID string) string { return keyPrefix + "dlq:" + entryID }

// ── Index keys ──

// idsKey is the Set tracking record IDs per collection for counting.
func idsKey(collection string) string { return keyPrefix + "ids:" + collection }

// staleKey is the Sorted Set of non-terminal record IDs per collection,
// scored by updated_at. Terminal records are removed so stale range
// queries never see them.
func staleKey(collection string) string { return keyPrefix + "stale:" + collection }

// createdKey is the Sorted Set of record IDs per collection, scored by
// created_at. Entries are added with NX and never removed, so usage
// counting survives later deletion of the record itself.
func createdKey(collection string) string { return keyPrefix + "created:" + collection }

// dlqRoutedKey is the Sorted Set of dead letter entry IDs scored by routed_at.
const dlqRoutedKey = keyPrefix + "dlq_routed"

// dlqJobIndexKey maps original job IDs to entry IDs for duplicate detection.
const dlqJobIndexKey = keyPrefix + "dlq_jobs"
