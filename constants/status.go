package constants

// RunStatus is the canonical status for rows in runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED" // every document extracted
	RunStatusPartial   RunStatus = "PARTIAL"   // some documents failed and were skipped
	RunStatusFailed    RunStatus = "FAILED"    // aborted
)

// DocumentStatus is the outcome of a single document extraction.
type DocumentStatus string

const (
	DocumentStatusOK     DocumentStatus = "OK"
	DocumentStatusFailed DocumentStatus = "FAILED"
)
