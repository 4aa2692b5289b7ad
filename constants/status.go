package constants

// JobStatus is the canonical status for rows in extraction_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusOCROK     JobStatus = "OCR_OK"    // text acquired
	JobStatusExtracted JobStatus = "EXTRACTED" // fields extracted
	JobStatusNoData    JobStatus = "NO_DATA"   // nothing extractable
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// Terminal reports whether no further transition is expected.
func (s JobStatus) Terminal() bool {
	return s == JobStatusExtracted || s == JobStatusNoData || s == JobStatusFailed
}
