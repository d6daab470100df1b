package constants

// ScanStatus is the canonical status for rows in scans.
type ScanStatus string

// Stable values (store these exact strings in DB).
const (
	ScanStatusQueued  ScanStatus = "QUEUED"  // waiting for a worker
	ScanStatusRunning ScanStatus = "RUNNING" // in progress
	ScanStatusOCROK   ScanStatus = "OCR_OK"  // stage 1 completed (text recognized)
	ScanStatusParsed  ScanStatus = "PARSED"  // stage 2 completed (fields extracted)
	ScanStatusFailed  ScanStatus = "FAILED"  // terminal failure
)
