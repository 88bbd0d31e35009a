package ingestion

import "fmt"

// DuplicateLoadError is returned by Submit when a file with the same
// content fingerprint as an already-open log is submitted again, per
// spec §4.8's dedup contract.
type DuplicateLoadError struct {
	ExistingHandle Handle
}

func (e *DuplicateLoadError) Error() string {
	return fmt.Sprintf("ingestion: duplicate of already-open load %s", e.ExistingHandle)
}

// UnknownHandleError is returned by any operation addressing a Handle the
// orchestrator does not hold (never submitted, or already closed).
type UnknownHandleError struct {
	Handle Handle
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("ingestion: no load with handle %s", e.Handle)
}
