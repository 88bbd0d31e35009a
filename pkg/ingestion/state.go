package ingestion

import "github.com/ultralog/ultralog/pkg/logmodel"

// Handle identifies one submitted load across its lifetime.
type Handle string

// Status is the lifecycle stage of a LoadingState, per spec §5's
// "a cancelled load transitions to failed(Cancelled) at most once".
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// LoadingState is the immutable snapshot GetState/Await hands back: the
// host associates a result with its request by Handle, never by
// completion order (spec §5: "across concurrent loads, completion order
// is not guaranteed").
type LoadingState struct {
	Handle Handle
	Status Status
	Path   string
	Log    *logmodel.Log
	Err    error
}

// Done reports whether the state has reached a terminal status.
func (s LoadingState) Done() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed || s.Status == StatusCancelled
}
