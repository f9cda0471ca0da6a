package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchState is the lifecycle of an outreach batch.
type BatchState string

const (
	BatchPending   BatchState = "pending"
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
	BatchCancelled BatchState = "cancelled"
)

var batchTransitions = map[BatchState][]BatchState{
	BatchPending: {BatchRunning, BatchCancelled},
	BatchRunning: {BatchCompleted, BatchCancelled},
}

// CanTransition reports whether a batch may move from one state to another.
// Completed and Cancelled are final.
func CanTransition(from, to BatchState) bool {
	for _, next := range batchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BatchState) Final() bool {
	return s == BatchCompleted || s == BatchCancelled
}

func ParseBatchState(raw string) (BatchState, error) {
	switch s := BatchState(raw); s {
	case BatchPending, BatchRunning, BatchCompleted, BatchCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown batch state %q", raw)
}

// Batch is a persisted bulk dispatch request and its running tally.
type Batch struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Template        string
	LeadIDs         []uuid.UUID
	State           BatchState
	Sent            int
	Failed          int
	Excluded        int
	Errors          []string
	CancelRequested bool
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
