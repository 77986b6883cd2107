package engine

// OutcomeKind classifies the terminal state of one ticket's processing.
type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota
	OutcomeUpdated
	OutcomeSkipped
	OutcomeFailed
)

// String returns the outcome name for logs.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the per-ticket result. Created fresh per ticket, consumed by
// the runner's tally and the reporter, never persisted.
type Outcome struct {
	Kind       OutcomeKind
	TicketID   int64
	WorkItemID int
	Reason     string
	Err        error
}
