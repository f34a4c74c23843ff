package fsm

// Status constants used by the invoice state machine.
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusIssued          = "issued"
	StatusOverdue         = "overdue"
	StatusPaid            = "paid"
	StatusCancelled       = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []string{
	StatusDraft,
	StatusPendingApproval,
	StatusIssued,
	StatusOverdue,
	StatusPaid,
	StatusCancelled,
}

var transitions = map[string]map[string]struct{}{
	StatusDraft: {
		StatusPendingApproval: {},
		StatusIssued:          {},
		StatusCancelled:       {},
	},
	StatusPendingApproval: {
		StatusIssued:    {},
		StatusDraft:     {},
		StatusCancelled: {},
	},
	StatusIssued: {
		StatusPaid:      {},
		StatusOverdue:   {},
		StatusCancelled: {},
	},
	StatusOverdue: {
		StatusPaid:      {},
		StatusCancelled: {},
	},
	StatusPaid:      {},
	StatusCancelled: {},
}

// IsKnown reports whether status belongs to the lifecycle.
func IsKnown(status string) bool {
	_, ok := transitions[status]
	return ok
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// CanTransition returns whether an invoice can move from the current status to
// the target status. Issued -> overdue is time-derived and never a user action.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
