package fsm

import (
	"context"

	"github.com/qmuntal/stateless"
	"golang.org/x/exp/slices"

	"webomat/internal/models"
)

// Action identifies a user-triggered invoice transition.
type Action string

const (
	ActionSubmitForApproval Action = "submit_for_approval"
	ActionIssue             Action = "issue"
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionMarkPaid          Action = "mark_paid"
	ActionCancel            Action = "cancel"
)

// actionOrder is the order in which controls are rendered.
var actionOrder = []Action{
	ActionSubmitForApproval,
	ActionIssue,
	ActionApprove,
	ActionReject,
	ActionMarkPaid,
	ActionCancel,
}

type rule struct {
	action    Action
	from      []string
	to        string
	adminOnly bool
}

var rules = []rule{
	{action: ActionSubmitForApproval, from: []string{StatusDraft}, to: StatusPendingApproval},
	{action: ActionIssue, from: []string{StatusDraft}, to: StatusIssued, adminOnly: true},
	{action: ActionApprove, from: []string{StatusPendingApproval}, to: StatusIssued, adminOnly: true},
	{action: ActionReject, from: []string{StatusPendingApproval}, to: StatusDraft, adminOnly: true},
	{action: ActionMarkPaid, from: []string{StatusIssued, StatusOverdue}, to: StatusPaid, adminOnly: true},
	{action: ActionCancel, from: []string{StatusDraft, StatusPendingApproval, StatusIssued, StatusOverdue}, to: StatusCancelled, adminOnly: true},
}

// ParseAction validates an action name coming from a request.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	return a, slices.Contains(actionOrder, a)
}

// AdminOnly reports whether the action requires the admin role.
func (a Action) AdminOnly() bool {
	for _, r := range rules {
		if r.action == a {
			return r.adminOnly
		}
	}
	return false
}

func requireAdmin(_ context.Context, args ...any) bool {
	if len(args) == 0 {
		return false
	}
	role, _ := args[0].(string)
	return role == models.RoleAdmin
}

func newMachine(status string) *stateless.StateMachine {
	sm := stateless.NewStateMachine(status)
	for _, r := range rules {
		for _, from := range r.from {
			cfg := sm.Configure(from)
			if r.adminOnly {
				cfg.Permit(r.action, r.to, requireAdmin)
			} else {
				cfg.Permit(r.action, r.to)
			}
		}
	}
	return sm
}

// AllowedActions returns the controls a caller with role may see for an
// invoice in status, in render order. Non-admins only ever get
// submit_for_approval on a draft.
func AllowedActions(status, role string) []Action {
	if !IsKnown(status) {
		return nil
	}
	triggers, err := newMachine(status).PermittedTriggers(role)
	if err != nil {
		return nil
	}
	out := make([]Action, 0, len(triggers))
	for _, t := range triggers {
		if a, ok := t.(Action); ok {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Action) int {
		return slices.Index(actionOrder, a) - slices.Index(actionOrder, b)
	})
	return out
}

// Permits checks only the status precondition of action, ignoring the role.
func Permits(status string, action Action) bool {
	_, ok := Target(status, action)
	return ok
}

// Target returns the status action leads to from status.
func Target(status string, action Action) (string, bool) {
	for _, r := range rules {
		if r.action == action && slices.Contains(r.from, status) {
			return r.to, true
		}
	}
	return "", false
}
