package visits

import "github.com/huellitas/huellitas-backend/pkg/enums"

// Operation names a visit workflow step.
type Operation string

const (
	OpAccept            Operation = "accept"
	OpSuggestReschedule Operation = "suggest_reschedule"
	OpApproveReschedule Operation = "approve_reschedule"
	OpReschedule        Operation = "reschedule"
	OpComplete          Operation = "complete"
	OpCancel            Operation = "cancel"
)

type rule struct {
	actor enums.UserRole
	from  []enums.VisitStatus
	to    enums.VisitStatus
}

var nonTerminal = []enums.VisitStatus{
	enums.VisitStatusScheduled,
	enums.VisitStatusAccepted,
	enums.VisitStatusRescheduled,
	enums.VisitStatusPendingReschedule,
}

var rules = map[Operation]rule{
	OpAccept: {
		actor: enums.UserRoleAdopter,
		from:  []enums.VisitStatus{enums.VisitStatusScheduled},
		to:    enums.VisitStatusAccepted,
	},
	OpSuggestReschedule: {
		actor: enums.UserRoleAdopter,
		from:  []enums.VisitStatus{enums.VisitStatusScheduled},
		to:    enums.VisitStatusPendingReschedule,
	},
	OpApproveReschedule: {
		actor: enums.UserRoleFoundation,
		from:  []enums.VisitStatus{enums.VisitStatusPendingReschedule},
		to:    enums.VisitStatusRescheduled,
	},
	OpReschedule: {
		actor: enums.UserRoleFoundation,
		from:  []enums.VisitStatus{enums.VisitStatusScheduled, enums.VisitStatusAccepted, enums.VisitStatusPendingReschedule},
		to:    enums.VisitStatusRescheduled,
	},
	OpComplete: {
		actor: enums.UserRoleFoundation,
		from:  []enums.VisitStatus{enums.VisitStatusScheduled, enums.VisitStatusAccepted, enums.VisitStatusRescheduled},
		to:    enums.VisitStatusCompleted,
	},
	OpCancel: {
		actor: enums.UserRoleFoundation,
		from:  nonTerminal,
		to:    enums.VisitStatusCancelled,
	},
}

// CanApply reports whether op is allowed from the given status.
func CanApply(op Operation, from enums.VisitStatus) bool {
	r, ok := rules[op]
	if !ok {
		return false
	}
	for _, candidate := range r.from {
		if candidate == from {
			return true
		}
	}
	return false
}

// Target returns the status op moves a visit to.
func Target(op Operation) enums.VisitStatus {
	return rules[op].to
}

// Actor returns the role allowed to perform op.
func Actor(op Operation) enums.UserRole {
	return rules[op].actor
}
