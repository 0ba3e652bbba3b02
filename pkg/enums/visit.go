package enums

// VisitStatus is the negotiation state of a post-adoption visit.
type VisitStatus string

const (
	VisitStatusScheduled         VisitStatus = "scheduled"
	VisitStatusAccepted          VisitStatus = "accepted"
	VisitStatusRescheduled       VisitStatus = "rescheduled"
	VisitStatusPendingReschedule VisitStatus = "pending_reschedule"
	VisitStatusCompleted         VisitStatus = "completed"
	VisitStatusCancelled         VisitStatus = "cancelled"
)

var validVisitStatuses = []VisitStatus{
	VisitStatusScheduled,
	VisitStatusAccepted,
	VisitStatusRescheduled,
	VisitStatusPendingReschedule,
	VisitStatusCompleted,
	VisitStatusCancelled,
}

func (s VisitStatus) String() string { return string(s) }

func (s VisitStatus) IsValid() bool { return contains(validVisitStatuses, s) }

// IsTerminal reports whether the visit is closed.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusCancelled
}

func ParseVisitStatus(value string) (VisitStatus, error) {
	return parse(validVisitStatuses, value, "visit status")
}

// VisitType is how the visit takes place.
type VisitType string

const (
	VisitTypePresencial VisitType = "presencial"
	VisitTypeVirtual    VisitType = "virtual"
)

var validVisitTypes = []VisitType{VisitTypePresencial, VisitTypeVirtual}

func (t VisitType) IsValid() bool { return contains(validVisitTypes, t) }

func ParseVisitType(value string) (VisitType, error) {
	return parse(validVisitTypes, value, "visit type")
}
