package adoptions

import "github.com/huellitas/huellitas-backend/pkg/enums"

// contacted is informational: a foundation may step back to pending after a
// first call. approved and rejected are terminal.
var allowedTransitions = map[enums.AdoptionStatus][]enums.AdoptionStatus{
	enums.AdoptionStatusPending: {
		enums.AdoptionStatusContacted,
		enums.AdoptionStatusApproved,
		enums.AdoptionStatusRejected,
	},
	enums.AdoptionStatusContacted: {
		enums.AdoptionStatusPending,
		enums.AdoptionStatusApproved,
		enums.AdoptionStatusRejected,
	},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to enums.AdoptionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
