package enums

// HealthStatus is the adopter's assessment of the pet's health.
type HealthStatus string

const (
	HealthStatusExcellent HealthStatus = "excellent"
	HealthStatusGood      HealthStatus = "good"
	HealthStatusFair      HealthStatus = "fair"
	HealthStatusPoor      HealthStatus = "poor"
)

var validHealthStatuses = []HealthStatus{HealthStatusExcellent, HealthStatusGood, HealthStatusFair, HealthStatusPoor}

func (h HealthStatus) IsValid() bool { return contains(validHealthStatuses, h) }

// BehaviorStatus is the adopter's assessment of how the pet is settling in.
type BehaviorStatus string

const (
	BehaviorStatusExcellent   BehaviorStatus = "excellent"
	BehaviorStatusGood        BehaviorStatus = "good"
	BehaviorStatusAdapting    BehaviorStatus = "adapting"
	BehaviorStatusProblematic BehaviorStatus = "problematic"
)

var validBehaviorStatuses = []BehaviorStatus{
	BehaviorStatusExcellent,
	BehaviorStatusGood,
	BehaviorStatusAdapting,
	BehaviorStatusProblematic,
}

func (b BehaviorStatus) IsValid() bool { return contains(validBehaviorStatuses, b) }

// NeedsAttention flags reports the foundation should look at first.
func NeedsAttention(h HealthStatus, b BehaviorStatus) bool {
	return h == HealthStatusPoor || b == BehaviorStatusProblematic
}
