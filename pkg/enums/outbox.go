package enums

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateAdoptionRequest OutboxAggregateType = "adoption_request"
	AggregateVisit           OutboxAggregateType = "visit"
	AggregateFollowUp        OutboxAggregateType = "follow_up"
	AggregateNotification    OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateAdoptionRequest,
	AggregateVisit,
	AggregateFollowUp,
	AggregateNotification,
}

func (a OutboxAggregateType) IsValid() bool { return contains(validAggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(validAggregateTypes, value, "aggregate type")
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventAdoptionRequestSubmitted     OutboxEventType = "adoption_request_submitted"
	EventAdoptionRequestStatusChanged OutboxEventType = "adoption_request_status_changed"
	EventVisitScheduled               OutboxEventType = "visit_scheduled"
	EventVisitStatusChanged           OutboxEventType = "visit_status_changed"
	EventFollowUpSubmitted            OutboxEventType = "follow_up_submitted"
	EventFollowUpReviewed             OutboxEventType = "follow_up_reviewed"
	EventNotificationCreated          OutboxEventType = "notification_created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventAdoptionRequestSubmitted,
	EventAdoptionRequestStatusChanged,
	EventVisitScheduled,
	EventVisitStatusChanged,
	EventFollowUpSubmitted,
	EventFollowUpReviewed,
	EventNotificationCreated,
}

func (e OutboxEventType) IsValid() bool { return contains(validOutboxEventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(validOutboxEventTypes, value, "event type")
}
