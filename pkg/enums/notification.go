package enums

// NotificationType categorizes bell notifications.
type NotificationType string

const (
	NotificationAdoptionSubmitted       NotificationType = "adoption_submitted"
	NotificationAdoptionContacted       NotificationType = "adoption_contacted"
	NotificationAdoptionApproved        NotificationType = "adoption_approved"
	NotificationAdoptionRejected        NotificationType = "adoption_rejected"
	NotificationVisitScheduled          NotificationType = "visit_scheduled"
	NotificationVisitAccepted           NotificationType = "visit_accepted"
	NotificationVisitRescheduleProposed NotificationType = "visit_reschedule_proposed"
	NotificationVisitRescheduled        NotificationType = "visit_rescheduled"
	NotificationVisitCompleted          NotificationType = "visit_completed"
	NotificationVisitCancelled          NotificationType = "visit_cancelled"
	NotificationFollowUpSubmitted       NotificationType = "follow_up_submitted"
	NotificationFollowUpReviewed        NotificationType = "follow_up_reviewed"
	NotificationCarnetReminder          NotificationType = "carnet_reminder"
)

var validNotificationTypes = []NotificationType{
	NotificationAdoptionSubmitted,
	NotificationAdoptionContacted,
	NotificationAdoptionApproved,
	NotificationAdoptionRejected,
	NotificationVisitScheduled,
	NotificationVisitAccepted,
	NotificationVisitRescheduleProposed,
	NotificationVisitRescheduled,
	NotificationVisitCompleted,
	NotificationVisitCancelled,
	NotificationFollowUpSubmitted,
	NotificationFollowUpReviewed,
	NotificationCarnetReminder,
}

func (n NotificationType) IsValid() bool { return contains(validNotificationTypes, n) }

func ParseNotificationType(value string) (NotificationType, error) {
	return parse(validNotificationTypes, value, "notification type")
}
