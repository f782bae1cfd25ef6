package notify

// Role identifies which party a notification addresses.
type Role string

const (
	RoleCaregiver Role = "caregiver"
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
)

type EventKind string

const (
	EventAssignmentCreated EventKind = "assignment_created"
	EventUpdateSubmitted   EventKind = "update_submitted"
	EventUpdateDecided     EventKind = "update_decided"
)

// Event is one notification to be relayed to the notification subsystem.
// Delivery is out of core: the producer only appends to the stream.
type Event struct {
	Kind        EventKind
	Role        Role
	PatientID   int64
	CaregiverID *int64
	UpdateID    *int64
	Tier        string // assigned tier, for assignment events
	Status      string // terminal status, for decision events
	TraceID     *string
	Attempt     int
}
