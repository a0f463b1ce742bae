package notify

// Workflow events delivered to technicians. Delivery is best-effort and
// fire-and-forget; the workflow engine never blocks or rolls back on a
// notification failure.
const (
	EventVerificationSubmitted = "verification_submitted"
	EventApplicationApproved   = "application_approved"
	EventApplicationRejected   = "application_rejected"
	EventMaintenanceApproved   = "maintenance_request_approved"
	EventMaintenanceRejected   = "maintenance_request_rejected"
)

// Gateway defines the interface for delivering workflow notifications
type Gateway interface {
	// Notify delivers one event for a technician.
	// Returns an error if delivery failed; callers treat it as best-effort.
	Notify(technicianID, event string, data map[string]interface{}) error

	// GetName returns the name of the gateway implementation
	GetName() string
}
