package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/utils"
)

// AuditService records workflow events for the compliance trail. Logging is
// best-effort: a failed insert is logged and swallowed, never surfaced to the
// caller.
type AuditService struct {
	repo *database.AuditLogRepository
}

// NewAuditService creates a new audit service
func NewAuditService(repo *database.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

// AuditEvent represents one workflow event to be recorded
type AuditEvent struct {
	ActorID    *uuid.UUID             // nil for system-initiated events
	Action     string                 // e.g. "step_submitted", "application_approved"
	EntityType string                 // "technician", "document", "maintenance_request"
	EntityID   *string                // id of the affected entity
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // additional context stored as JSONB
}

// LogStepSubmission records an onboarding step submission
func (s *AuditService) LogStepSubmission(actorID uuid.UUID, technicianID uuid.UUID, step int, ipAddress, userAgent string) {
	entityID := technicianID.String()
	s.logEvent(AuditEvent{
		ActorID:    &actorID,
		Action:     "step_submitted",
		EntityType: "technician",
		EntityID:   &entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"step":        step,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogDocumentUpload records a document upload
func (s *AuditService) LogDocumentUpload(actorID uuid.UUID, technicianID uuid.UUID, docType, documentID, ipAddress, userAgent string) {
	s.logEvent(AuditEvent{
		ActorID:    &actorID,
		Action:     "document_uploaded",
		EntityType: "document",
		EntityID:   &documentID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"technician_id": technicianID.String(),
			"doc_type":      docType,
			"device_info":   utils.ParseUserAgent(userAgent),
		},
	})
}

// LogApplicationDecision records an admin decision on a verification application
func (s *AuditService) LogApplicationDecision(adminID uuid.UUID, technicianID uuid.UUID, approved bool, ipAddress, userAgent string) {
	action := "application_rejected"
	if approved {
		action = "application_approved"
	}
	entityID := technicianID.String()
	s.logEvent(AuditEvent{
		ActorID:    &adminID,
		Action:     action,
		EntityType: "technician",
		EntityID:   &entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"approved": approved,
		},
	})
}

// LogMaintenanceRequest records the submission of a maintenance request
func (s *AuditService) LogMaintenanceRequest(actorID uuid.UUID, kind, requestID, ipAddress, userAgent string) {
	s.logEvent(AuditEvent{
		ActorID:    &actorID,
		Action:     "maintenance_request_submitted",
		EntityType: "maintenance_request",
		EntityID:   &requestID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"kind": kind,
		},
	})
}

// LogMaintenanceDecision records an admin decision on a maintenance request
func (s *AuditService) LogMaintenanceDecision(adminID uuid.UUID, kind, requestID string, approved bool, ipAddress, userAgent string) {
	action := "maintenance_request_rejected"
	if approved {
		action = "maintenance_request_approved"
	}
	s.logEvent(AuditEvent{
		ActorID:    &adminID,
		Action:     action,
		EntityType: "maintenance_request",
		EntityID:   &requestID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"kind":     kind,
			"approved": approved,
		},
	})
}

// logEvent persists the event, logging and swallowing any failure
func (s *AuditService) logEvent(event AuditEvent) {
	err := s.repo.Insert(event.ActorID, event.Action, event.EntityType, event.EntityID,
		event.IPAddress, event.UserAgent, event.Details)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":      event.Action,
			"entity_type": event.EntityType,
		}).Error("Failed to write audit log")
	}
}
