package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/pkg/notify"
)

// DocumentDecision is one admin decision on a single document. Mandatory
// documents are addressed by type; supporting documents by id. Rejections
// must carry a reason.
type DocumentDecision struct {
	Type       models.DocumentType `json:"type"`
	DocumentID *uuid.UUID          `json:"document_id,omitempty"`
	Approve    bool                `json:"approve"`
	Reason     *string             `json:"reason,omitempty"`
}

// ApplicationDecision is the admin's verdict on a completed application
type ApplicationDecision struct {
	Approve      bool               `json:"approve"`
	GlobalReason *string            `json:"global_reason,omitempty"`
	Documents    []DocumentDecision `json:"documents,omitempty"`
}

// ResolutionService applies admin decisions: application approval/rejection
// and maintenance-request resolution. Every decision locks the technician
// row first and goes through the verification state machine or the
// status-guarded resolution update, so a decision is applied at most once.
type ResolutionService struct {
	db          database.DB
	technicians *database.TechnicianRepository
	documents   *database.DocumentRepository
	requests    *database.MaintenanceRequestRepository
	notifier    notify.Gateway
}

// NewResolutionService creates a new resolution service
func NewResolutionService(
	db database.DB,
	technicians *database.TechnicianRepository,
	documents *database.DocumentRepository,
	requests *database.MaintenanceRequestRepository,
	notifier notify.Gateway,
) *ResolutionService {
	return &ResolutionService{
		db:          db,
		technicians: technicians,
		documents:   documents,
		requests:    requests,
		notifier:    notifier,
	}
}

// ResolveApplication records the admin verdict on a technician's completed
// application.
//
// Approval marks every document without an explicit decision as approved and
// moves the technician to verified. Rejection requires either at least one
// rejected document or an application-level reason; when only documents were
// flagged, the stored reason is a sentinel that later enables the shortened
// resubmission path.
func (s *ResolutionService) ResolveApplication(technicianID uuid.UUID, decision ApplicationDecision) (*models.Technician, error) {
	if err := s.validateDecision(decision); err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tech, err := s.technicians.GetForUpdate(tx, technicianID)
	if err != nil {
		return nil, err
	}

	target := models.VerificationRejected
	if decision.Approve {
		target = models.VerificationVerified
	}
	if err := Transition(tech.VerificationStatus, target); err != nil {
		return nil, err
	}

	for _, dd := range decision.Documents {
		if err := s.applyDocumentDecision(tx, technicianID, dd); err != nil {
			return nil, err
		}
	}

	var globalReason *string
	if decision.Approve {
		// Documents the admin did not touch are implicitly fine
		if err := s.documents.ApproveRemaining(tx, technicianID); err != nil {
			return nil, err
		}
	} else {
		globalReason = decision.GlobalReason
		if globalReason == nil {
			sentinel := models.RejectionDocumentsOnly
			globalReason = &sentinel
		}
	}

	if err := s.technicians.UpdateProgress(tx, technicianID, models.StepCompleted, target, globalReason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit application decision: %w", err)
	}

	tech.VerificationStatus = target
	tech.OnboardingStep = models.StepCompleted
	tech.GlobalRejectionReason = globalReason

	event := notify.EventApplicationRejected
	data := map[string]interface{}{"technician_id": technicianID.String()}
	if decision.Approve {
		event = notify.EventApplicationApproved
	} else if globalReason != nil {
		data["reason"] = *globalReason
	}
	notifyAsync(s.notifier, technicianID, event, data)

	return tech, nil
}

// validateDecision checks the shape of an application decision before any
// state is touched
func (s *ResolutionService) validateDecision(decision ApplicationDecision) error {
	rejectedDocs := 0
	for _, dd := range decision.Documents {
		if !models.ValidDocumentType(dd.Type) {
			return models.NewValidationError("documents", fmt.Sprintf("unknown document type %q", dd.Type))
		}
		if dd.Type == models.DocumentOther && dd.DocumentID == nil {
			return models.NewValidationError("documents", "supporting documents must be addressed by id")
		}
		if !dd.Approve {
			if dd.Reason == nil || *dd.Reason == "" {
				return models.NewValidationError("documents",
					fmt.Sprintf("rejecting document %s requires a reason", dd.Type))
			}
			rejectedDocs++
		}
	}

	if decision.Approve && rejectedDocs > 0 {
		return models.NewValidationError("approve",
			"cannot approve an application while rejecting documents")
	}
	if !decision.Approve && rejectedDocs == 0 &&
		(decision.GlobalReason == nil || *decision.GlobalReason == "") {
		return models.NewValidationError("global_reason",
			"rejection requires a reason or at least one rejected document")
	}
	if decision.GlobalReason != nil && *decision.GlobalReason == models.RejectionDocumentsOnly {
		return models.NewValidationError("global_reason", "reserved rejection reason")
	}
	return nil
}

// applyDocumentDecision records one per-document verdict
func (s *ResolutionService) applyDocumentDecision(tx *sqlx.Tx, technicianID uuid.UUID, dd DocumentDecision) error {
	status := models.DocumentRejected
	reason := dd.Reason
	if dd.Approve {
		status = models.DocumentApproved
		reason = nil
	}
	if dd.DocumentID != nil {
		return s.documents.DecideByID(tx, technicianID, *dd.DocumentID, status, reason)
	}
	return s.documents.Decide(tx, technicianID, dd.Type, status, reason)
}

// ResolveMaintenanceRequest records the admin verdict on one pending
// maintenance request. Approval applies the requested change to the live
// profile inside the same transaction; rejection leaves the profile as it
// was and must carry admin comments explaining the verdict. Either way the
// request reaches its terminal status exactly once.
func (s *ResolutionService) ResolveMaintenanceRequest(kind models.RequestKind, technicianID, requestID uuid.UUID, approve bool, comments *string) error {
	if !models.ValidRequestKind(kind) {
		return models.NewValidationError("kind", fmt.Sprintf("unknown request kind %q", kind))
	}
	if !approve && (comments == nil || *comments == "") {
		return models.NewValidationError("comments", "rejecting a request requires admin comments")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the aggregate before the request row, matching the order used by
	// submissions
	tech, err := s.technicians.GetForUpdate(tx, technicianID)
	if err != nil {
		return err
	}

	status := models.RequestRejected
	if approve {
		status = models.RequestApproved
	}

	if err := s.applyResolution(tx, kind, tech, requestID, approve); err != nil {
		return err
	}

	if err := s.requests.MarkResolved(tx, kind, technicianID, requestID, status, comments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit maintenance decision: %w", err)
	}

	event := notify.EventMaintenanceRejected
	if approve {
		event = notify.EventMaintenanceApproved
	}
	data := map[string]interface{}{
		"request_id": requestID.String(),
		"kind":       string(kind),
	}
	if comments != nil {
		data["comments"] = *comments
	}
	notifyAsync(s.notifier, technicianID, event, data)

	return nil
}

// applyResolution applies the approved change to the live profile. Rejections
// change nothing.
func (s *ResolutionService) applyResolution(tx *sqlx.Tx, kind models.RequestKind, tech *models.Technician, requestID uuid.UUID, approve bool) error {
	if !approve {
		return nil
	}

	switch kind {
	case models.KindServiceChange:
		req, err := s.requests.GetServiceRequestForUpdate(tx, tech.ID, requestID)
		if err != nil {
			return err
		}
		services := applyServiceAction(tech.ActiveServiceIDs, req.ServiceID, req.Action)
		return s.technicians.UpdateActiveServices(tx, tech.ID, services)

	case models.KindZoneTransfer:
		req, err := s.requests.GetZoneRequestForUpdate(tx, tech.ID, requestID)
		if err != nil {
			return err
		}
		return s.technicians.UpdateZone(tx, tech.ID, req.RequestedZoneID)

	case models.KindBankUpdate:
		req, err := s.requests.GetBankRequestForUpdate(tx, tech.ID, requestID)
		if err != nil {
			return err
		}
		return s.technicians.UpdateBankDetails(tx, tech.ID, models.BankDetails{
			HolderName:    req.HolderName,
			AccountNumber: req.AccountNumber,
			IFSCCode:      req.IFSCCode,
			BankName:      req.BankName,
		})
	}
	return nil
}

// applyServiceAction returns the active-service set after an approved change.
// The operation is idempotent: adding an already-present service or removing
// an absent one leaves the set unchanged.
func applyServiceAction(current []string, serviceID string, action models.ServiceAction) []string {
	switch action {
	case models.ServiceAdd:
		for _, id := range current {
			if id == serviceID {
				return current
			}
		}
		return append(append([]string{}, current...), serviceID)
	case models.ServiceRemove:
		next := make([]string, 0, len(current))
		for _, id := range current {
			if id != serviceID {
				next = append(next, id)
			}
		}
		return next
	}
	return current
}
