package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/pkg/docstore"
	"github.com/mistriconnect/technician-backend/pkg/validator"
)

// ServiceChangePayload is the body of a service-change submission
type ServiceChangePayload struct {
	ServiceID string               `json:"service_id" binding:"required"`
	Action    models.ServiceAction `json:"action" binding:"required"`
}

// ZoneTransferPayload is the body of a zone-transfer submission
type ZoneTransferPayload struct {
	RequestedZoneID string `json:"requested_zone_id" binding:"required"`
}

// ProofFile is an uploaded qualification or account proof attached to a
// maintenance request
type ProofFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// MaintenanceService handles post-verification change requests. Verified
// technicians never edit their profile directly: every change is a pending
// request that an admin resolves, and the live profile only moves on
// approval.
type MaintenanceService struct {
	db            database.DB
	technicians   *database.TechnicianRepository
	requests      *database.MaintenanceRequestRepository
	catalog       *database.CatalogRepository
	bankValidator *validator.BankValidator
	store         docstore.Store
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	db database.DB,
	technicians *database.TechnicianRepository,
	requests *database.MaintenanceRequestRepository,
	catalog *database.CatalogRepository,
	store docstore.Store,
) *MaintenanceService {
	return &MaintenanceService{
		db:            db,
		technicians:   technicians,
		requests:      requests,
		catalog:       catalog,
		bankValidator: validator.NewBankValidator(),
		store:         store,
	}
}

// SubmitServiceChange records a request to add or remove one service.
// ADD requires proof of qualification and a service the technician does not
// already offer; REMOVE takes no proof and must name a currently active
// service that is not the last one.
func (s *MaintenanceService) SubmitServiceChange(ctx context.Context, technicianID uuid.UUID, payload ServiceChangePayload, proof *ProofFile) (*models.ServiceChangeRequest, error) {
	if payload.Action != models.ServiceAdd && payload.Action != models.ServiceRemove {
		return nil, models.NewValidationError("action", fmt.Sprintf("action must be add or remove, got %q", payload.Action))
	}
	if payload.Action == models.ServiceAdd && proof == nil {
		return nil, models.NewValidationError("proof", "proof of qualification is required to add a service")
	}
	if payload.Action == models.ServiceRemove && proof != nil {
		return nil, models.NewValidationError("proof", "removal requests do not take a proof document")
	}

	var proofURL *string
	if proof != nil {
		url, err := s.saveProof(ctx, technicianID, "service-proofs", proof)
		if err != nil {
			return nil, err
		}
		proofURL = &url
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
	if tech.VerificationStatus != models.VerificationVerified {
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"maintenance requests require a verified profile")
	}

	categoryID := ""
	if tech.CategoryID != nil {
		categoryID = *tech.CategoryID
	}

	switch payload.Action {
	case models.ServiceAdd:
		if tech.HasActiveService(payload.ServiceID) {
			return nil, models.NewConflictError(models.CodeServiceAlreadyActive,
				fmt.Sprintf("service %s is already active", payload.ServiceID))
		}
		exists, err := s.catalog.ServiceExists(payload.ServiceID, categoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewValidationError("service_id",
				fmt.Sprintf("service %s does not exist in category %s", payload.ServiceID, categoryID))
		}
	case models.ServiceRemove:
		if !tech.HasActiveService(payload.ServiceID) {
			return nil, models.NewConflictError(models.CodeServiceNotActive,
				fmt.Sprintf("service %s is not active", payload.ServiceID))
		}
		if len(tech.ActiveServiceIDs) == 1 {
			return nil, models.NewValidationError("service_id",
				"cannot remove the last active service")
		}
	}

	pending, err := s.requests.HasPendingServiceRequest(tx, technicianID, payload.ServiceID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError(models.CodeDuplicatePendingRequest,
			"a pending request already exists for this service")
	}

	req := &models.ServiceChangeRequest{
		TechnicianID: technicianID,
		ServiceID:    payload.ServiceID,
		CategoryID:   categoryID,
		Action:       payload.Action,
		ProofURL:     proofURL,
	}
	if err := s.requests.InsertServiceRequest(tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit service request: %w", err)
	}
	return req, nil
}

// SubmitZoneTransfer records a request to move to another zone. Only one
// transfer may be pending at a time.
func (s *MaintenanceService) SubmitZoneTransfer(technicianID uuid.UUID, payload ZoneTransferPayload) (*models.ZoneTransferRequest, error) {
	exists, err := s.catalog.ZoneExists(payload.RequestedZoneID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewValidationError("requested_zone_id",
			fmt.Sprintf("zone %s does not exist", payload.RequestedZoneID))
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
	if tech.VerificationStatus != models.VerificationVerified {
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"maintenance requests require a verified profile")
	}

	currentZone := ""
	if tech.ActiveZoneID != nil {
		currentZone = *tech.ActiveZoneID
	}
	if payload.RequestedZoneID == currentZone {
		return nil, models.NewValidationError("requested_zone_id",
			"requested zone is already the active zone")
	}

	pending, err := s.requests.HasPendingZoneRequest(tx, technicianID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError(models.CodeDuplicatePendingRequest,
			"a zone transfer request is already pending")
	}

	req := &models.ZoneTransferRequest{
		TechnicianID:    technicianID,
		CurrentZoneID:   currentZone,
		RequestedZoneID: payload.RequestedZoneID,
	}
	if err := s.requests.InsertZoneRequest(tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit zone request: %w", err)
	}
	return req, nil
}

// SubmitBankUpdate records a request to replace the payout account. The new
// account takes effect only on approval, and payouts go on hold while the
// request is pending. At most one bank update may be pending per technician.
func (s *MaintenanceService) SubmitBankUpdate(ctx context.Context, technicianID uuid.UUID, payload BankPayload, proof *ProofFile) (*models.BankUpdateRequest, error) {
	if proof == nil {
		return nil, models.NewValidationError("proof", "account proof is required for a bank update")
	}
	if err := s.bankValidator.ValidateHolderName(payload.HolderName); err != nil {
		return nil, models.NewValidationError("holder_name", err.Error())
	}
	account, err := s.bankValidator.ValidateAccountNumber(payload.AccountNumber)
	if err != nil {
		return nil, models.NewValidationError("account_number", err.Error())
	}
	ifsc, err := s.bankValidator.ValidateIFSC(payload.IFSCCode)
	if err != nil {
		return nil, models.NewValidationError("ifsc_code", err.Error())
	}

	proofURL, err := s.saveProof(ctx, technicianID, "bank-proofs", proof)
	if err != nil {
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
	if tech.VerificationStatus != models.VerificationVerified {
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"maintenance requests require a verified profile")
	}

	pending, err := s.requests.HasPendingBankRequest(tx, technicianID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError(models.CodeDuplicatePendingRequest,
			"a bank update request is already pending")
	}

	req := &models.BankUpdateRequest{
		TechnicianID:  technicianID,
		HolderName:    payload.HolderName,
		AccountNumber: account,
		IFSCCode:      ifsc,
		BankName:      payload.BankName,
		ProofURL:      proofURL,
	}
	if err := s.requests.InsertBankRequest(tx, req); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bank request: %w", err)
	}
	return req, nil
}

// Dismiss hides a resolved request from the technician's active list
func (s *MaintenanceService) Dismiss(kind models.RequestKind, technicianID, requestID uuid.UUID) error {
	return s.requests.SetFlag(kind, technicianID, requestID, "dismissed")
}

// Archive moves a resolved request into the technician's history
func (s *MaintenanceService) Archive(kind models.RequestKind, technicianID, requestID uuid.UUID) error {
	return s.requests.SetFlag(kind, technicianID, requestID, "archived")
}

// saveProof stores a proof file and returns its reference
func (s *MaintenanceService) saveProof(ctx context.Context, technicianID uuid.UUID, prefix string, proof *ProofFile) (string, error) {
	if !docstore.AllowedContentType(proof.ContentType) {
		return "", models.NewValidationError("proof", fmt.Sprintf("unsupported file type %s", proof.ContentType))
	}
	objectName := fmt.Sprintf("technicians/%s/%s/%d-%s", technicianID, prefix, time.Now().UnixNano(), proof.FileName)
	url, err := s.store.Save(ctx, objectName, proof.ContentType, proof.Data)
	if err != nil {
		return "", models.NewUpstreamError("document store", err)
	}
	return url, nil
}
