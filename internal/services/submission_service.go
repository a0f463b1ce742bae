package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
	"github.com/mistriconnect/technician-backend/pkg/docstore"
	"github.com/mistriconnect/technician-backend/pkg/notify"
	"github.com/mistriconnect/technician-backend/pkg/validator"
)

// PersonalPayload is the step 1 submission body
type PersonalPayload struct {
	FullName string  `json:"full_name" binding:"required"`
	Email    *string `json:"email"`
}

// AddressPayload is the step 2 submission body
type AddressPayload struct {
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
}

// WorkProfilePayload is the step 3 submission body
type WorkProfilePayload struct {
	CategoryID string   `json:"category_id" binding:"required"`
	ServiceIDs []string `json:"service_ids" binding:"required"`
}

// ZonePayload is the step 4 submission body
type ZonePayload struct {
	ZoneID string `json:"zone_id" binding:"required"`
}

// BankPayload is the step 6 submission body
type BankPayload struct {
	HolderName    string `json:"holder_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	IFSCCode      string `json:"ifsc_code" binding:"required"`
	BankName      string `json:"bank_name"`
}

// StepPayload carries the body for one onboarding step submission. Exactly
// one section must be set, matching the step number; step 5 (documents) and
// step 7 (completion marker) carry no body.
type StepPayload struct {
	Personal *PersonalPayload    `json:"personal,omitempty"`
	Address  *AddressPayload     `json:"address,omitempty"`
	Work     *WorkProfilePayload `json:"work_profile,omitempty"`
	Zone     *ZonePayload        `json:"zone,omitempty"`
	Bank     *BankPayload        `json:"bank,omitempty"`
}

// SubmissionService drives the onboarding side of the workflow: step
// submissions, document uploads, and the transition into admin review.
// Every mutating operation locks the technician row first, so concurrent
// submissions for one technician serialize.
type SubmissionService struct {
	db            database.DB
	technicians   *database.TechnicianRepository
	documents     *database.DocumentRepository
	catalog       *database.CatalogRepository
	bankValidator *validator.BankValidator
	store         docstore.Store
	notifier      notify.Gateway
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	db database.DB,
	technicians *database.TechnicianRepository,
	documents *database.DocumentRepository,
	catalog *database.CatalogRepository,
	store docstore.Store,
	notifier notify.Gateway,
) *SubmissionService {
	return &SubmissionService{
		db:            db,
		technicians:   technicians,
		documents:     documents,
		catalog:       catalog,
		bankValidator: validator.NewBankValidator(),
		store:         store,
		notifier:      notifier,
	}
}

// SubmitStep records one onboarding step submission and advances the step
// counter. Steps may be redone in any order up to the current frontier; the
// counter itself never moves backwards. Completing step 6 transitions the
// application into admin review.
//
// For a rejected application the same call is the resubmission path: fixing
// the flagged step and completing step 6 again (or, for a documents-only
// rejection, re-submitting step 5 after replacing the flagged files) moves
// the application back into review.
func (s *SubmissionService) SubmitStep(technicianID uuid.UUID, step int, payload StepPayload) (*models.Technician, error) {
	if step < models.StepPersonalDetails || step > models.StepBankDetails {
		return nil, models.NewValidationError("step", fmt.Sprintf("step must be between 1 and 6, got %d", step))
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

	switch tech.VerificationStatus {
	case models.VerificationInReview:
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"application is under review and cannot be modified")
	case models.VerificationVerified:
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"application is already verified; use a maintenance request instead")
	}

	// Steps unlock in order: a technician at step N may redo 1..N but not
	// jump ahead
	if step > tech.OnboardingStep {
		return nil, models.NewValidationError("step",
			fmt.Sprintf("step %d is not reachable yet; complete step %d first", step, tech.OnboardingStep))
	}

	if err := s.applyStep(tx, tech, step, payload); err != nil {
		return nil, err
	}

	newStep, newStatus, newReason, err := s.progressAfter(tx, tech, step)
	if err != nil {
		return nil, err
	}

	if err := s.technicians.UpdateProgress(tx, tech.ID, newStep, newStatus, newReason); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit step submission: %w", err)
	}

	submitted := tech.VerificationStatus != models.VerificationInReview && newStatus == models.VerificationInReview
	tech.OnboardingStep = newStep
	tech.VerificationStatus = newStatus
	tech.GlobalRejectionReason = newReason

	if submitted {
		notifyAsync(s.notifier, tech.ID, notify.EventVerificationSubmitted, map[string]interface{}{
			"technician_id": tech.ID.String(),
		})
	}

	return tech, nil
}

// applyStep validates the payload for one step and persists it
func (s *SubmissionService) applyStep(tx *sqlx.Tx, tech *models.Technician, step int, payload StepPayload) error {
	switch step {
	case models.StepPersonalDetails:
		if payload.Personal == nil {
			return models.NewValidationError("personal", "personal details are required for step 1")
		}
		if payload.Personal.FullName == "" {
			return models.NewValidationError("full_name", "full name is required")
		}
		return s.technicians.UpdatePersonalDetails(tx, tech.ID, payload.Personal.FullName, payload.Personal.Email)

	case models.StepAddress:
		if payload.Address == nil {
			return models.NewValidationError("address", "address details are required for step 2")
		}
		if payload.Address.Address == "" || payload.Address.City == "" {
			return models.NewValidationError("address", "address and city are required")
		}
		return s.technicians.UpdateAddress(tx, tech.ID, payload.Address.Address, payload.Address.City)

	case models.StepWorkProfile:
		if payload.Work == nil {
			return models.NewValidationError("work_profile", "work profile is required for step 3")
		}
		if payload.Work.CategoryID == "" {
			return models.NewValidationError("category_id", "category is required")
		}
		if len(payload.Work.ServiceIDs) == 0 {
			return models.NewValidationError("service_ids", "at least one service is required")
		}
		for _, serviceID := range payload.Work.ServiceIDs {
			exists, err := s.catalog.ServiceExists(serviceID, payload.Work.CategoryID)
			if err != nil {
				return err
			}
			if !exists {
				return models.NewValidationError("service_ids",
					fmt.Sprintf("service %s does not exist in category %s", serviceID, payload.Work.CategoryID))
			}
		}
		return s.technicians.UpdateWorkProfile(tx, tech.ID, payload.Work.CategoryID, payload.Work.ServiceIDs)

	case models.StepZoneSelection:
		if payload.Zone == nil {
			return models.NewValidationError("zone", "zone selection is required for step 4")
		}
		exists, err := s.catalog.ZoneExists(payload.Zone.ZoneID)
		if err != nil {
			return err
		}
		if !exists {
			return models.NewValidationError("zone_id",
				fmt.Sprintf("zone %s does not exist", payload.Zone.ZoneID))
		}
		return s.technicians.UpdateZone(tx, tech.ID, payload.Zone.ZoneID)

	case models.StepDocuments:
		// Step 5 carries no body; it asserts that every mandatory slot is
		// filled. The uploads themselves happened through UploadDocument.
		docs, err := s.documents.ListByTechnicianTx(tx, tech.ID)
		if err != nil {
			return err
		}
		if missing := models.MissingMandatoryTypes(docs); len(missing) > 0 {
			return models.NewValidationError("documents",
				fmt.Sprintf("mandatory documents missing: %v", missing))
		}
		if tech.VerificationStatus == models.VerificationRejected && models.AnyRejected(docs) {
			return models.NewValidationError("documents",
				"rejected documents must be re-uploaded before resubmitting")
		}
		return nil

	case models.StepBankDetails:
		if payload.Bank == nil {
			return models.NewValidationError("bank", "bank details are required for step 6")
		}
		bank, err := s.validateBank(payload.Bank)
		if err != nil {
			return err
		}
		return s.technicians.UpdateBankDetails(tx, tech.ID, *bank)
	}

	return models.NewValidationError("step", fmt.Sprintf("unknown step %d", step))
}

// validateBank normalizes and validates a bank payload
func (s *SubmissionService) validateBank(payload *BankPayload) (*models.BankDetails, error) {
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
	return &models.BankDetails{
		HolderName:    payload.HolderName,
		AccountNumber: account,
		IFSCCode:      ifsc,
		BankName:      payload.BankName,
	}, nil
}

// progressAfter computes the technician's next step counter, verification
// status, and global rejection reason after a successful step submission
func (s *SubmissionService) progressAfter(tx *sqlx.Tx, tech *models.Technician, step int) (int, models.VerificationStatus, *string, error) {
	// Documents-only rejection shortcut: once the flagged files are replaced,
	// re-submitting step 5 goes straight back into review without redoing
	// the bank step. Only applies when step 6 was already saved.
	if step == models.StepDocuments && tech.RejectedForDocumentsOnly() && tech.HasBankDetails() {
		if err := Transition(tech.VerificationStatus, models.VerificationInReview); err != nil {
			return 0, "", nil, err
		}
		return models.StepCompleted, models.VerificationInReview, nil, nil
	}

	// Completing step 6 finishes onboarding and submits for review. A
	// rejected applicant must have cleared every document rejection first.
	if step == models.StepBankDetails {
		if tech.VerificationStatus == models.VerificationRejected {
			docs, err := s.documents.ListByTechnicianTx(tx, tech.ID)
			if err != nil {
				return 0, "", nil, err
			}
			if models.AnyRejected(docs) {
				return 0, "", nil, models.NewValidationError("documents",
					"rejected documents must be re-uploaded before resubmitting")
			}
		}
		if err := Transition(tech.VerificationStatus, models.VerificationInReview); err != nil {
			return 0, "", nil, err
		}
		return models.StepCompleted, models.VerificationInReview, nil, nil
	}

	// Redoing an earlier step never moves the counter backwards
	newStep := tech.OnboardingStep
	if step == tech.OnboardingStep {
		newStep = step + 1
	}
	return newStep, tech.VerificationStatus, tech.GlobalRejectionReason, nil
}

// UploadDocument stores a verification document file and records it in the
// ledger. Mandatory types fill (or refill) their slot; 'other' documents
// append, capped at MaxOtherDocuments, or replace in place when replaceID is
// given. Uploads are blocked while the application is under admin review.
func (s *SubmissionService) UploadDocument(
	ctx context.Context,
	technicianID uuid.UUID,
	docType models.DocumentType,
	replaceID *uuid.UUID,
	fileName, contentType string,
	data []byte,
) (*models.Document, error) {
	if !models.ValidDocumentType(docType) {
		return nil, models.NewValidationError("doc_type", fmt.Sprintf("unknown document type %q", docType))
	}
	if !docstore.AllowedContentType(contentType) {
		return nil, models.NewValidationError("file", fmt.Sprintf("unsupported file type %s", contentType))
	}
	if replaceID != nil && docType != models.DocumentOther {
		return nil, models.NewValidationError("document_id",
			"only supporting documents are replaced by id; re-upload the slot instead")
	}

	// Store the file before opening the transaction: a store failure leaves
	// the ledger untouched, and an orphaned object is harmless
	objectName := fmt.Sprintf("technicians/%s/%s/%d-%s", technicianID, docType, time.Now().UnixNano(), fileName)
	fileURL, err := s.store.Save(ctx, objectName, contentType, data)
	if err != nil {
		return nil, models.NewUpstreamError("document store", err)
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

	switch tech.VerificationStatus {
	case models.VerificationInReview:
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"application is under review; documents cannot be changed until a decision is made")
	case models.VerificationVerified:
		return nil, models.NewConflictError(models.CodeInvalidTransition,
			"application is already verified")
	}

	var doc *models.Document
	switch {
	case docType != models.DocumentOther:
		doc, err = s.documents.Upsert(tx, technicianID, docType, fileURL)
	case replaceID != nil:
		err = s.documents.Replace(tx, technicianID, *replaceID, fileURL)
		if err == nil {
			doc, err = &models.Document{
				ID:           *replaceID,
				TechnicianID: technicianID,
				Type:         models.DocumentOther,
				FileURL:      fileURL,
				Status:       models.DocumentPending,
				UploadedAt:   time.Now(),
			}, nil
		}
	default:
		var count int
		count, err = s.documents.CountOther(tx, technicianID)
		if err == nil && count >= models.MaxOtherDocuments {
			err = models.NewValidationError("doc_type",
				fmt.Sprintf("at most %d supporting documents are allowed", models.MaxOtherDocuments))
		}
		if err == nil {
			doc, err = s.documents.Insert(tx, technicianID, fileURL)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit document upload: %w", err)
	}

	return doc, nil
}
