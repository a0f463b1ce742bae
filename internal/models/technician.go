package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// VerificationStatus represents a technician's overall verification state
type VerificationStatus string

const (
	// VerificationPending - registered, onboarding still in progress
	VerificationPending VerificationStatus = "pending"
	// VerificationInReview - onboarding complete, waiting for an admin decision
	VerificationInReview VerificationStatus = "verification_pending"
	// VerificationVerified - application approved; terminal for onboarding
	VerificationVerified VerificationStatus = "verified"
	// VerificationRejected - application rejected; technician may resubmit
	VerificationRejected VerificationStatus = "rejected"
)

// PayoutStatus represents whether payouts are currently allowed for a technician.
// It is always derived, never stored (see PayoutStatusFor).
type PayoutStatus string

const (
	PayoutActive PayoutStatus = "active"
	PayoutOnHold PayoutStatus = "on_hold"
)

// Onboarding step numbers. Step 7 means onboarding is complete and the
// application is awaiting (or holding) a verification decision.
const (
	StepPersonalDetails = 1
	StepAddress         = 2
	StepWorkProfile     = 3
	StepZoneSelection   = 4
	StepDocuments       = 5
	StepBankDetails     = 6
	StepCompleted       = 7
)

// RejectionDocumentsOnly is the sentinel global rejection reason meaning only
// individual documents were flagged, not the application as a whole. It
// enables the smart resubmission shortcut after the documents are replaced.
const RejectionDocumentsOnly = "DOCUMENTS_REJECTED"

// BankDetails holds a technician's payout account
type BankDetails struct {
	HolderName    string `json:"holder_name" db:"bank_holder_name"`
	AccountNumber string `json:"account_number" db:"bank_account_number"`
	IFSCCode      string `json:"ifsc_code" db:"bank_ifsc_code"`
	BankName      string `json:"bank_name" db:"bank_name"`
}

// Technician is the root aggregate of the onboarding and maintenance workflow
type Technician struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// Personal information (steps 1-2)
	FullName string  `json:"full_name" db:"full_name"`
	Phone    string  `json:"phone" db:"phone"`
	Email    *string `json:"email,omitempty" db:"email"`
	Address  *string `json:"address,omitempty" db:"address"`
	City     *string `json:"city,omitempty" db:"city"`

	// Work profile (steps 3-4)
	CategoryID       *string        `json:"category_id,omitempty" db:"category_id"`
	ActiveServiceIDs pq.StringArray `json:"active_service_ids" db:"active_service_ids"`
	ActiveZoneID     *string        `json:"active_zone_id,omitempty" db:"active_zone_id"`

	// Payout account (step 6)
	BankHolderName    *string `json:"bank_holder_name,omitempty" db:"bank_holder_name"`
	BankAccountNumber *string `json:"bank_account_number,omitempty" db:"bank_account_number"`
	BankIFSCCode      *string `json:"bank_ifsc_code,omitempty" db:"bank_ifsc_code"`
	BankName          *string `json:"bank_name,omitempty" db:"bank_name"`

	// Verification workflow
	OnboardingStep        int                `json:"onboarding_step" db:"onboarding_step"`
	VerificationStatus    VerificationStatus `json:"verification_status" db:"verification_status"`
	GlobalRejectionReason *string            `json:"global_rejection_reason,omitempty" db:"global_rejection_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasBankDetails reports whether step 6 has ever been saved
func (t *Technician) HasBankDetails() bool {
	return t.BankHolderName != nil && *t.BankHolderName != "" &&
		t.BankAccountNumber != nil && *t.BankAccountNumber != "" &&
		t.BankIFSCCode != nil && *t.BankIFSCCode != ""
}

// BankDetails returns the current payout account, or nil if step 6 was never saved
func (t *Technician) BankDetails() *BankDetails {
	if !t.HasBankDetails() {
		return nil
	}
	bankName := ""
	if t.BankName != nil {
		bankName = *t.BankName
	}
	return &BankDetails{
		HolderName:    *t.BankHolderName,
		AccountNumber: *t.BankAccountNumber,
		IFSCCode:      *t.BankIFSCCode,
		BankName:      bankName,
	}
}

// HasActiveService reports whether serviceID is currently approved for the technician
func (t *Technician) HasActiveService(serviceID string) bool {
	for _, id := range t.ActiveServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// RejectedForDocumentsOnly reports whether the stored global rejection reason
// is the documents-only sentinel
func (t *Technician) RejectedForDocumentsOnly() bool {
	return t.GlobalRejectionReason != nil && *t.GlobalRejectionReason == RejectionDocumentsOnly
}

// PayoutStatusFor derives the payout status from the technician's bank-update
// requests: ON_HOLD iff any request is still pending. The result is computed
// on every read and never persisted, so it cannot drift from its inputs.
func PayoutStatusFor(bankRequests []BankUpdateRequest) PayoutStatus {
	for i := range bankRequests {
		if bankRequests[i].Status == RequestPending {
			return PayoutOnHold
		}
	}
	return PayoutActive
}

// TechnicianProfile is the read-only projection returned to clients. It
// carries the derived payout status alongside the aggregate's collections.
type TechnicianProfile struct {
	Technician
	Documents       []Document             `json:"documents"`
	ServiceRequests []ServiceChangeRequest `json:"service_requests"`
	ZoneRequests    []ZoneTransferRequest  `json:"zone_requests"`
	BankRequests    []BankUpdateRequest    `json:"bank_update_requests"`
	PayoutStatus    PayoutStatus           `json:"payout_status"`
}

// TechnicianSummary represents a row in the admin review queue
type TechnicianSummary struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	FullName           string             `json:"full_name" db:"full_name"`
	Phone              string             `json:"phone" db:"phone"`
	City               *string            `json:"city,omitempty" db:"city"`
	OnboardingStep     int                `json:"onboarding_step" db:"onboarding_step"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
}
