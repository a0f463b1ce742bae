package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind identifies which maintenance-request ledger an operation targets
type RequestKind string

const (
	KindServiceChange RequestKind = "service"
	KindZoneTransfer  RequestKind = "zone"
	KindBankUpdate    RequestKind = "bank"
)

// ValidRequestKind reports whether k names a known ledger
func ValidRequestKind(k RequestKind) bool {
	return k == KindServiceChange || k == KindZoneTransfer || k == KindBankUpdate
}

// RequestStatus represents the resolution state of a maintenance request.
// Requests are created pending and resolved exactly once; dismissed/archived
// are technician-side housekeeping flags, not states.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ServiceAction says whether a service-change request adds or removes a service
type ServiceAction string

const (
	ServiceAdd    ServiceAction = "add"
	ServiceRemove ServiceAction = "remove"
)

// ServiceChangeRequest proposes adding or removing one service from a verified
// technician's offering. ADD requests must carry proof of qualification.
type ServiceChangeRequest struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TechnicianID  uuid.UUID     `json:"technician_id" db:"technician_id"`
	ServiceID     string        `json:"service_id" db:"service_id"`
	CategoryID    string        `json:"category_id" db:"category_id"`
	Action        ServiceAction `json:"action" db:"action"`
	ProofURL      *string       `json:"proof_url,omitempty" db:"proof_url"`
	Status        RequestStatus `json:"status" db:"status"`
	AdminComments *string       `json:"admin_comments,omitempty" db:"admin_comments"`
	RequestedAt   time.Time     `json:"requested_at" db:"requested_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
	Dismissed     bool          `json:"dismissed" db:"dismissed"`
	Archived      bool          `json:"archived" db:"archived"`
}

// ZoneTransferRequest proposes moving a verified technician to another zone
type ZoneTransferRequest struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	TechnicianID    uuid.UUID     `json:"technician_id" db:"technician_id"`
	CurrentZoneID   string        `json:"current_zone_id" db:"current_zone_id"`
	RequestedZoneID string        `json:"requested_zone_id" db:"requested_zone_id"`
	Status          RequestStatus `json:"status" db:"status"`
	AdminComments   *string       `json:"admin_comments,omitempty" db:"admin_comments"`
	RequestedAt     time.Time     `json:"requested_at" db:"requested_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
	Dismissed       bool          `json:"dismissed" db:"dismissed"`
	Archived        bool          `json:"archived" db:"archived"`
}

// BankUpdateRequest proposes replacing a verified technician's payout account.
// At most one bank-update request may be pending per technician, and payouts
// are on hold while one is.
type BankUpdateRequest struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	TechnicianID  uuid.UUID     `json:"technician_id" db:"technician_id"`
	HolderName    string        `json:"holder_name" db:"holder_name"`
	AccountNumber string        `json:"account_number" db:"account_number"`
	IFSCCode      string        `json:"ifsc_code" db:"ifsc_code"`
	BankName      string        `json:"bank_name" db:"bank_name"`
	ProofURL      string        `json:"proof_url" db:"proof_url"`
	Status        RequestStatus `json:"status" db:"status"`
	AdminComments *string       `json:"admin_comments,omitempty" db:"admin_comments"`
	RequestedAt   time.Time     `json:"requested_at" db:"requested_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
	Dismissed     bool          `json:"dismissed" db:"dismissed"`
	Archived      bool          `json:"archived" db:"archived"`
}

// Resolved reports whether the request has received its terminal decision
func (r *ServiceChangeRequest) Resolved() bool { return r.Status != RequestPending }

// Resolved reports whether the request has received its terminal decision
func (r *ZoneTransferRequest) Resolved() bool { return r.Status != RequestPending }

// Resolved reports whether the request has received its terminal decision
func (r *BankUpdateRequest) Resolved() bool { return r.Status != RequestPending }
