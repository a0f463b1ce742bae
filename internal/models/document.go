package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies a verification document slot
type DocumentType string

const (
	DocumentAadhaar     DocumentType = "aadhaar"
	DocumentPAN         DocumentType = "pan"
	DocumentPassbook    DocumentType = "passbook"
	DocumentCertificate DocumentType = "certificate"
	DocumentOther       DocumentType = "other"
)

// MandatoryDocumentTypes are the slots that must be filled before step 5 can
// be submitted
var MandatoryDocumentTypes = []DocumentType{
	DocumentAadhaar,
	DocumentPAN,
	DocumentPassbook,
	DocumentCertificate,
}

// MaxOtherDocuments caps how many supporting documents a technician may attach
const MaxOtherDocuments = 5

// DocumentStatus represents the verification state of a single document
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is one entry in a technician's document ledger. A document with
// status rejected always carries a rejection reason; approved and pending
// documents never do.
type Document struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	TechnicianID    uuid.UUID      `json:"technician_id" db:"technician_id"`
	Type            DocumentType   `json:"type" db:"doc_type"`
	FileURL         string         `json:"file_url" db:"file_url"`
	Status          DocumentStatus `json:"status" db:"status"`
	RejectionReason *string        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	UploadedAt      time.Time      `json:"uploaded_at" db:"uploaded_at"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty" db:"decided_at"`
}

// ValidDocumentType reports whether t is a known document type
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentAadhaar, DocumentPAN, DocumentPassbook, DocumentCertificate, DocumentOther:
		return true
	}
	return false
}

// IsMandatory reports whether t is one of the slots required for submission
func IsMandatory(t DocumentType) bool {
	for _, m := range MandatoryDocumentTypes {
		if t == m {
			return true
		}
	}
	return false
}

// MissingMandatoryTypes returns the mandatory slots not present in docs
func MissingMandatoryTypes(docs []Document) []DocumentType {
	present := make(map[DocumentType]bool, len(docs))
	for i := range docs {
		if docs[i].FileURL != "" {
			present[docs[i].Type] = true
		}
	}
	var missing []DocumentType
	for _, m := range MandatoryDocumentTypes {
		if !present[m] {
			missing = append(missing, m)
		}
	}
	return missing
}

// AnyRejected reports whether any document in docs is still rejected
func AnyRejected(docs []Document) bool {
	for i := range docs {
		if docs[i].Status == DocumentRejected {
			return true
		}
	}
	return false
}
