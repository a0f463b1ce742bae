package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mistriconnect/technician-backend/internal/models"
)

const documentColumns = `
	id, technician_id, doc_type, file_url, status, rejection_reason, uploaded_at, decided_at`

// DocumentRepository handles database operations for technician_documents
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByTechnician returns all documents for a technician, mandatory slots first
func (r *DocumentRepository) ListByTechnician(technicianID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	query := `
		SELECT ` + documentColumns + `
		FROM technician_documents
		WHERE technician_id = $1
		ORDER BY (doc_type = 'other'), uploaded_at ASC
	`
	if err := r.db.Select(&docs, query, technicianID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ListByTechnicianTx is ListByTechnician inside an open transaction
func (r *DocumentRepository) ListByTechnicianTx(tx *sqlx.Tx, technicianID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	query := `
		SELECT ` + documentColumns + `
		FROM technician_documents
		WHERE technician_id = $1
		ORDER BY (doc_type = 'other'), uploaded_at ASC
	`
	if err := tx.Select(&docs, query, technicianID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Upsert fills the slot for a mandatory document type, resetting it to
// pending and clearing any prior rejection reason. Re-uploading after a
// rejection is the mechanism by which a technician fixes a flagged document.
func (r *DocumentRepository) Upsert(tx *sqlx.Tx, technicianID uuid.UUID, docType models.DocumentType, fileURL string) (*models.Document, error) {
	doc := &models.Document{
		ID:           uuid.New(),
		TechnicianID: technicianID,
		Type:         docType,
		FileURL:      fileURL,
		Status:       models.DocumentPending,
		UploadedAt:   time.Now(),
	}

	query := `
		INSERT INTO technician_documents (id, technician_id, doc_type, file_url, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (technician_id, doc_type) WHERE doc_type <> 'other'
		DO UPDATE SET
			file_url = EXCLUDED.file_url,
			status = 'pending',
			rejection_reason = NULL,
			uploaded_at = EXCLUDED.uploaded_at,
			decided_at = NULL
		RETURNING id
	`

	if err := tx.QueryRow(query, doc.ID, doc.TechnicianID, doc.Type, doc.FileURL, doc.Status, doc.UploadedAt).Scan(&doc.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}
	return doc, nil
}

// Insert appends a supporting ('other') document
func (r *DocumentRepository) Insert(tx *sqlx.Tx, technicianID uuid.UUID, fileURL string) (*models.Document, error) {
	doc := &models.Document{
		ID:           uuid.New(),
		TechnicianID: technicianID,
		Type:         models.DocumentOther,
		FileURL:      fileURL,
		Status:       models.DocumentPending,
		UploadedAt:   time.Now(),
	}

	query := `
		INSERT INTO technician_documents (id, technician_id, doc_type, file_url, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(query, doc.ID, doc.TechnicianID, doc.Type, doc.FileURL, doc.Status, doc.UploadedAt); err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return doc, nil
}

// Replace overwrites an existing document row by id with a fresh pending
// upload. Used to fix a rejected 'other' document in place.
func (r *DocumentRepository) Replace(tx *sqlx.Tx, technicianID, documentID uuid.UUID, fileURL string) error {
	query := `
		UPDATE technician_documents SET
			file_url = $3, status = 'pending', rejection_reason = NULL,
			uploaded_at = NOW(), decided_at = NULL
		WHERE id = $2 AND technician_id = $1
	`
	result, err := tx.Exec(query, technicianID, documentID, fileURL)
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	if rows == 0 {
		return models.NewNotFoundError("document", documentID.String())
	}
	return nil
}

// CountOther returns how many supporting documents the technician has attached
func (r *DocumentRepository) CountOther(tx *sqlx.Tx, technicianID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM technician_documents WHERE technician_id = $1 AND doc_type = 'other'`
	if err := tx.Get(&count, query, technicianID); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Decide records an admin decision on one document. The rejection reason is
// stored only for rejections and cleared otherwise.
func (r *DocumentRepository) Decide(tx *sqlx.Tx, technicianID uuid.UUID, docType models.DocumentType, status models.DocumentStatus, reason *string) error {
	query := `
		UPDATE technician_documents SET
			status = $3, rejection_reason = $4, decided_at = NOW()
		WHERE technician_id = $1 AND doc_type = $2
	`
	result, err := tx.Exec(query, technicianID, docType, status, reason)
	if err != nil {
		return fmt.Errorf("failed to decide document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decide document: %w", err)
	}
	if rows == 0 {
		return models.NewNotFoundError("document", string(docType))
	}
	return nil
}

// DecideByID records an admin decision on one document addressed by id
func (r *DocumentRepository) DecideByID(tx *sqlx.Tx, technicianID, documentID uuid.UUID, status models.DocumentStatus, reason *string) error {
	query := `
		UPDATE technician_documents SET
			status = $3, rejection_reason = $4, decided_at = NOW()
		WHERE technician_id = $1 AND id = $2
	`
	result, err := tx.Exec(query, technicianID, documentID, status, reason)
	if err != nil {
		return fmt.Errorf("failed to decide document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to decide document: %w", err)
	}
	if rows == 0 {
		return models.NewNotFoundError("document", documentID.String())
	}
	return nil
}

// ApproveRemaining bulk-approves every document that has not received an
// explicit decision yet. Keeps an application approval from blocking on
// documents the admin did not re-review.
func (r *DocumentRepository) ApproveRemaining(tx *sqlx.Tx, technicianID uuid.UUID) error {
	query := `
		UPDATE technician_documents SET
			status = 'approved', rejection_reason = NULL, decided_at = NOW()
		WHERE technician_id = $1 AND status = 'pending'
	`
	if _, err := tx.Exec(query, technicianID); err != nil {
		return fmt.Errorf("failed to approve remaining documents: %w", err)
	}
	return nil
}

// GetByID retrieves a single document
func (r *DocumentRepository) GetByID(id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `SELECT ` + documentColumns + ` FROM technician_documents WHERE id = $1`
	if err := r.db.Get(doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("document", id.String())
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}
