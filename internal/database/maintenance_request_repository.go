package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mistriconnect/technician-backend/internal/models"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint error
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// MaintenanceRequestRepository handles the three maintenance-request ledgers.
// Records are append-only: inserted pending, resolved exactly once through a
// status-guarded update, then only touched by the dismissed/archived flags.
type MaintenanceRequestRepository struct {
	db DB
}

// NewMaintenanceRequestRepository creates a new maintenance request repository
func NewMaintenanceRequestRepository(db DB) *MaintenanceRequestRepository {
	return &MaintenanceRequestRepository{db: db}
}

// ---- service-change requests ----

// InsertServiceRequest appends a pending service-change request. The partial
// unique index turns a concurrent duplicate into a Conflict.
func (r *MaintenanceRequestRepository) InsertServiceRequest(tx *sqlx.Tx, req *models.ServiceChangeRequest) error {
	req.ID = uuid.New()
	req.Status = models.RequestPending
	req.RequestedAt = time.Now()

	query := `
		INSERT INTO service_change_requests (
			id, technician_id, service_id, category_id, action, proof_url, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(query, req.ID, req.TechnicianID, req.ServiceID, req.CategoryID,
		req.Action, req.ProofURL, req.Status, req.RequestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(models.CodeDuplicatePendingRequest,
				"a pending request already exists for this service")
		}
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

// ListServiceRequests returns all service-change requests for a technician, newest first
func (r *MaintenanceRequestRepository) ListServiceRequests(technicianID uuid.UUID) ([]models.ServiceChangeRequest, error) {
	var reqs []models.ServiceChangeRequest
	query := `
		SELECT id, technician_id, service_id, category_id, action, proof_url,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM service_change_requests
		WHERE technician_id = $1
		ORDER BY requested_at DESC
	`
	if err := r.db.Select(&reqs, query, technicianID); err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	return reqs, nil
}

// GetServiceRequestForUpdate loads one service-change request inside tx with a row lock
func (r *MaintenanceRequestRepository) GetServiceRequestForUpdate(tx *sqlx.Tx, technicianID, requestID uuid.UUID) (*models.ServiceChangeRequest, error) {
	req := &models.ServiceChangeRequest{}
	query := `
		SELECT id, technician_id, service_id, category_id, action, proof_url,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM service_change_requests
		WHERE id = $1 AND technician_id = $2
		FOR UPDATE
	`
	if err := tx.Get(req, query, requestID, technicianID); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("service request", requestID.String())
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return req, nil
}

// HasPendingServiceRequest reports whether any pending request exists for serviceID
func (r *MaintenanceRequestRepository) HasPendingServiceRequest(tx *sqlx.Tx, technicianID uuid.UUID, serviceID string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM service_change_requests
		WHERE technician_id = $1 AND service_id = $2 AND status = 'pending'
	`
	if err := tx.Get(&count, query, technicianID, serviceID); err != nil {
		return false, fmt.Errorf("failed to check pending service requests: %w", err)
	}
	return count > 0, nil
}

// ---- zone-transfer requests ----

// InsertZoneRequest appends a pending zone-transfer request
func (r *MaintenanceRequestRepository) InsertZoneRequest(tx *sqlx.Tx, req *models.ZoneTransferRequest) error {
	req.ID = uuid.New()
	req.Status = models.RequestPending
	req.RequestedAt = time.Now()

	query := `
		INSERT INTO zone_transfer_requests (
			id, technician_id, current_zone_id, requested_zone_id, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(query, req.ID, req.TechnicianID, req.CurrentZoneID,
		req.RequestedZoneID, req.Status, req.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to insert zone request: %w", err)
	}
	return nil
}

// ListZoneRequests returns all zone-transfer requests for a technician, newest first
func (r *MaintenanceRequestRepository) ListZoneRequests(technicianID uuid.UUID) ([]models.ZoneTransferRequest, error) {
	var reqs []models.ZoneTransferRequest
	query := `
		SELECT id, technician_id, current_zone_id, requested_zone_id,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM zone_transfer_requests
		WHERE technician_id = $1
		ORDER BY requested_at DESC
	`
	if err := r.db.Select(&reqs, query, technicianID); err != nil {
		return nil, fmt.Errorf("failed to list zone requests: %w", err)
	}
	return reqs, nil
}

// GetZoneRequestForUpdate loads one zone-transfer request inside tx with a row lock
func (r *MaintenanceRequestRepository) GetZoneRequestForUpdate(tx *sqlx.Tx, technicianID, requestID uuid.UUID) (*models.ZoneTransferRequest, error) {
	req := &models.ZoneTransferRequest{}
	query := `
		SELECT id, technician_id, current_zone_id, requested_zone_id,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM zone_transfer_requests
		WHERE id = $1 AND technician_id = $2
		FOR UPDATE
	`
	if err := tx.Get(req, query, requestID, technicianID); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("zone request", requestID.String())
		}
		return nil, fmt.Errorf("failed to get zone request: %w", err)
	}
	return req, nil
}

// HasPendingZoneRequest reports whether the technician already has a pending transfer
func (r *MaintenanceRequestRepository) HasPendingZoneRequest(tx *sqlx.Tx, technicianID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM zone_transfer_requests WHERE technician_id = $1 AND status = 'pending'`
	if err := tx.Get(&count, query, technicianID); err != nil {
		return false, fmt.Errorf("failed to check pending zone requests: %w", err)
	}
	return count > 0, nil
}

// ---- bank-update requests ----

// InsertBankRequest appends a pending bank-update request. The partial unique
// index guarantees at most one pending bank change per technician even under
// concurrent submissions.
func (r *MaintenanceRequestRepository) InsertBankRequest(tx *sqlx.Tx, req *models.BankUpdateRequest) error {
	req.ID = uuid.New()
	req.Status = models.RequestPending
	req.RequestedAt = time.Now()

	query := `
		INSERT INTO bank_update_requests (
			id, technician_id, holder_name, account_number, ifsc_code, bank_name,
			proof_url, status, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(query, req.ID, req.TechnicianID, req.HolderName, req.AccountNumber,
		req.IFSCCode, req.BankName, req.ProofURL, req.Status, req.RequestedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(models.CodeDuplicatePendingRequest,
				"a bank update request is already pending")
		}
		return fmt.Errorf("failed to insert bank request: %w", err)
	}
	return nil
}

// ListBankRequests returns all bank-update requests for a technician, newest first
func (r *MaintenanceRequestRepository) ListBankRequests(technicianID uuid.UUID) ([]models.BankUpdateRequest, error) {
	var reqs []models.BankUpdateRequest
	query := `
		SELECT id, technician_id, holder_name, account_number, ifsc_code, bank_name, proof_url,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM bank_update_requests
		WHERE technician_id = $1
		ORDER BY requested_at DESC
	`
	if err := r.db.Select(&reqs, query, technicianID); err != nil {
		return nil, fmt.Errorf("failed to list bank requests: %w", err)
	}
	return reqs, nil
}

// GetBankRequestForUpdate loads one bank-update request inside tx with a row lock
func (r *MaintenanceRequestRepository) GetBankRequestForUpdate(tx *sqlx.Tx, technicianID, requestID uuid.UUID) (*models.BankUpdateRequest, error) {
	req := &models.BankUpdateRequest{}
	query := `
		SELECT id, technician_id, holder_name, account_number, ifsc_code, bank_name, proof_url,
		       status, admin_comments, requested_at, resolved_at, dismissed, archived
		FROM bank_update_requests
		WHERE id = $1 AND technician_id = $2
		FOR UPDATE
	`
	if err := tx.Get(req, query, requestID, technicianID); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("bank request", requestID.String())
		}
		return nil, fmt.Errorf("failed to get bank request: %w", err)
	}
	return req, nil
}

// HasPendingBankRequest reports whether a bank change is currently under review
func (r *MaintenanceRequestRepository) HasPendingBankRequest(tx *sqlx.Tx, technicianID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM bank_update_requests WHERE technician_id = $1 AND status = 'pending'`
	if err := tx.Get(&count, query, technicianID); err != nil {
		return false, fmt.Errorf("failed to check pending bank requests: %w", err)
	}
	return count > 0, nil
}

// ---- resolution and housekeeping (kind-generic) ----

// tableFor maps a request kind to its ledger table
func tableFor(kind models.RequestKind) (string, error) {
	switch kind {
	case models.KindServiceChange:
		return "service_change_requests", nil
	case models.KindZoneTransfer:
		return "zone_transfer_requests", nil
	case models.KindBankUpdate:
		return "bank_update_requests", nil
	}
	return "", models.NewValidationError("kind", fmt.Sprintf("unknown request kind %q", kind))
}

// MarkResolved transitions a pending request to its terminal status. The
// status guard makes resolution race-safe: the second of two concurrent
// resolutions updates zero rows and gets a Conflict, never a double apply.
func (r *MaintenanceRequestRepository) MarkResolved(tx *sqlx.Tx, kind models.RequestKind, technicianID, requestID uuid.UUID, status models.RequestStatus, comments *string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET status = $3, admin_comments = $4, resolved_at = NOW()
		WHERE id = $1 AND technician_id = $2 AND status = 'pending'
	`, table)

	result, err := tx.Exec(query, requestID, technicianID, status, comments)
	if err != nil {
		return fmt.Errorf("failed to resolve %s request: %w", kind, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve %s request: %w", kind, err)
	}
	if rows == 0 {
		return models.NewConflictError(models.CodeAlreadyResolved,
			"request has already been resolved")
	}
	return nil
}

// SetFlag sets the dismissed or archived housekeeping flag on a resolved
// request. Pending requests cannot be dismissed or archived.
func (r *MaintenanceRequestRepository) SetFlag(kind models.RequestKind, technicianID, requestID uuid.UUID, flag string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if flag != "dismissed" && flag != "archived" {
		return models.NewValidationError("flag", fmt.Sprintf("unknown flag %q", flag))
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = TRUE
		WHERE id = $1 AND technician_id = $2 AND status <> 'pending'
	`, table, flag)

	result, err := r.db.Exec(query, requestID, technicianID)
	if err != nil {
		return fmt.Errorf("failed to flag %s request: %w", kind, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to flag %s request: %w", kind, err)
	}
	if rows == 0 {
		// Either the id is unknown or the request is still pending
		var count int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = $1 AND technician_id = $2`, table)
		if err := r.db.Get(&count, countQuery, requestID, technicianID); err != nil {
			return fmt.Errorf("failed to flag %s request: %w", kind, err)
		}
		if count == 0 {
			return models.NewNotFoundError("maintenance request", requestID.String())
		}
		return models.NewConflictError(models.CodeNotResolvedYet,
			"request is still pending and cannot be dismissed or archived")
	}
	return nil
}
