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

// technicianColumns is the canonical column list for technician scans
const technicianColumns = `
	id, user_id, full_name, phone, email, address, city,
	category_id, active_service_ids, active_zone_id,
	bank_holder_name, bank_account_number, bank_ifsc_code, bank_name,
	onboarding_step, verification_status, global_rejection_reason,
	created_at, updated_at`

// TechnicianRepository handles database operations for the technicians table
type TechnicianRepository struct {
	db DB
}

// NewTechnicianRepository creates a new technician repository
func NewTechnicianRepository(db DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

// Create registers a new technician in the pending state at step 1
func (r *TechnicianRepository) Create(userID uuid.UUID, fullName, phone string) (*models.Technician, error) {
	tech := &models.Technician{
		ID:                 uuid.New(),
		UserID:             userID,
		FullName:           fullName,
		Phone:              phone,
		ActiveServiceIDs:   pq.StringArray{},
		OnboardingStep:     models.StepPersonalDetails,
		VerificationStatus: models.VerificationPending,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	query := `
		INSERT INTO technicians (
			id, user_id, full_name, phone, active_service_ids,
			onboarding_step, verification_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		tech.ID, tech.UserID, tech.FullName, tech.Phone, tech.ActiveServiceIDs,
		tech.OnboardingStep, tech.VerificationStatus, tech.CreatedAt, tech.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create technician: %w", err)
	}

	return tech, nil
}

// GetByID retrieves a technician by ID
func (r *TechnicianRepository) GetByID(id uuid.UUID) (*models.Technician, error) {
	tech := &models.Technician{}
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id = $1`
	if err := r.db.Get(tech, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("technician", id.String())
		}
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}
	return tech, nil
}

// GetByUserID retrieves a technician by the owning user's ID
func (r *TechnicianRepository) GetByUserID(userID uuid.UUID) (*models.Technician, error) {
	tech := &models.Technician{}
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE user_id = $1`
	if err := r.db.Get(tech, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("technician", userID.String())
		}
		return nil, fmt.Errorf("failed to get technician by user: %w", err)
	}
	return tech, nil
}

// GetForUpdate loads a technician inside tx and takes a row lock, serializing
// all mutating operations on the aggregate
func (r *TechnicianRepository) GetForUpdate(tx *sqlx.Tx, id uuid.UUID) (*models.Technician, error) {
	tech := &models.Technician{}
	query := `SELECT ` + technicianColumns + ` FROM technicians WHERE id = $1 FOR UPDATE`
	if err := tx.Get(tech, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewNotFoundError("technician", id.String())
		}
		return nil, fmt.Errorf("failed to lock technician: %w", err)
	}
	return tech, nil
}

// UpdatePersonalDetails saves the step 1 payload
func (r *TechnicianRepository) UpdatePersonalDetails(tx *sqlx.Tx, id uuid.UUID, fullName string, email *string) error {
	query := `UPDATE technicians SET full_name = $2, email = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(query, id, fullName, email); err != nil {
		return fmt.Errorf("failed to update personal details: %w", err)
	}
	return nil
}

// UpdateAddress saves the step 2 payload
func (r *TechnicianRepository) UpdateAddress(tx *sqlx.Tx, id uuid.UUID, address, city string) error {
	query := `UPDATE technicians SET address = $2, city = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(query, id, address, city); err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	return nil
}

// UpdateWorkProfile saves the step 3 payload
func (r *TechnicianRepository) UpdateWorkProfile(tx *sqlx.Tx, id uuid.UUID, categoryID string, serviceIDs []string) error {
	query := `UPDATE technicians SET category_id = $2, active_service_ids = $3, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(query, id, categoryID, pq.StringArray(serviceIDs)); err != nil {
		return fmt.Errorf("failed to update work profile: %w", err)
	}
	return nil
}

// UpdateZone saves the step 4 payload
func (r *TechnicianRepository) UpdateZone(tx *sqlx.Tx, id uuid.UUID, zoneID string) error {
	query := `UPDATE technicians SET active_zone_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(query, id, zoneID); err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	return nil
}

// UpdateBankDetails saves the step 6 payload
func (r *TechnicianRepository) UpdateBankDetails(tx *sqlx.Tx, id uuid.UUID, bank models.BankDetails) error {
	query := `
		UPDATE technicians SET
			bank_holder_name = $2, bank_account_number = $3,
			bank_ifsc_code = $4, bank_name = $5, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(query, id, bank.HolderName, bank.AccountNumber, bank.IFSCCode, bank.BankName); err != nil {
		return fmt.Errorf("failed to update bank details: %w", err)
	}
	return nil
}

// UpdateProgress moves the onboarding step counter and verification status,
// and stores or clears the global rejection reason
func (r *TechnicianRepository) UpdateProgress(tx *sqlx.Tx, id uuid.UUID, step int, status models.VerificationStatus, globalReason *string) error {
	query := `
		UPDATE technicians SET
			onboarding_step = $2, verification_status = $3,
			global_rejection_reason = $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(query, id, step, status, globalReason); err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// UpdateActiveServices replaces the approved service set (maintenance approval side effect)
func (r *TechnicianRepository) UpdateActiveServices(tx *sqlx.Tx, id uuid.UUID, serviceIDs []string) error {
	query := `UPDATE technicians SET active_service_ids = $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(query, id, pq.StringArray(serviceIDs)); err != nil {
		return fmt.Errorf("failed to update active services: %w", err)
	}
	return nil
}

// ListPendingReview returns technicians awaiting an application decision
func (r *TechnicianRepository) ListPendingReview() ([]models.TechnicianSummary, error) {
	var rows []models.TechnicianSummary
	query := `
		SELECT id, full_name, phone, city, onboarding_step, verification_status, created_at
		FROM technicians
		WHERE verification_status = $1
		ORDER BY updated_at ASC
	`
	if err := r.db.Select(&rows, query, models.VerificationInReview); err != nil {
		return nil, fmt.Errorf("failed to list pending technicians: %w", err)
	}
	return rows, nil
}
