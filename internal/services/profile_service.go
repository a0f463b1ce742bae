package services

import (
	"github.com/google/uuid"

	"github.com/mistriconnect/technician-backend/internal/database"
	"github.com/mistriconnect/technician-backend/internal/models"
)

// ProfileService serves the read side of the workflow: technician profiles
// with their derived payout status, and the admin review queue.
type ProfileService struct {
	technicians *database.TechnicianRepository
	documents   *database.DocumentRepository
	requests    *database.MaintenanceRequestRepository
	catalog     *database.CatalogRepository
}

// NewProfileService creates a new profile service
func NewProfileService(
	technicians *database.TechnicianRepository,
	documents *database.DocumentRepository,
	requests *database.MaintenanceRequestRepository,
	catalog *database.CatalogRepository,
) *ProfileService {
	return &ProfileService{
		technicians: technicians,
		documents:   documents,
		requests:    requests,
		catalog:     catalog,
	}
}

// Register creates a new technician profile at step 1
func (s *ProfileService) Register(userID uuid.UUID, fullName, phone string) (*models.Technician, error) {
	if fullName == "" {
		return nil, models.NewValidationError("full_name", "full name is required")
	}
	if phone == "" {
		return nil, models.NewValidationError("phone", "phone is required")
	}
	return s.technicians.Create(userID, fullName, phone)
}

// GetByUserID returns the technician owned by the given platform user
func (s *ProfileService) GetByUserID(userID uuid.UUID) (*models.Technician, error) {
	return s.technicians.GetByUserID(userID)
}

// GetProfile assembles the full technician projection: the aggregate, its
// document ledger, all three request ledgers, and the payout status derived
// from the pending bank requests at read time.
func (s *ProfileService) GetProfile(technicianID uuid.UUID) (*models.TechnicianProfile, error) {
	tech, err := s.technicians.GetByID(technicianID)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.ListByTechnician(technicianID)
	if err != nil {
		return nil, err
	}
	serviceReqs, err := s.requests.ListServiceRequests(technicianID)
	if err != nil {
		return nil, err
	}
	zoneReqs, err := s.requests.ListZoneRequests(technicianID)
	if err != nil {
		return nil, err
	}
	bankReqs, err := s.requests.ListBankRequests(technicianID)
	if err != nil {
		return nil, err
	}

	return &models.TechnicianProfile{
		Technician:      *tech,
		Documents:       docs,
		ServiceRequests: serviceReqs,
		ZoneRequests:    zoneReqs,
		BankRequests:    bankReqs,
		PayoutStatus:    models.PayoutStatusFor(bankReqs),
	}, nil
}

// ListPendingReview returns the admin queue of applications awaiting a decision
func (s *ProfileService) ListPendingReview() ([]models.TechnicianSummary, error) {
	return s.technicians.ListPendingReview()
}

// ListZones returns the serviceable zone catalog
func (s *ProfileService) ListZones() ([]models.Zone, error) {
	return s.catalog.ListZones()
}
