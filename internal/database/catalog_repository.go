package database

import (
	"fmt"

	"github.com/mistriconnect/technician-backend/internal/models"
)

// CatalogRepository reads the zone and service catalogs. The workflow engine
// treats the ids as opaque and only checks existence.
type CatalogRepository struct {
	db DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListZones returns all serviceable zones
func (r *CatalogRepository) ListZones() ([]models.Zone, error) {
	var zones []models.Zone
	query := `SELECT id, name, city, center_lat, center_lng FROM zones ORDER BY city, name`
	if err := r.db.Select(&zones, query); err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

// ZoneExists reports whether zoneID names a serviceable zone
func (r *CatalogRepository) ZoneExists(zoneID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM zones WHERE id = $1`
	if err := r.db.Get(&count, query, zoneID); err != nil {
		return false, fmt.Errorf("failed to check zone: %w", err)
	}
	return count > 0, nil
}

// ServiceExists reports whether serviceID belongs to categoryID in the catalog
func (r *CatalogRepository) ServiceExists(serviceID, categoryID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM service_catalog WHERE id = $1 AND category_id = $2`
	if err := r.db.Get(&count, query, serviceID, categoryID); err != nil {
		return false, fmt.Errorf("failed to check service: %w", err)
	}
	return count > 0, nil
}
