package models

// Zone is one serviceable area from the geo catalog. The workflow engine
// treats zone ids as opaque; the center point exists for zone pickers.
type Zone struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	City      string  `json:"city" db:"city"`
	CenterLat float64 `json:"center_lat" db:"center_lat"`
	CenterLng float64 `json:"center_lng" db:"center_lng"`
}

// CatalogService is one bookable service from the catalog
type CatalogService struct {
	ID         string `json:"id" db:"id"`
	CategoryID string `json:"category_id" db:"category_id"`
	Name       string `json:"name" db:"name"`
}
