package storage

import "homescout/models"

// ListingStore is the persistence surface the sync engine needs.
type ListingStore interface {
	// GetListingByMLSID returns nil, nil when no listing exists for the ID.
	GetListingByMLSID(mlsID string) (*models.Listing, error)
	CreateListing(l *models.Listing) error
	UpdateListing(l *models.Listing) error
	ActiveListings() ([]*models.Listing, error)
}

// POIStore persists points of interest and their listing links.
type POIStore interface {
	// FindPOI returns the internal ID for an OSM ID, if one exists.
	FindPOI(osmID int64) (int64, bool, error)
	InsertPOI(f *models.POIFeature) (int64, error)
	// UpsertListingPOI creates or refreshes a listing↔POI link; re-linking
	// the same pair updates the distance instead of duplicating the row.
	UpsertListingPOI(listingID, poiID int64, distanceM int) error
	LinkCount(listingID int64) (int, error)
}

// AmenityStore persists per-listing enrichment results.
type AmenityStore interface {
	HasAmenitySummary(listingID int64) (bool, error)
	UpsertAmenitySummary(listingID int64, s *models.AmenitySummary) error
}

// Store is the full persistence surface of the pipeline.
type Store interface {
	ListingStore
	POIStore
	AmenityStore
	Close() error
}
