package models

import (
	"encoding/json"
	"time"
)

// Listing status values. A listing is active from first sighting until the
// delisting policy retires it; a re-sighting reactivates it.
const (
	StatusActive   = "active"
	StatusDelisted = "delisted"
)

// ScrapedListing holds one listing exactly as the external source reported it
// at scrape time. Immutable once constructed.
type ScrapedListing struct {
	MLSID        string
	URL          string
	Address      string
	City         string
	Latitude     float64
	Longitude    float64
	Price        int
	Bedrooms     *int
	Bathrooms    *int
	Sqft         *int
	PropertyType string
	ListingDate  *time.Time
	RawData      json.RawMessage
	ScrapedAt    time.Time
}

// Listing is the durable record of a listing, keyed by MLSID (unique).
type Listing struct {
	ID           int64
	MLSID        string
	URL          string
	Address      string
	City         string
	Latitude     float64
	Longitude    float64
	Price        int
	Bedrooms     *int
	Bathrooms    *int
	Sqft         *int
	PropertyType string
	ListingDate  *time.Time
	FirstSeen    time.Time
	LastSeen     time.Time
	Status       string
	RawData      json.RawMessage
}

// SyncReport summarises one scrape-and-enrich run.
type SyncReport struct {
	TotalFetched   int
	NewListings    int
	Updated        int
	Delisted       int
	Enriched       int
	EnrichFailed   int
	AvgWalkScore   float64
	ScoreBuckets   map[string]int // "0-24", "25-49", "50-74", "75-100"
	ListingsByCity map[string]int
}
