package services

import (
	"fmt"
	"time"

	"homescout/models"
	"homescout/storage"
	"homescout/utils"
)

// SyncEngine reconciles freshly scraped records against persisted listings.
// Per MLS ID the lifecycle is absent → active → delisted, with a re-sighting
// reactivating a delisted listing immediately.
type SyncEngine struct {
	store     storage.ListingStore
	logger    *utils.Logger
	staleness time.Duration
	now       func() time.Time
}

// NewSyncEngine creates a SyncEngine with the given staleness window: the
// grace period a listing may go unseen before it is delisted.
func NewSyncEngine(store storage.ListingStore, logger *utils.Logger, staleness time.Duration) *SyncEngine {
	return &SyncEngine{
		store:     store,
		logger:    logger,
		staleness: staleness,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts or updates the listing for a scraped record and reports
// whether it was newly created.
//
// On first sighting the whole record is stored with status active and
// first_seen = last_seen = now. On re-sighting only price, last_seen and the
// raw payload are refreshed; first_seen and the descriptive fields keep their
// first-sighting values. A delisted listing that reappears becomes active.
func (e *SyncEngine) Upsert(scraped *models.ScrapedListing) (*models.Listing, bool, error) {
	existing, err := e.store.GetListingByMLSID(scraped.MLSID)
	if err != nil {
		return nil, false, fmt.Errorf("sync: look up %s: %w", scraped.MLSID, err)
	}

	now := e.now()

	if existing != nil {
		existing.Price = scraped.Price
		existing.LastSeen = now
		existing.RawData = scraped.RawData
		if existing.Status == models.StatusDelisted {
			e.logger.Info("[sync] Relisted: %s", existing.MLSID)
			existing.Status = models.StatusActive
		}
		if err := e.store.UpdateListing(existing); err != nil {
			return nil, false, fmt.Errorf("sync: update %s: %w", scraped.MLSID, err)
		}
		return existing, false, nil
	}

	listing := &models.Listing{
		MLSID:        scraped.MLSID,
		URL:          scraped.URL,
		Address:      scraped.Address,
		City:         scraped.City,
		Latitude:     scraped.Latitude,
		Longitude:    scraped.Longitude,
		Price:        scraped.Price,
		Bedrooms:     scraped.Bedrooms,
		Bathrooms:    scraped.Bathrooms,
		Sqft:         scraped.Sqft,
		PropertyType: scraped.PropertyType,
		ListingDate:  scraped.ListingDate,
		FirstSeen:    now,
		LastSeen:     now,
		Status:       models.StatusActive,
		RawData:      scraped.RawData,
	}
	if err := e.store.CreateListing(listing); err != nil {
		return nil, false, fmt.Errorf("sync: create %s: %w", scraped.MLSID, err)
	}
	return listing, true, nil
}

// MarkDelisted transitions active listings absent from the current scrape
// pass to delisted, but only once they have gone unseen for longer than the
// staleness window. A single missed pass is tolerated, so partial or
// incremental scrapes do not delist anything prematurely. Returns the number
// of listings delisted.
func (e *SyncEngine) MarkDelisted(seen map[string]struct{}) (int, error) {
	active, err := e.store.ActiveListings()
	if err != nil {
		return 0, fmt.Errorf("sync: load active listings: %w", err)
	}

	now := e.now()
	delisted := 0

	for _, listing := range active {
		if _, ok := seen[listing.MLSID]; ok {
			continue
		}
		if now.Sub(listing.LastSeen) <= e.staleness {
			continue
		}

		listing.Status = models.StatusDelisted
		if err := e.store.UpdateListing(listing); err != nil {
			return delisted, fmt.Errorf("sync: delist %s: %w", listing.MLSID, err)
		}
		e.logger.Info("[sync] Delisted: %s (last seen %s)", listing.MLSID,
			listing.LastSeen.Format(time.RFC3339))
		delisted++
	}

	return delisted, nil
}
