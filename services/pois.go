package services

import (
	"fmt"

	"homescout/models"
	"homescout/storage"
	"homescout/utils"
)

// POILinker persists points of interest and links them to listings with
// distance annotations. POIs are deduplicated by OSM ID across all listings;
// re-running enrichment refreshes link distances instead of duplicating rows.
type POILinker struct {
	store  storage.POIStore
	logger *utils.Logger
}

// NewPOILinker creates a POILinker backed by the given store.
func NewPOILinker(store storage.POIStore, logger *utils.Logger) *POILinker {
	return &POILinker{store: store, logger: logger}
}

// UpsertPOIs stores each feature (inserting only those whose OSM ID is not
// yet known) and upserts the listing↔POI link with the feature's distance.
// The returned IDs follow the input order.
func (p *POILinker) UpsertPOIs(listingID int64, features []*models.POIFeature) ([]int64, error) {
	if len(features) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(features))

	for _, f := range features {
		poiID, found, err := p.store.FindPOI(f.OSMID)
		if err != nil {
			return ids, fmt.Errorf("pois: find %d: %w", f.OSMID, err)
		}
		if !found {
			poiID, err = p.store.InsertPOI(f)
			if err != nil {
				return ids, fmt.Errorf("pois: insert %d: %w", f.OSMID, err)
			}
			p.logger.Debug("[pois] New POI %d (%s %q)", f.OSMID, f.Category, f.Name)
		}
		ids = append(ids, poiID)

		if err := p.store.UpsertListingPOI(listingID, poiID, f.DistanceM); err != nil {
			return ids, fmt.Errorf("pois: link listing %d to poi %d: %w", listingID, poiID, err)
		}
	}

	return ids, nil
}
