package services

import (
	"testing"
	"time"

	"homescout/models"
	"homescout/storage"
	"homescout/utils"
)

func newTestEngine() (*SyncEngine, *storage.Memory) {
	store := storage.NewMemory()
	engine := NewSyncEngine(store, utils.NewLogger(), 48*time.Hour)
	return engine, store
}

func scrapedFixture(mlsID string, price int) *models.ScrapedListing {
	return &models.ScrapedListing{
		MLSID:     mlsID,
		URL:       "https://www.realtor.ca/real-estate/" + mlsID,
		Address:   "123 Main St",
		City:      "Vancouver",
		Latitude:  49.2827,
		Longitude: -123.1207,
		Price:     price,
		ScrapedAt: time.Now().UTC(),
	}
}

func TestUpsertCreatesNewListing(t *testing.T) {
	engine, _ := newTestEngine()

	listing, isNew, err := engine.Upsert(scrapedFixture("R100", 850000))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !isNew {
		t.Error("first sighting should report isNew=true")
	}
	if listing.Status != models.StatusActive {
		t.Errorf("status = %q; want active", listing.Status)
	}
	if !listing.FirstSeen.Equal(listing.LastSeen) {
		t.Error("first sighting should set first_seen == last_seen")
	}
}

func TestUpsertUpdatesExistingWithoutDuplicating(t *testing.T) {
	engine, store := newTestEngine()

	first, _, err := engine.Upsert(scrapedFixture("R100", 850000))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, isNew, err := engine.Upsert(scrapedFixture("R100", 799000))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if isNew {
		t.Error("re-sighting should report isNew=false")
	}
	if second.ID != first.ID {
		t.Errorf("re-sighting created a new record: id %d vs %d", second.ID, first.ID)
	}
	if second.Price != 799000 {
		t.Errorf("price = %d; want updated 799000", second.Price)
	}

	active, _ := store.ActiveListings()
	if len(active) != 1 {
		t.Errorf("store holds %d listings; want 1", len(active))
	}
}

func TestUpsertKeepsFirstSightingSnapshot(t *testing.T) {
	engine, store := newTestEngine()

	if _, _, err := engine.Upsert(scrapedFixture("R100", 850000)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	changed := scrapedFixture("R100", 850000)
	changed.Address = "456 Other Ave"
	changed.City = "Burnaby"
	if _, _, err := engine.Upsert(changed); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	stored, _ := store.GetListingByMLSID("R100")
	if stored.Address != "123 Main St" || stored.City != "Vancouver" {
		t.Errorf("re-sighting overwrote descriptive fields: %q / %q", stored.Address, stored.City)
	}
}

func TestUpsertReactivatesDelistedListing(t *testing.T) {
	engine, store := newTestEngine()

	listing, _, err := engine.Upsert(scrapedFixture("R100", 850000))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	listing.Status = models.StatusDelisted
	if err := store.UpdateListing(listing); err != nil {
		t.Fatalf("delist: %v", err)
	}

	relisted, isNew, err := engine.Upsert(scrapedFixture("R100", 860000))
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if isNew {
		t.Error("re-sighting of delisted listing should not be new")
	}
	if relisted.Status != models.StatusActive {
		t.Errorf("status = %q; want active after re-sighting", relisted.Status)
	}
}

func TestMarkDelistedHonoursStalenessWindow(t *testing.T) {
	engine, store := newTestEngine()

	ages := map[string]time.Duration{
		"FRESH": 24 * time.Hour, // missed once, within grace
		"STALE": 49 * time.Hour, // past the window
		"SEEN":  72 * time.Hour, // ancient but present in this pass
	}

	now := time.Now().UTC()
	for mlsID, age := range ages {
		engine.now = func() time.Time { return now.Add(-age) }
		if _, _, err := engine.Upsert(scrapedFixture(mlsID, 500000)); err != nil {
			t.Fatalf("seed %s: %v", mlsID, err)
		}
	}

	engine.now = func() time.Time { return now }
	delisted, err := engine.MarkDelisted(map[string]struct{}{"SEEN": {}})
	if err != nil {
		t.Fatalf("mark delisted: %v", err)
	}
	if delisted != 1 {
		t.Errorf("delisted %d listings; want 1", delisted)
	}

	wantStatus := map[string]string{
		"FRESH": models.StatusActive,
		"STALE": models.StatusDelisted,
		"SEEN":  models.StatusActive,
	}
	for mlsID, want := range wantStatus {
		stored, _ := store.GetListingByMLSID(mlsID)
		if stored.Status != want {
			t.Errorf("%s status = %q; want %q", mlsID, stored.Status, want)
		}
	}
}
