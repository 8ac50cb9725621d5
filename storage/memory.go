package storage

import (
	"sync"

	"homescout/models"
)

// Memory is an in-process Store used by tests and dry runs. It mirrors the
// Postgres store's semantics, including upsert behaviour for POI links.
type Memory struct {
	mu sync.Mutex

	nextListingID int64
	nextPOIID     int64

	listingsByMLS map[string]*models.Listing
	poisByOSM     map[int64]int64 // osm_id → internal id
	pois          map[int64]*models.POIFeature
	links         map[int64]map[int64]int // listing_id → poi_id → distance_m
	summaries     map[int64]*models.AmenitySummary
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		listingsByMLS: make(map[string]*models.Listing),
		poisByOSM:     make(map[int64]int64),
		pois:          make(map[int64]*models.POIFeature),
		links:         make(map[int64]map[int64]int),
		summaries:     make(map[int64]*models.AmenitySummary),
	}
}

func (m *Memory) GetListingByMLSID(mlsID string) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listingsByMLS[mlsID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *Memory) CreateListing(l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextListingID++
	l.ID = m.nextListingID
	cp := *l
	m.listingsByMLS[l.MLSID] = &cp
	return nil
}

func (m *Memory) UpdateListing(l *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.listingsByMLS[l.MLSID]
	if !ok {
		return nil
	}
	// Only the fields the pipeline is allowed to mutate.
	stored.Price = l.Price
	stored.LastSeen = l.LastSeen
	stored.Status = l.Status
	stored.RawData = l.RawData
	return nil
}

func (m *Memory) ActiveListings() ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Listing
	for _, l := range m.listingsByMLS {
		if l.Status == models.StatusActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) FindPOI(osmID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.poisByOSM[osmID]
	return id, ok, nil
}

func (m *Memory) InsertPOI(f *models.POIFeature) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.poisByOSM[f.OSMID]; ok {
		return id, nil
	}
	m.nextPOIID++
	m.poisByOSM[f.OSMID] = m.nextPOIID
	m.pois[m.nextPOIID] = f
	return m.nextPOIID, nil
}

func (m *Memory) UpsertListingPOI(listingID, poiID int64, distanceM int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.links[listingID] == nil {
		m.links[listingID] = make(map[int64]int)
	}
	m.links[listingID][poiID] = distanceM
	return nil
}

func (m *Memory) LinkCount(listingID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links[listingID]), nil
}

// LinkDistance returns the stored distance for one listing↔POI link.
func (m *Memory) LinkDistance(listingID, poiID int64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.links[listingID][poiID]
	return d, ok
}

func (m *Memory) HasAmenitySummary(listingID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.summaries[listingID]
	return ok, nil
}

func (m *Memory) UpsertAmenitySummary(listingID int64, s *models.AmenitySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summaries[listingID] = s
	return nil
}

func (m *Memory) Close() error {
	return nil
}
