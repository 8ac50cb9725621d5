package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"homescout/models"
)

// Postgres persists listings, POIs and amenity summaries to PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection, runs schema migrations, and returns a
// ready-to-use store.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pg := &Postgres{db: db}
	if err := pg.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pg, nil
}

func (pg *Postgres) migrate() error {
	_, err := pg.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id            SERIAL PRIMARY KEY,
			mls_id        VARCHAR(50)  UNIQUE NOT NULL,
			url           TEXT         NOT NULL DEFAULT '',
			address       TEXT         NOT NULL DEFAULT '',
			city          VARCHAR(100) NOT NULL DEFAULT '',
			latitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
			price         INTEGER      NOT NULL DEFAULT 0,
			bedrooms      INTEGER,
			bathrooms     INTEGER,
			sqft          INTEGER,
			property_type VARCHAR(50),
			listing_date  DATE,
			first_seen    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_seen     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			status        VARCHAR(20)  NOT NULL DEFAULT 'active',
			raw_data      JSONB
		);

		CREATE INDEX IF NOT EXISTS idx_listings_mls_id ON listings(mls_id);
		CREATE INDEX IF NOT EXISTS idx_listings_city   ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
		CREATE INDEX IF NOT EXISTS idx_listings_price  ON listings(price);

		CREATE TABLE IF NOT EXISTS points_of_interest (
			id         SERIAL PRIMARY KEY,
			osm_id     BIGINT       UNIQUE NOT NULL,
			type       VARCHAR(50)  NOT NULL,
			name       VARCHAR(255),
			geometry   JSONB        NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_pois_osm_id ON points_of_interest(osm_id);
		CREATE INDEX IF NOT EXISTS idx_pois_type   ON points_of_interest(type);

		CREATE TABLE IF NOT EXISTS listing_pois (
			listing_id INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			poi_id     INTEGER NOT NULL REFERENCES points_of_interest(id) ON DELETE CASCADE,
			distance_m INTEGER NOT NULL,
			PRIMARY KEY (listing_id, poi_id)
		);

		CREATE TABLE IF NOT EXISTS amenity_scores (
			listing_id        INTEGER PRIMARY KEY REFERENCES listings(id) ON DELETE CASCADE,
			nearest_park_m    INTEGER,
			nearest_coffee_m  INTEGER,
			nearest_dog_park_m INTEGER,
			parks             JSONB,
			coffee_shops      JSONB,
			dog_parks         JSONB,
			walkability_score INTEGER NOT NULL DEFAULT 0,
			amenity_score     INTEGER NOT NULL DEFAULT 0
		);
	`)
	return err
}

const listingColumns = `id, mls_id, url, address, city, latitude, longitude, price,
	bedrooms, bathrooms, sqft, property_type, listing_date,
	first_seen, last_seen, status, raw_data`

// GetListingByMLSID returns the listing for an MLS ID, or nil, nil when absent.
func (pg *Postgres) GetListingByMLSID(mlsID string) (*models.Listing, error) {
	row := pg.db.QueryRow(
		`SELECT `+listingColumns+` FROM listings WHERE mls_id = $1`, mlsID)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get listing %s: %w", mlsID, err)
	}
	return l, nil
}

// CreateListing inserts a new listing and fills in its generated ID.
func (pg *Postgres) CreateListing(l *models.Listing) error {
	err := pg.db.QueryRow(`
		INSERT INTO listings (mls_id, url, address, city, latitude, longitude, price,
			bedrooms, bathrooms, sqft, property_type, listing_date,
			first_seen, last_seen, status, raw_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id`,
		l.MLSID, l.URL, l.Address, l.City, l.Latitude, l.Longitude, l.Price,
		l.Bedrooms, l.Bathrooms, l.Sqft, nullString(l.PropertyType), l.ListingDate,
		l.FirstSeen, l.LastSeen, l.Status, nullJSON(l.RawData),
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("postgres: create listing %s: %w", l.MLSID, err)
	}
	return nil
}

// UpdateListing persists the mutable fields of a listing: price, timestamps,
// status and the raw payload. Address, coordinates and the rest of the
// first-sighting snapshot stay as originally recorded.
func (pg *Postgres) UpdateListing(l *models.Listing) error {
	_, err := pg.db.Exec(`
		UPDATE listings
		SET price = $1, last_seen = $2, status = $3, raw_data = $4
		WHERE id = $5`,
		l.Price, l.LastSeen, l.Status, nullJSON(l.RawData), l.ID)
	if err != nil {
		return fmt.Errorf("postgres: update listing %s: %w", l.MLSID, err)
	}
	return nil
}

// ActiveListings returns every listing currently marked active.
func (pg *Postgres) ActiveListings() ([]*models.Listing, error) {
	rows, err := pg.db.Query(
		`SELECT ` + listingColumns + ` FROM listings WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("postgres: active listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// FindPOI returns the internal ID for an OSM ID, if one exists.
func (pg *Postgres) FindPOI(osmID int64) (int64, bool, error) {
	var id int64
	err := pg.db.QueryRow(
		`SELECT id FROM points_of_interest WHERE osm_id = $1`, osmID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("postgres: find poi %d: %w", osmID, err)
	}
	return id, true, nil
}

// InsertPOI inserts a point of interest and returns its ID. A concurrent
// insert of the same osm_id resolves to the existing row.
func (pg *Postgres) InsertPOI(f *models.POIFeature) (int64, error) {
	geomJSON, err := json.Marshal(f.Geometry)
	if err != nil {
		return 0, fmt.Errorf("postgres: marshal geometry for poi %d: %w", f.OSMID, err)
	}

	var id int64
	err = pg.db.QueryRow(`
		INSERT INTO points_of_interest (osm_id, type, name, geometry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (osm_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		f.OSMID, string(f.Category), nullString(f.Name), geomJSON,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert poi %d: %w", f.OSMID, err)
	}
	return id, nil
}

// UpsertListingPOI creates or refreshes a listing↔POI link.
func (pg *Postgres) UpsertListingPOI(listingID, poiID int64, distanceM int) error {
	_, err := pg.db.Exec(`
		INSERT INTO listing_pois (listing_id, poi_id, distance_m)
		VALUES ($1, $2, $3)
		ON CONFLICT (listing_id, poi_id) DO UPDATE SET distance_m = EXCLUDED.distance_m`,
		listingID, poiID, distanceM)
	if err != nil {
		return fmt.Errorf("postgres: upsert listing poi link %d/%d: %w", listingID, poiID, err)
	}
	return nil
}

// LinkCount returns how many POI links a listing has.
func (pg *Postgres) LinkCount(listingID int64) (int, error) {
	var n int
	err := pg.db.QueryRow(
		`SELECT COUNT(*) FROM listing_pois WHERE listing_id = $1`, listingID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: link count for listing %d: %w", listingID, err)
	}
	return n, nil
}

// HasAmenitySummary reports whether a listing is already enriched.
func (pg *Postgres) HasAmenitySummary(listingID int64) (bool, error) {
	var exists bool
	err := pg.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM amenity_scores WHERE listing_id = $1)`, listingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: amenity summary exists for %d: %w", listingID, err)
	}
	return exists, nil
}

// UpsertAmenitySummary stores the enrichment result for a listing.
// Re-running enrichment overwrites the previous summary.
func (pg *Postgres) UpsertAmenitySummary(listingID int64, s *models.AmenitySummary) error {
	parks, err := json.Marshal(s.Parks)
	if err != nil {
		return fmt.Errorf("postgres: marshal parks: %w", err)
	}
	cafes, err := json.Marshal(s.CoffeeShops)
	if err != nil {
		return fmt.Errorf("postgres: marshal coffee shops: %w", err)
	}
	dogParks, err := json.Marshal(s.DogParks)
	if err != nil {
		return fmt.Errorf("postgres: marshal dog parks: %w", err)
	}

	_, err = pg.db.Exec(`
		INSERT INTO amenity_scores (listing_id, nearest_park_m, nearest_coffee_m,
			nearest_dog_park_m, parks, coffee_shops, dog_parks,
			walkability_score, amenity_score)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (listing_id) DO UPDATE SET
			nearest_park_m     = EXCLUDED.nearest_park_m,
			nearest_coffee_m   = EXCLUDED.nearest_coffee_m,
			nearest_dog_park_m = EXCLUDED.nearest_dog_park_m,
			parks              = EXCLUDED.parks,
			coffee_shops       = EXCLUDED.coffee_shops,
			dog_parks          = EXCLUDED.dog_parks,
			walkability_score  = EXCLUDED.walkability_score,
			amenity_score      = EXCLUDED.amenity_score`,
		listingID, s.NearestParkM, s.NearestCoffeeM, s.NearestDogParkM,
		parks, cafes, dogParks, s.WalkabilityScore, s.AmenityScore)
	if err != nil {
		return fmt.Errorf("postgres: upsert amenity summary for %d: %w", listingID, err)
	}
	return nil
}

func (pg *Postgres) Close() error {
	return pg.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	var (
		bedrooms, bathrooms, sqft sql.NullInt64
		propertyType              sql.NullString
		listingDate               sql.NullTime
		rawData                   []byte
	)

	err := row.Scan(
		&l.ID, &l.MLSID, &l.URL, &l.Address, &l.City, &l.Latitude, &l.Longitude,
		&l.Price, &bedrooms, &bathrooms, &sqft, &propertyType, &listingDate,
		&l.FirstSeen, &l.LastSeen, &l.Status, &rawData,
	)
	if err != nil {
		return nil, err
	}

	l.Bedrooms = nullableInt(bedrooms)
	l.Bathrooms = nullableInt(bathrooms)
	l.Sqft = nullableInt(sqft)
	if propertyType.Valid {
		l.PropertyType = propertyType.String
	}
	if listingDate.Valid {
		t := listingDate.Time
		l.ListingDate = &t
	}
	l.RawData = rawData

	return l, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
