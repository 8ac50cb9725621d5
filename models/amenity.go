package models

import "homescout/geo"

// AmenityCategory identifies one kind of nearby amenity we score against.
type AmenityCategory string

const (
	CategoryPark       AmenityCategory = "park"
	CategoryCoffeeShop AmenityCategory = "coffee_shop"
	CategoryDogPark    AmenityCategory = "dog_park"
)

// Categories lists every category in scoring order.
var Categories = []AmenityCategory{CategoryPark, CategoryCoffeeShop, CategoryDogPark}

// CategorySpec holds the per-category search and truncation parameters.
type CategorySpec struct {
	RadiusM     int
	MaxResults  int
	DefaultName string
}

// CategorySpecs maps each category to its search radius, result cap and the
// name used for unnamed features.
var CategorySpecs = map[AmenityCategory]CategorySpec{
	CategoryPark:       {RadiusM: 1000, MaxResults: 10, DefaultName: "Unnamed Park"},
	CategoryCoffeeShop: {RadiusM: 1000, MaxResults: 10, DefaultName: "Unnamed Cafe"},
	CategoryDogPark:    {RadiusM: 2000, MaxResults: 5, DefaultName: "Unnamed Dog Park"},
}

// POIFeature is one normalized nearby feature: a park, cafe or dog park with
// a stable OSM identity, geometry and distance from the query location.
type POIFeature struct {
	OSMID     int64           `json:"osm_id"`
	Category  AmenityCategory `json:"type"`
	Name      string          `json:"name"`
	Geometry  *geo.Geometry   `json:"geometry"`
	Lat       float64         `json:"lat"`
	Lng       float64         `json:"lng"`
	DistanceM int             `json:"distance_m"`
}

// AmenitySummary is the per-listing enrichment result. Nearest distances are
// nil when nothing was found within the category radius.
type AmenitySummary struct {
	NearestParkM     *int          `json:"nearest_park_m"`
	NearestCoffeeM   *int          `json:"nearest_coffee_m"`
	NearestDogParkM  *int          `json:"nearest_dog_park_m"`
	Parks            []*POIFeature `json:"parks"`
	CoffeeShops      []*POIFeature `json:"coffee_shops"`
	DogParks         []*POIFeature `json:"dog_parks"`
	WalkabilityScore int           `json:"walkability_score"`
	AmenityScore     int           `json:"amenity_score"`
}

// AllFeatures returns every feature in the summary, category by category.
func (s *AmenitySummary) AllFeatures() []*POIFeature {
	out := make([]*POIFeature, 0, len(s.Parks)+len(s.CoffeeShops)+len(s.DogParks))
	out = append(out, s.Parks...)
	out = append(out, s.CoffeeShops...)
	out = append(out, s.DogParks...)
	return out
}
