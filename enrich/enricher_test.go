package enrich

import (
	"context"
	"sync"
	"testing"
	"time"

	"homescout/geo"
	"homescout/models"
	"homescout/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

// stubSource serves canned elements per category and records call times.
type stubSource struct {
	mu        sync.Mutex
	elements  map[models.AmenityCategory][]geo.Element
	callTimes []time.Time
	delay     time.Duration
}

func (s *stubSource) Nearby(_ context.Context, category models.AmenityCategory, _, _ float64) []geo.Element {
	s.mu.Lock()
	s.callTimes = append(s.callTimes, time.Now())
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.elements[category]
}

func nodeAt(id int64, lat, lng float64, name string) geo.Element {
	el := geo.Element{Type: "node", ID: id, Lat: &lat, Lon: &lng}
	if name != "" {
		el.Tags = map[string]string{"name": name}
	}
	return el
}

func TestEnrichAssemblesSummary(t *testing.T) {
	origin := geo.LatLng{Lat: 49.2827, Lng: -123.1207}
	source := &stubSource{elements: map[models.AmenityCategory][]geo.Element{
		models.CategoryPark: {
			nodeAt(1, 49.2845, -123.1207, "Near Park"),  // ~200m
			nodeAt(2, 49.2900, -123.1207, "Far Park"),   // ~810m
		},
		models.CategoryCoffeeShop: {
			nodeAt(3, 49.2830, -123.1207, "Corner Cafe"), // ~33m
		},
		models.CategoryDogPark: {},
	}}

	e := NewEnricher(source, newTestLogger())
	summary := e.Enrich(context.Background(), origin.Lat, origin.Lng)

	if len(summary.Parks) != 2 {
		t.Fatalf("parks: got %d; want 2", len(summary.Parks))
	}
	if summary.Parks[0].Name != "Near Park" {
		t.Errorf("parks not sorted by distance: nearest is %q", summary.Parks[0].Name)
	}
	if summary.NearestParkM == nil || *summary.NearestParkM != summary.Parks[0].DistanceM {
		t.Errorf("nearest park distance not taken from head of sorted list")
	}
	if summary.NearestCoffeeM == nil {
		t.Error("nearest coffee distance missing")
	}
	if summary.NearestDogParkM != nil {
		t.Errorf("nearest dog park = %d; want nil for empty category", *summary.NearestDogParkM)
	}
	if summary.WalkabilityScore <= 0 {
		t.Errorf("walkability score = %d; want > 0", summary.WalkabilityScore)
	}
	if summary.AmenityScore != summary.WalkabilityScore {
		t.Errorf("amenity score %d != walkability score %d", summary.AmenityScore, summary.WalkabilityScore)
	}
}

func TestEnrichTruncatesPerCategoryCaps(t *testing.T) {
	many := func(category models.AmenityCategory, n int) []geo.Element {
		els := make([]geo.Element, n)
		for i := range els {
			els[i] = nodeAt(int64(i+1), 49.2827+float64(i)*0.001, -123.1207, "")
		}
		return els
	}

	source := &stubSource{elements: map[models.AmenityCategory][]geo.Element{
		models.CategoryPark:       many(models.CategoryPark, 20),
		models.CategoryCoffeeShop: many(models.CategoryCoffeeShop, 20),
		models.CategoryDogPark:    many(models.CategoryDogPark, 20),
	}}

	e := NewEnricher(source, newTestLogger())
	summary := e.Enrich(context.Background(), 49.2827, -123.1207)

	if len(summary.Parks) != 10 {
		t.Errorf("parks: got %d; want 10", len(summary.Parks))
	}
	if len(summary.CoffeeShops) != 10 {
		t.Errorf("coffee shops: got %d; want 10", len(summary.CoffeeShops))
	}
	if len(summary.DogParks) != 5 {
		t.Errorf("dog parks: got %d; want 5", len(summary.DogParks))
	}
}

func TestEnrichDropsUnusableElements(t *testing.T) {
	source := &stubSource{elements: map[models.AmenityCategory][]geo.Element{
		models.CategoryPark: {
			{Type: "way", ID: 1}, // no geometry, no center
			nodeAt(2, 49.2845, -123.1207, "Usable Park"),
		},
	}}

	e := NewEnricher(source, newTestLogger())
	summary := e.Enrich(context.Background(), 49.2827, -123.1207)

	if len(summary.Parks) != 1 {
		t.Fatalf("parks: got %d; want 1 (unusable element dropped)", len(summary.Parks))
	}
	if summary.Parks[0].Name != "Usable Park" {
		t.Errorf("kept the wrong element: %q", summary.Parks[0].Name)
	}
}

func TestEnrichUsesDefaultNames(t *testing.T) {
	source := &stubSource{elements: map[models.AmenityCategory][]geo.Element{
		models.CategoryPark: {nodeAt(1, 49.2845, -123.1207, "")},
	}}

	e := NewEnricher(source, newTestLogger())
	summary := e.Enrich(context.Background(), 49.2827, -123.1207)

	if len(summary.Parks) != 1 || summary.Parks[0].Name != "Unnamed Park" {
		t.Errorf("unnamed park should default to %q", "Unnamed Park")
	}
}

func TestEnrichQueriesCategoriesConcurrently(t *testing.T) {
	source := &stubSource{
		elements: map[models.AmenityCategory][]geo.Element{},
		delay:    200 * time.Millisecond,
	}

	e := NewEnricher(source, newTestLogger())
	e.Enrich(context.Background(), 49.2827, -123.1207)

	if len(source.callTimes) != 3 {
		t.Fatalf("got %d category queries; want 3", len(source.callTimes))
	}

	var min, max time.Time
	for i, ts := range source.callTimes {
		if i == 0 || ts.Before(min) {
			min = ts
		}
		if i == 0 || ts.After(max) {
			max = ts
		}
	}
	if spread := max.Sub(min); spread >= 500*time.Millisecond {
		t.Errorf("query start spread = %v; want < 500ms (all in flight before any completes)", spread)
	}
}
