package enrich

import (
	"testing"

	"homescout/models"
)

func iptr(v int) *int { return &v }

func featuresAt(category models.AmenityCategory, distances ...int) []*models.POIFeature {
	out := make([]*models.POIFeature, len(distances))
	for i, d := range distances {
		out[i] = &models.POIFeature{Category: category, DistanceM: d}
	}
	return out
}

func TestScoreEmptySummaryIsZero(t *testing.T) {
	if got := WalkabilityScore(&models.AmenitySummary{}); got != 0 {
		t.Errorf("score of empty summary = %d; want 0", got)
	}
}

func TestScoreParkBands(t *testing.T) {
	tests := []struct {
		distance int
		want     int
	}{
		// band points + 2 for the one park within 1km + 5 single-kind bonus
		{150, 20 + 2 + 5},
		{400, 15 + 2 + 5},
		{800, 10 + 2 + 5},
		{1500, 0}, // outside every band, no bonuses
	}

	for _, tt := range tests {
		s := &models.AmenitySummary{
			NearestParkM: iptr(tt.distance),
			Parks:        featuresAt(models.CategoryPark, tt.distance),
		}
		if got := WalkabilityScore(s); got != tt.want {
			t.Errorf("park at %dm: score = %d; want %d", tt.distance, got, tt.want)
		}
	}
}

func TestScoreCoffeeBands(t *testing.T) {
	tests := []struct {
		distance int
		want     int
	}{
		{100, 15 + 2 + 5},
		{250, 12 + 2 + 5},
		{400, 8 + 2 + 5},
		{600, 0},
	}

	for _, tt := range tests {
		s := &models.AmenitySummary{
			NearestCoffeeM: iptr(tt.distance),
			CoffeeShops:    featuresAt(models.CategoryCoffeeShop, tt.distance),
		}
		if got := WalkabilityScore(s); got != tt.want {
			t.Errorf("coffee at %dm: score = %d; want %d", tt.distance, got, tt.want)
		}
	}
}

func TestScoreDogParkBands(t *testing.T) {
	tests := []struct {
		distance int
		want     int
	}{
		{400, 15},
		{800, 10},
		{1500, 5},
		{2500, 0},
	}

	for _, tt := range tests {
		s := &models.AmenitySummary{NearestDogParkM: iptr(tt.distance)}
		if got := WalkabilityScore(s); got != tt.want {
			t.Errorf("dog park at %dm: score = %d; want %d", tt.distance, got, tt.want)
		}
	}
}

func TestScoreCloserIsNeverWorse(t *testing.T) {
	// Sweep each category's nearest distance and check monotonicity.
	distances := []int{50, 100, 150, 200, 300, 400, 500, 800, 1000, 1500, 2000, 2500}

	build := map[string]func(d int) *models.AmenitySummary{
		"park": func(d int) *models.AmenitySummary {
			return &models.AmenitySummary{NearestParkM: iptr(d), Parks: featuresAt(models.CategoryPark, d)}
		},
		"coffee": func(d int) *models.AmenitySummary {
			return &models.AmenitySummary{NearestCoffeeM: iptr(d), CoffeeShops: featuresAt(models.CategoryCoffeeShop, d)}
		},
		"dog_park": func(d int) *models.AmenitySummary {
			return &models.AmenitySummary{NearestDogParkM: iptr(d)}
		},
	}

	for name, mk := range build {
		prev := -1
		for i := len(distances) - 1; i >= 0; i-- { // far to near
			got := WalkabilityScore(mk(distances[i]))
			if prev >= 0 && got < prev {
				t.Errorf("%s: score at %dm (%d) worse than at %dm (%d)",
					name, distances[i], got, distances[i+1], prev)
			}
			prev = got
		}
	}
}

func TestScoreExtraAmenityBonusCapped(t *testing.T) {
	s := &models.AmenitySummary{
		NearestParkM: iptr(200),
		Parks:        featuresAt(models.CategoryPark, 200, 500, 800, 900, 950, 990),
	}
	// 20 (nearest) + 10 (6 parks × 2 capped) + 5 (single-kind combo) = 35
	if got := WalkabilityScore(s); got != 35 {
		t.Errorf("score = %d; want 35 (extra-park bonus capped at 10)", got)
	}
}

func TestScoreCombinationBonuses(t *testing.T) {
	all := &models.AmenitySummary{
		NearestParkM:    iptr(500),
		NearestCoffeeM:  iptr(300),
		NearestDogParkM: iptr(1500),
		Parks:           featuresAt(models.CategoryPark, 500),
		CoffeeShops:     featuresAt(models.CategoryCoffeeShop, 300),
	}
	// 15 + 2 + 12 + 2 + 5 + 20 = 56
	if got := WalkabilityScore(all); got != 56 {
		t.Errorf("all three nearby: score = %d; want 56", got)
	}

	parkAndCoffee := &models.AmenitySummary{
		NearestParkM:   iptr(500),
		NearestCoffeeM: iptr(300),
		Parks:          featuresAt(models.CategoryPark, 500),
		CoffeeShops:    featuresAt(models.CategoryCoffeeShop, 300),
	}
	// 15 + 2 + 12 + 2 + 10 = 41
	if got := WalkabilityScore(parkAndCoffee); got != 41 {
		t.Errorf("park+coffee: score = %d; want 41", got)
	}
}

func TestScoreCappedAt100(t *testing.T) {
	parks := make([]int, 10)
	cafes := make([]int, 10)
	for i := range parks {
		parks[i] = 100 + i
		cafes[i] = 50 + i
	}

	s := &models.AmenitySummary{
		NearestParkM:    iptr(100),
		NearestCoffeeM:  iptr(50),
		NearestDogParkM: iptr(200),
		Parks:           featuresAt(models.CategoryPark, parks...),
		CoffeeShops:     featuresAt(models.CategoryCoffeeShop, cafes...),
	}
	got := WalkabilityScore(s)
	if got > 100 {
		t.Errorf("saturated summary: score = %d; must never exceed 100", got)
	}
	// 20 + 10 + 15 + 10 + 15 + 20: every band and bonus maxed out.
	if got != 90 {
		t.Errorf("saturated summary: score = %d; want 90", got)
	}
}
