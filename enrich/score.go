package enrich

import "homescout/models"

// Scoring bands. Distances are meters from the listing.
const (
	maxScore = 100

	parkBonusRadiusM   = 1000
	coffeeBonusRadiusM = 500

	perExtraAmenity = 2
	extraAmenityCap = 10
	comboAllThree   = 20
	comboParkCoffee = 10
	comboSingleKind = 5
)

// WalkabilityScore maps an amenity summary to a 0-100 score. Each category
// contributes a tiered amount by nearest distance, plus small per-amenity
// bonuses and a combination bonus for covering multiple categories at once.
// Deterministic, additive, capped at 100; an empty summary scores 0.
func WalkabilityScore(s *models.AmenitySummary) int {
	score := 0

	if s.NearestParkM != nil {
		switch d := *s.NearestParkM; {
		case d <= 200:
			score += 20
		case d <= 500:
			score += 15
		case d <= 1000:
			score += 10
		}
	}
	score += extraBonus(countWithin(s.Parks, parkBonusRadiusM))

	if s.NearestCoffeeM != nil {
		switch d := *s.NearestCoffeeM; {
		case d <= 150:
			score += 15
		case d <= 300:
			score += 12
		case d <= 500:
			score += 8
		}
	}
	score += extraBonus(countWithin(s.CoffeeShops, coffeeBonusRadiusM))

	if s.NearestDogParkM != nil {
		switch d := *s.NearestDogParkM; {
		case d <= 500:
			score += 15
		case d <= 1000:
			score += 10
		case d <= 2000:
			score += 5
		}
	}

	hasPark := s.NearestParkM != nil && *s.NearestParkM <= 1000
	hasCoffee := s.NearestCoffeeM != nil && *s.NearestCoffeeM <= 500
	hasDogPark := s.NearestDogParkM != nil && *s.NearestDogParkM <= 2000

	switch {
	case hasPark && hasCoffee && hasDogPark:
		score += comboAllThree
	case hasPark && hasCoffee:
		score += comboParkCoffee
	case hasPark || hasCoffee:
		score += comboSingleKind
	}

	if score > maxScore {
		return maxScore
	}
	return score
}

func countWithin(feats []*models.POIFeature, radiusM int) int {
	n := 0
	for _, f := range feats {
		if f.DistanceM <= radiusM {
			n++
		}
	}
	return n
}

func extraBonus(count int) int {
	bonus := count * perExtraAmenity
	if bonus > extraAmenityCap {
		return extraAmenityCap
	}
	return bonus
}
