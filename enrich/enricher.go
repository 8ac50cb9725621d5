// Package enrich turns a listing coordinate into an amenity summary: nearby
// parks, coffee shops and dog parks with distances, plus a walkability score.
package enrich

import (
	"context"
	"sort"
	"sync"

	"homescout/geo"
	"homescout/models"
	"homescout/utils"
)

// AmenitySource fetches raw nearby-feature records for one category. A
// failed query yields an empty slice, never an error.
type AmenitySource interface {
	Nearby(ctx context.Context, category models.AmenityCategory, lat, lng float64) []geo.Element
}

// Enricher fans out one query per amenity category and assembles the result.
type Enricher struct {
	source AmenitySource
	logger *utils.Logger
}

// NewEnricher creates an Enricher backed by the given amenity source.
func NewEnricher(source AmenitySource, logger *utils.Logger) *Enricher {
	return &Enricher{source: source, logger: logger}
}

// Enrich queries all amenity categories concurrently and returns the
// summary. A category whose query fails upstream simply comes back empty;
// Enrich itself never fails.
func (e *Enricher) Enrich(ctx context.Context, lat, lng float64) *models.AmenitySummary {
	byCategory := make(map[models.AmenityCategory][]*models.POIFeature, len(models.Categories))
	var mu sync.Mutex

	pool := utils.NewWorkerPool(len(models.Categories))
	for _, category := range models.Categories {
		category := category
		pool.Submit(func() {
			features := e.collect(ctx, category, lat, lng)
			mu.Lock()
			byCategory[category] = features
			mu.Unlock()
		})
	}
	pool.Wait()

	summary := &models.AmenitySummary{
		Parks:           byCategory[models.CategoryPark],
		CoffeeShops:     byCategory[models.CategoryCoffeeShop],
		DogParks:        byCategory[models.CategoryDogPark],
		NearestParkM:    nearestDistance(byCategory[models.CategoryPark]),
		NearestCoffeeM:  nearestDistance(byCategory[models.CategoryCoffeeShop]),
		NearestDogParkM: nearestDistance(byCategory[models.CategoryDogPark]),
	}

	summary.WalkabilityScore = WalkabilityScore(summary)
	summary.AmenityScore = summary.WalkabilityScore

	return summary
}

// collect normalizes one category's raw elements into sorted, truncated
// features. Elements with no extractable geometry are dropped.
func (e *Enricher) collect(ctx context.Context, category models.AmenityCategory, lat, lng float64) []*models.POIFeature {
	spec := models.CategorySpecs[category]
	elements := e.source.Nearby(ctx, category, lat, lng)

	features := make([]*models.POIFeature, 0, len(elements))
	for _, el := range elements {
		geometry, centroid := geo.Extract(el)
		if geometry == nil || centroid == nil {
			e.logger.Debug("[enrich] Dropping %s %s/%d with no usable geometry", category, el.Type, el.ID)
			continue
		}

		distance := geo.Haversine(lat, lng, centroid.Lat, centroid.Lng)
		features = append(features, &models.POIFeature{
			OSMID:     el.ID,
			Category:  category,
			Name:      el.Name(spec.DefaultName),
			Geometry:  geometry,
			Lat:       centroid.Lat,
			Lng:       centroid.Lng,
			DistanceM: int(distance),
		})
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].DistanceM < features[j].DistanceM
	})
	if len(features) > spec.MaxResults {
		features = features[:spec.MaxResults]
	}
	return features
}

func nearestDistance(features []*models.POIFeature) *int {
	if len(features) == 0 {
		return nil
	}
	d := features[0].DistanceM
	return &d
}
