package services

import (
	"testing"

	"homescout/models"
)

func TestReportAggregatesCounters(t *testing.T) {
	b := NewReportBuilder()

	b.RecordFetched(200)
	b.RecordFetched(150)
	b.RecordNew(&models.Listing{City: "Vancouver"})
	b.RecordNew(&models.Listing{City: "Vancouver"})
	b.RecordNew(&models.Listing{City: "Burnaby"})
	b.RecordUpdated()
	b.RecordDelisted(4)
	b.RecordEnrichFailure()

	r := b.Report()
	if r.TotalFetched != 350 {
		t.Errorf("fetched = %d; want 350", r.TotalFetched)
	}
	if r.NewListings != 3 || r.Updated != 1 || r.Delisted != 4 || r.EnrichFailed != 1 {
		t.Errorf("counters = new %d, updated %d, delisted %d, failed %d",
			r.NewListings, r.Updated, r.Delisted, r.EnrichFailed)
	}
	if r.ListingsByCity["Vancouver"] != 2 || r.ListingsByCity["Burnaby"] != 1 {
		t.Errorf("city counts = %v", r.ListingsByCity)
	}
}

func TestReportAverageAndBuckets(t *testing.T) {
	b := NewReportBuilder()

	for _, score := range []int{10, 30, 60, 90} {
		b.RecordEnriched(score)
	}

	r := b.Report()
	if r.Enriched != 4 {
		t.Errorf("enriched = %d; want 4", r.Enriched)
	}
	if r.AvgWalkScore != 47.5 {
		t.Errorf("average = %.1f; want 47.5", r.AvgWalkScore)
	}

	want := map[string]int{"0-24": 1, "25-49": 1, "50-74": 1, "75-100": 1}
	for bucket, n := range want {
		if r.ScoreBuckets[bucket] != n {
			t.Errorf("bucket %s = %d; want %d", bucket, r.ScoreBuckets[bucket], n)
		}
	}
}

func TestBucketBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0-24"},
		{24, "0-24"},
		{25, "25-49"},
		{49, "25-49"},
		{50, "50-74"},
		{74, "50-74"},
		{75, "75-100"},
		{100, "75-100"},
	}
	for _, tt := range tests {
		if got := bucketFor(tt.score); got != tt.want {
			t.Errorf("bucketFor(%d) = %q; want %q", tt.score, got, tt.want)
		}
	}
}
