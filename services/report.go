package services

import (
	"fmt"
	"sort"
	"strings"

	"homescout/models"
)

// ReportBuilder accumulates counters over one scrape-and-enrich run and
// renders a summary at the end.
type ReportBuilder struct {
	report models.SyncReport
	scores []int
}

// NewReportBuilder creates an empty ReportBuilder.
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		report: models.SyncReport{
			ScoreBuckets:   make(map[string]int),
			ListingsByCity: make(map[string]int),
		},
	}
}

func (b *ReportBuilder) RecordFetched(n int) {
	b.report.TotalFetched += n
}

func (b *ReportBuilder) RecordNew(l *models.Listing) {
	b.report.NewListings++
	if l.City != "" {
		b.report.ListingsByCity[l.City]++
	}
}

func (b *ReportBuilder) RecordUpdated() {
	b.report.Updated++
}

func (b *ReportBuilder) RecordDelisted(n int) {
	b.report.Delisted += n
}

func (b *ReportBuilder) RecordEnriched(walkScore int) {
	b.report.Enriched++
	b.scores = append(b.scores, walkScore)
	b.report.ScoreBuckets[bucketFor(walkScore)]++
}

func (b *ReportBuilder) RecordEnrichFailure() {
	b.report.EnrichFailed++
}

// Report finalises and returns the summary.
func (b *ReportBuilder) Report() *models.SyncReport {
	if len(b.scores) > 0 {
		total := 0
		for _, s := range b.scores {
			total += s
		}
		b.report.AvgWalkScore = float64(total) / float64(len(b.scores))
	}
	return &b.report
}

// Print renders the run summary to stdout.
func (b *ReportBuilder) Print() {
	r := b.Report()
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  SCRAPE & ENRICHMENT SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Listing Sync\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Records fetched : \033[1m%d\033[0m\n", r.TotalFetched)
	fmt.Printf("  New listings    : \033[1m%d\033[0m\n", r.NewListings)
	fmt.Printf("  Updated         : \033[1m%d\033[0m\n", r.Updated)
	fmt.Printf("  Delisted        : \033[1m%d\033[0m\n", r.Delisted)
	fmt.Println()

	fmt.Printf("\033[1;33m  Enrichment\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Enriched : \033[1;32m%d\033[0m | Failed : \033[1;31m%d\033[0m\n",
		r.Enriched, r.EnrichFailed)
	if r.Enriched > 0 {
		fmt.Printf("  Average walkability : \033[1m%.1f\033[0m\n", r.AvgWalkScore)
		for _, bucket := range []string{"0-24", "25-49", "50-74", "75-100"} {
			count := r.ScoreBuckets[bucket]
			bar := strings.Repeat("█", count)
			fmt.Printf("  %-7s %s (%d)\n", bucket, bar, count)
		}
	}
	fmt.Println()

	if len(r.ListingsByCity) > 0 {
		fmt.Printf("\033[1;33m  New Listings by City\033[0m\n")
		fmt.Printf("  %s\n", thin)

		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, count := range r.ListingsByCity {
			cities = append(cities, cityCount{city, count})
		}
		sort.Slice(cities, func(i, j int) bool {
			return cities[i].count > cities[j].count
		})
		for _, cc := range cities {
			fmt.Printf("  %-30s %d\n", truncate(cc.city, 28), cc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func bucketFor(score int) string {
	switch {
	case score < 25:
		return "0-24"
	case score < 50:
		return "25-49"
	case score < 75:
		return "50-74"
	default:
		return "75-100"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
