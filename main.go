package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"homescout/config"
	"homescout/enrich"
	"homescout/models"
	"homescout/overpass"
	"homescout/scraper/realtor"
	"homescout/services"
	"homescout/storage"
	"homescout/utils"
)

func main() {
	fullScrape := flag.Bool("full", false, "fetch every page; default stops once the feed is caught up")
	dryRun := flag.Bool("dry-run", false, "use the in-memory store instead of PostgreSQL")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	runID := uuid.NewString()

	mode := "incremental"
	if *fullScrape {
		mode = "full"
	}
	logger.Info("=== homescout run %s starting (%s scrape) ===", runID, mode)
	logger.Info("Config — fetch: %s | overpass: %s (%s) | staleness: %dh",
		cfg.FetchMode, cfg.OverpassURL, cfg.OverpassMode, cfg.StalenessHours)

	var store storage.Store
	if *dryRun {
		logger.Warn("Dry run — nothing will be persisted beyond this process")
		store = storage.NewMemory()
	} else {
		pg, err := storage.NewPostgres(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		store = pg
	}
	defer store.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV audit writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	var fetcher realtor.PageFetcher
	switch cfg.FetchMode {
	case "browser":
		fetcher = realtor.NewBrowserFetcher(cfg, logger)
	default:
		fetcher = realtor.New(cfg, logger)
	}

	engine := services.NewSyncEngine(store, logger, cfg.Staleness())
	limiter := utils.NewRateLimiter(cfg.OverpassMinSpacing)
	enricher := enrich.NewEnricher(overpass.New(cfg, limiter, logger), logger)
	linker := services.NewPOILinker(store, logger)
	report := services.NewReportBuilder()

	seen := utils.NewIDSet()
	var newListings []*models.Listing

	// Fetch and upsert page by page; each page commits independently so a
	// crash mid-scrape keeps everything already written.
	page := 1
	totalPages := 1
	for {
		listings, total := fetcher.FetchPage(page)

		if page == 1 {
			if total == 0 {
				logger.Error("No listings found on page 1 — aborting scrape")
				break
			}
			totalPages = total/cfg.RecordsPerPage + 1
			if totalPages > cfg.MaxPages {
				totalPages = cfg.MaxPages
			}
			logger.Info("Page 1: %d listings (total: %d, pages: %d)", len(listings), total, totalPages)
		} else {
			logger.Info("Page %d/%d: %d listings", page, totalPages, len(listings))
		}

		if err := csvWriter.WriteRaw(listings); err != nil {
			logger.Warn("CSV audit write failed: %v", err)
		}

		pageNew := 0
		for _, scraped := range listings {
			seen.Add(scraped.MLSID)
			listing, isNew, err := engine.Upsert(scraped)
			if err != nil {
				logger.Error("Upsert of %s failed: %v — skipping record", scraped.MLSID, err)
				continue
			}
			if isNew {
				newListings = append(newListings, listing)
				pageNew++
				report.RecordNew(listing)
			} else {
				report.RecordUpdated()
			}
		}
		report.RecordFetched(len(listings))

		if page >= totalPages {
			break
		}

		// Incremental mode: once most of a page already existed the feed is
		// assumed exhausted of new content.
		if !*fullScrape && len(listings) > 0 {
			existingRatio := float64(len(listings)-pageNew) / float64(len(listings))
			if existingRatio >= 0.8 {
				logger.Info("Stopping early: %.0f%% of page %d already existed", existingRatio*100, page)
				break
			}
		}

		time.Sleep(time.Duration(2000+rand.Intn(1000)) * time.Millisecond)
		page++
	}

	logger.Info("Seen %d unique listings, %d new", seen.Size(), len(newListings))

	delistedCount, err := engine.MarkDelisted(seen.Snapshot())
	if err != nil {
		logger.Error("Delisting pass failed: %v", err)
	} else {
		report.RecordDelisted(delistedCount)
	}

	// Enrich new listings one at a time, deliberately: the Overpass endpoint
	// is rate-limited and the limiter serializes per-query spacing anyway.
	logger.Info("Enriching %d new listings...", len(newListings))
	ctx := context.Background()
	for i, listing := range newListings {
		enrichListing(ctx, store, enricher, linker, listing, logger, report)
		if (i+1)%10 == 0 {
			logger.Info("  Enriched %d/%d listings", i+1, len(newListings))
		}
	}

	report.Print()
	logger.Info("=== run %s complete ===", runID)
}

// enrichListing runs enrichment for one listing and persists the summary and
// POI links. A failure here degrades coverage for this listing only; the
// rest of the run carries on.
func enrichListing(
	ctx context.Context,
	store storage.Store,
	enricher *enrich.Enricher,
	linker *services.POILinker,
	listing *models.Listing,
	logger *utils.Logger,
	report *services.ReportBuilder,
) {
	if listing.Latitude == 0 && listing.Longitude == 0 {
		logger.Warn("[enrich] No coordinates for %s — skipping", listing.MLSID)
		report.RecordEnrichFailure()
		return
	}

	enriched, err := store.HasAmenitySummary(listing.ID)
	if err != nil {
		logger.Error("[enrich] Could not check summary for %s: %v", listing.MLSID, err)
		report.RecordEnrichFailure()
		return
	}
	if enriched {
		logger.Debug("[enrich] Already enriched: %s", listing.MLSID)
		return
	}

	summary := enricher.Enrich(ctx, listing.Latitude, listing.Longitude)

	if err := store.UpsertAmenitySummary(listing.ID, summary); err != nil {
		logger.Error("[enrich] Failed to store summary for %s: %v", listing.MLSID, err)
		report.RecordEnrichFailure()
		return
	}
	if _, err := linker.UpsertPOIs(listing.ID, summary.AllFeatures()); err != nil {
		logger.Error("[enrich] Failed to link POIs for %s: %v", listing.MLSID, err)
	}

	logger.Info("[enrich] %s scored %d", listing.MLSID, summary.WalkabilityScore)
	report.RecordEnriched(summary.WalkabilityScore)
}
