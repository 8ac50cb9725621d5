package realtor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"homescout/config"
	"homescout/models"
	"homescout/utils"
)

const mapSearchURL = "https://www.realtor.ca/map#view=list&Sort=6-D&PGeoIds=g30_c2b2nhdp&PropertyTypeGroupID=1&TransactionTypeId=2"

// BrowserFetcher drives a headless browser against the realtor.ca search UI.
// It is the fallback for when the JSON API refuses direct clients; records
// scraped this way carry no coordinates, so they sync but are not enriched
// until a later API pass picks them up.
type BrowserFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewBrowserFetcher creates a chromedp-backed PageFetcher.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Jitter:      time.Second,
			Logger:      logger,
		},
	}
}

// FetchPage loads one page of the map-search list view and extracts listing
// cards. A browser failure yields (nil, 0).
func (b *BrowserFetcher) FetchPage(page int) ([]*models.ScrapedListing, int) {
	allocCtx, cancel := b.newAllocator()
	defer cancel()

	var listings []*models.ScrapedListing

	err := b.retry.Do(fmt.Sprintf("browser-page-%d", page), func() error {
		ctx, cancelCtx := chromedp.NewContext(allocCtx)
		defer cancelCtx()

		ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
		defer cancelTimeout()

		type cardData struct {
			MLSID   string `json:"mlsId"`
			Address string `json:"address"`
			City    string `json:"city"`
			Price   string `json:"price"`
			URL     string `json:"url"`
		}
		var cards []cardData

		pageURL := fmt.Sprintf("%s&CurrentPage=%d", mapSearchURL, page)

		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(6*time.Second),
			chromedp.Evaluate(`
				(function() {
					var results = [];
					var cards = document.querySelectorAll('.cardCon, [class*="listingCard"]');
					for (var i = 0; i < cards.length; i++) {
						var card = cards[i];
						var link = card.querySelector('a[href*="/real-estate/"]');
						if (!link) continue;
						var m = link.href.match(/\/real-estate\/(\d+)\//);
						var addrEl = card.querySelector('[class*="address"]');
						var priceEl = card.querySelector('[class*="price"]');
						results.push({
							mlsId:   m ? m[1] : '',
							address: addrEl ? addrEl.innerText.trim() : '',
							city:    '',
							price:   priceEl ? priceEl.innerText.trim() : '',
							url:     link.href
						});
					}
					return results;
				})()
			`, &cards),
		)
		if err != nil {
			return fmt.Errorf("chromedp page load: %w", err)
		}

		listings = listings[:0]
		for _, c := range cards {
			if c.MLSID == "" {
				continue
			}
			listings = append(listings, &models.ScrapedListing{
				MLSID:     c.MLSID,
				URL:       c.URL,
				Address:   firstLine(c.Address),
				City:      cityFromAddress(c.Address),
				Price:     digitsOnly(c.Price),
				ScrapedAt: time.Now().UTC(),
			})
		}
		return nil
	})
	if err != nil {
		b.logger.Error("[realtor] Browser page %d failed: %v", page, err)
		return nil, 0
	}

	// The list view does not expose a reliable total; report what we have so
	// the runner treats each page as potentially the last.
	return listings, len(listings)
}

// FetchSingle is not supported in browser mode.
func (b *BrowserFetcher) FetchSingle(mlsID string) *models.ScrapedListing {
	b.logger.Warn("[realtor] Single-listing lookup is unavailable in browser mode (%s)", mlsID)
	return nil
}

func (b *BrowserFetcher) newAllocator() (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgents[0]),
	)
	if bin := b.findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return chromedp.NewExecAllocator(context.Background(), opts...)
}

func (b *BrowserFetcher) findChromeBinary() string {
	if b.cfg.ChromeBin != "" {
		return b.cfg.ChromeBin
	}
	candidates := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// cityFromAddress pulls the city from a "street, city, province" card line.
func cityFromAddress(s string) string {
	parts := strings.Split(firstLine(s), ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return ""
}
