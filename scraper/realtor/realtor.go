// Package realtor fetches property listings from the realtor.ca search API.
// Transport failures never surface as errors: a failed page fetch yields an
// empty result so the sync pipeline can carry on with what it has.
package realtor

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homescout/config"
	"homescout/models"
	"homescout/utils"
)

const searchURL = "https://api2.realtor.ca/Listing.svc/PropertySearch_Post"

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0.0.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0.0.0",
}

// Greater Vancouver Area bounds (approximate).
var gvaBounds = struct {
	latMin, latMax, lngMin, lngMax float64
}{49.0, 49.4, -123.3, -122.5}

// PageFetcher is the listing-source surface the sync runner consumes.
type PageFetcher interface {
	// FetchPage returns one page of scraped listings and the total record
	// count the source reports. A transport failure returns (nil, 0).
	FetchPage(page int) ([]*models.ScrapedListing, int)
	// FetchSingle returns the listing for one MLS ID, or nil.
	FetchSingle(mlsID string) *models.ScrapedListing
}

// Client talks to the realtor.ca JSON search endpoint.
type Client struct {
	cfg        *config.Config
	logger     *utils.Logger
	httpClient *http.Client
	endpoint   string
}

// New creates a realtor.ca API client.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   searchURL,
	}
}

// FetchPage fetches one page of search results.
func (c *Client) FetchPage(page int) ([]*models.ScrapedListing, int) {
	form := c.searchParams(page)
	listings, total, err := c.search(form)
	if err != nil {
		c.logger.Error("[realtor] Page %d fetch failed: %v", page, err)
		return nil, 0
	}
	return listings, total
}

// FetchSingle looks up one listing by MLS ID.
func (c *Client) FetchSingle(mlsID string) *models.ScrapedListing {
	form := c.searchParams(1)
	form.Set("ReferenceNumber", mlsID)

	listings, _, err := c.search(form)
	if err != nil {
		c.logger.Error("[realtor] Lookup of %s failed: %v", mlsID, err)
		return nil
	}
	for _, l := range listings {
		if l.MLSID == mlsID {
			return l
		}
	}
	return nil
}

func (c *Client) searchParams(page int) url.Values {
	return url.Values{
		"CultureId":           {"1"},
		"ApplicationId":       {"1"},
		"RecordsPerPage":      {strconv.Itoa(c.cfg.RecordsPerPage)},
		"MaximumResults":      {strconv.Itoa(c.cfg.RecordsPerPage)},
		"PropertyTypeGroupID": {"1"}, // residential
		"TransactionTypeId":   {"2"}, // for sale
		"LatitudeMin":         {strconv.FormatFloat(gvaBounds.latMin, 'f', -1, 64)},
		"LatitudeMax":         {strconv.FormatFloat(gvaBounds.latMax, 'f', -1, 64)},
		"LongitudeMin":        {strconv.FormatFloat(gvaBounds.lngMin, 'f', -1, 64)},
		"LongitudeMax":        {strconv.FormatFloat(gvaBounds.lngMax, 'f', -1, 64)},
		"CurrentPage":         {strconv.Itoa(page)},
		"SortBy":              {"1"},
		"SortOrder":           {"D"},
	}
}

type searchResponse struct {
	Results []json.RawMessage `json:"Results"`
	Paging  struct {
		TotalRecords int `json:"TotalRecords"`
	} `json:"Paging"`
}

func (c *Client) search(form url.Values) ([]*models.ScrapedListing, int, error) {
	req, err := http.NewRequest(http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("realtor: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://www.realtor.ca")
	req.Header.Set("Referer", "https://www.realtor.ca/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("realtor: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, 0, fmt.Errorf("realtor: status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("realtor: decode response: %w", err)
	}

	listings := make([]*models.ScrapedListing, 0, len(out.Results))
	for _, raw := range out.Results {
		if l := parseListing(raw, c.logger); l != nil {
			listings = append(listings, l)
		}
	}
	return listings, out.Paging.TotalRecords, nil
}

type apiListing struct {
	MlsNumber  string `json:"MlsNumber"`
	PostedDate string `json:"PostedDate"`
	Property   struct {
		Price   string `json:"Price"`
		Address struct {
			AddressText  string `json:"AddressText"`
			CityDistrict string `json:"CityDistrict"`
			Latitude     string `json:"Latitude"`
			Longitude    string `json:"Longitude"`
		} `json:"Address"`
	} `json:"Property"`
	Building struct {
		Bedrooms      string `json:"Bedrooms"`
		BathroomTotal string `json:"BathroomTotal"`
		SizeInterior  string `json:"SizeInterior"`
		Type          string `json:"Type"`
	} `json:"Building"`
}

// parseListing salvages what it can from one raw API record. Records without
// an MLS number are dropped; any other missing field degrades to its zero
// value or nil.
func parseListing(raw json.RawMessage, logger *utils.Logger) *models.ScrapedListing {
	var data apiListing
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Debug("[realtor] Skipping unparseable record: %v", err)
		return nil
	}

	if data.MlsNumber == "" {
		return nil
	}

	address := "Unknown"
	if text := data.Property.Address.AddressText; text != "" {
		address = strings.TrimSpace(strings.SplitN(text, "|", 2)[0])
	}

	city := data.Property.Address.CityDistrict
	if city == "" {
		city = "Unknown"
	}

	lat, _ := strconv.ParseFloat(data.Property.Address.Latitude, 64)
	lng, _ := strconv.ParseFloat(data.Property.Address.Longitude, 64)

	listing := &models.ScrapedListing{
		MLSID:        data.MlsNumber,
		URL:          "https://www.realtor.ca/real-estate/" + data.MlsNumber,
		Address:      address,
		City:         city,
		Latitude:     lat,
		Longitude:    lng,
		Price:        digitsOnly(data.Property.Price),
		Bedrooms:     optionalInt(data.Building.Bedrooms),
		Bathrooms:    optionalInt(data.Building.BathroomTotal),
		Sqft:         parseSqft(data.Building.SizeInterior),
		PropertyType: data.Building.Type,
		RawData:      raw,
		ScrapedAt:    time.Now().UTC(),
	}

	if data.PostedDate != "" {
		if t, err := time.Parse(time.RFC3339, data.PostedDate); err == nil {
			listing.ListingDate = &t
		}
	}

	return listing
}

// digitsOnly strips currency symbols and separators from a price string.
func digitsOnly(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, _ := strconv.Atoi(b.String())
	return n
}

func optionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// parseSqft handles "1,234 sqft" style interior sizes.
func parseSqft(s string) *int {
	if s == "" {
		return nil
	}
	first := strings.Fields(s)
	if len(first) == 0 {
		return nil
	}
	n := digitsOnly(first[0])
	if n == 0 {
		return nil
	}
	return &n
}
