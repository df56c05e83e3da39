package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chinampa/models"
)

// ReverseGeocoder turns a coordinate into the place a report route is keyed by.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c models.Coordinate) (models.Place, error)
}

// Searcher turns a free-text address into a coordinate.
type Searcher interface {
	Search(ctx context.Context, query string) (models.Coordinate, error)
}

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder talks to an OpenStreetMap Nominatim instance.
type NominatimGeocoder struct {
	BaseURL   string
	UserAgent string
	Language  string
	Client    *http.Client
}

// NewNominatimGeocoder returns a geocoder with sane timeouts.
func NewNominatimGeocoder(baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	return &NominatimGeocoder{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "chinampa/1.0",
		Language:  "es",
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

type nominatimReverseResp struct {
	Address *nominatimAddress `json:"address"`
	Error   string            `json:"error"`
}

type nominatimSearchHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Reverse calls GET {BaseURL}/reverse.
func (g *NominatimGeocoder) Reverse(ctx context.Context, c models.Coordinate) (models.Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("zoom", "10")

	var out nominatimReverseResp
	if err := g.get(ctx, "/reverse", q, &out); err != nil {
		return models.Place{}, newError(GeocodeFailed, err)
	}
	if out.Error != "" {
		return models.Place{}, newError(GeocodeFailed, errors.New(out.Error))
	}
	if out.Address == nil {
		return models.Place{}, newError(GeocodeFailed, errors.New("no address in response"))
	}
	a := out.Address
	p := models.Place{
		City:    firstNonEmpty(a.City, a.Town, a.Village, a.Municipality, a.County),
		State:   a.State,
		Country: a.Country,
	}
	if p.City == "" || p.State == "" || p.Country == "" {
		return models.Place{}, newError(GeocodeFailed, fmt.Errorf("incomplete address for %s", c))
	}
	return p, nil
}

// Search calls GET {BaseURL}/search and returns the best hit.
func (g *NominatimGeocoder) Search(ctx context.Context, query string) (models.Coordinate, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)
	q.Set("limit", "1")

	var hits []nominatimSearchHit
	if err := g.get(ctx, "/search", q, &hits); err != nil {
		return models.Coordinate{}, err
	}
	if len(hits) == 0 {
		return models.Coordinate{}, fmt.Errorf("no results for %q", query)
	}
	return ParseCoordinate(hits[0].Lat + "," + hits[0].Lon)
}

func (g *NominatimGeocoder) get(ctx context.Context, path string, q url.Values, out any) error {
	if g.Language != "" {
		q.Set("accept-language", g.Language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.UserAgent)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nominatim non-2xx: %s, body: %s", resp.Status, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode nominatim resp: %w", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
