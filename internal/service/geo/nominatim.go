package geo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "vedic_horoscope_app"
)

// ErrNotFound is returned when the provider has no match for a place.
var ErrNotFound = errors.New("place not found")

// Config controls the Nominatim client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Nominatim queries an OpenStreetMap Nominatim search endpoint.
type Nominatim struct {
	client *resty.Client
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatim creates a client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewNominatim(cfg Config) *Nominatim {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Nominatim{client: client}
}

// Geocode returns the first match for place, or ErrNotFound.
func (n *Nominatim) Geocode(ctx context.Context, place string) (birth.Coordinates, error) {
	var results []searchResult

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      place,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&results).
		Get("/search")
	if err != nil {
		return birth.Coordinates{}, fmt.Errorf("nominatim request failed: %w", err)
	}
	if resp.IsError() {
		return birth.Coordinates{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode())
	}

	if len(results) == 0 {
		return birth.Coordinates{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return birth.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return birth.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}

	return birth.Coordinates{Latitude: lat, Longitude: lon}, nil
}
