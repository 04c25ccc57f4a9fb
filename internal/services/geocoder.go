package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

var ErrLocationNotFound = errors.New("location not found")

// DefaultCenter is Santa Clara University, where the demo scenarios play out.
var DefaultCenter = models.Coordinates{Lat: 37.3496, Lng: -121.9390}

// Geocoder resolves a free-text location to a map center.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

// MapsGeocoder uses the Google Maps geocoding API.
type MapsGeocoder struct {
	client *maps.Client
	logger *zap.Logger
}

func NewMapsGeocoder(apiKey string, logger *zap.Logger) (*MapsGeocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps API key not configured")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapsGeocoder{client: client, logger: logger.Named("geocoder")}, nil
}

func (g *MapsGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, fmt.Errorf("%w: %q", ErrLocationNotFound, address)
	}
	loc := results[0].Geometry.Location
	g.logger.Debug("geocoded",
		zap.String("address", address),
		zap.String("formatted", results[0].FormattedAddress))
	return models.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// StaticGeocoder answers from a fixed table and falls back to Fallback.
// It is used when no maps API key is configured.
type StaticGeocoder struct {
	Places   map[string]models.Coordinates
	Fallback models.Coordinates
}

func NewStaticGeocoder() *StaticGeocoder {
	return &StaticGeocoder{
		Places: map[string]models.Coordinates{
			"santa clara university": DefaultCenter,
			"scu":                    DefaultCenter,
		},
		Fallback: DefaultCenter,
	}
}

func (g *StaticGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	for name, c := range g.Places {
		if strings.Contains(key, name) {
			return c, nil
		}
	}
	return g.Fallback, nil
}

// FallbackGeocoder tries Primary and answers with Secondary when it fails.
type FallbackGeocoder struct {
	Primary   Geocoder
	Secondary Geocoder
	Logger    *zap.Logger
}

func (g *FallbackGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	c, err := g.Primary.Geocode(ctx, address)
	if err == nil {
		return c, nil
	}
	if g.Logger != nil {
		g.Logger.Warn("geocoding failed, using fallback", zap.String("address", address), zap.Error(err))
	}
	return g.Secondary.Geocode(ctx, address)
}
