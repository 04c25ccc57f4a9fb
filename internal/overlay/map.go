package overlay

import (
	"sync"

	"github.com/paulmach/orb/geojson"
)

// TileLayer is the base layer of the map. It is created once per Map.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// DefaultTileLayer serves OpenStreetMap tiles.
func DefaultTileLayer() *TileLayer {
	return &TileLayer{
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MaxZoom:     MaxZoom,
	}
}

// View is what a client needs to draw the map.
type View struct {
	Tile    *TileLayer                 `json:"tile"`
	Center  LatLng                     `json:"center"`
	Zoom    int                        `json:"zoom"`
	Overlay *geojson.FeatureCollection `json:"overlay"`
}

// Map is a base tile layer plus the overlay of the last render.
type Map struct {
	mu      sync.Mutex
	tile    *TileLayer
	overlay *geojson.FeatureCollection
	center  LatLng
	zoom    int
}

func NewMap(tile *TileLayer) *Map {
	if tile == nil {
		tile = DefaultTileLayer()
	}
	return &Map{
		tile:    tile,
		overlay: geojson.NewFeatureCollection(),
		zoom:    DefaultZoom,
	}
}

// Render drops every overlay feature and draws req from scratch. The tile
// layer is kept.
func (m *Map) Render(req Request) (*View, error) {
	if req.Zoom == 0 {
		req.Zoom = DefaultZoom
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fc := Build(req)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.overlay.Features = m.overlay.Features[:0]
	m.overlay.Features = append(m.overlay.Features, fc.Features...)
	m.center = req.Center
	m.zoom = req.Zoom
	return m.view(), nil
}

// View returns the current state of the map.
func (m *Map) View() *View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view()
}

func (m *Map) view() *View {
	overlay := geojson.NewFeatureCollection()
	overlay.Features = append(overlay.Features, m.overlay.Features...)
	return &View{
		Tile:    m.tile,
		Center:  m.center,
		Zoom:    m.zoom,
		Overlay: overlay,
	}
}
