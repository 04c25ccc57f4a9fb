// Package overlay builds the map overlay drawn over the evacuation map as
// GeoJSON: the current position, an optional hazard and an optional route
// ending at a shelter.
package overlay

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/rahul4469/crisis-analyzer/internal/models"
)

// Layer names, carried in the "layer" property of every feature.
const (
	LayerCenter      = "center"
	LayerFire        = "fire"
	LayerFlame       = "flame"
	LayerWind        = "wind"
	LayerSmoke       = "smoke"
	LayerRoute       = "route"
	LayerRouteBuffer = "route-buffer"
	LayerDirection   = "direction"
	LayerWaypoint    = "waypoint"
	LayerSafeZone    = "safe-zone"
	LayerShelter     = "shelter"
	LayerService     = "service"
)

const (
	// SafeZoneRadius is the radius of the circle drawn around the shelter.
	SafeZoneRadius = 80.0
	// DefaultZoom is used when a request leaves Zoom unset.
	DefaultZoom = 17
	// MaxZoom matches the tile server.
	MaxZoom = 19

	// windOffset places the wind marker north of the hazard, in radii.
	windOffset = 0.53
)

type LatLng = models.Coordinates

// Hazard is a danger zone. Every drawn hazard shape scales with RadiusMeters.
type Hazard struct {
	Center       LatLng  `json:"center"`
	RadiusMeters float64 `json:"radius"`
}

// Request describes one overlay render.
type Request struct {
	Center LatLng   `json:"center"`
	Zoom   int      `json:"zoom"`
	Title  string   `json:"title"`
	Hazard *Hazard  `json:"hazard,omitempty"`
	Route  []LatLng `json:"route,omitempty"`
}

func (r *Request) Validate() error {
	if err := validPoint(r.Center); err != nil {
		return fmt.Errorf("%w: center: %v", models.ErrInvalidInput, err)
	}
	if r.Zoom < 0 || r.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d out of range", models.ErrInvalidInput, r.Zoom)
	}
	if r.Hazard != nil {
		if err := validPoint(r.Hazard.Center); err != nil {
			return fmt.Errorf("%w: hazard: %v", models.ErrInvalidInput, err)
		}
		if !(r.Hazard.RadiusMeters > 0) {
			return fmt.Errorf("%w: hazard radius must be positive", models.ErrInvalidInput)
		}
	}
	for i, p := range r.Route {
		if err := validPoint(p); err != nil {
			return fmt.Errorf("%w: route[%d]: %v", models.ErrInvalidInput, i, err)
		}
	}
	return nil
}

func validPoint(p LatLng) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("invalid coordinates (%v, %v)", p.Lat, p.Lng)
	}
	return nil
}

type Intensity int

const (
	IntensityCritical Intensity = iota
	IntensityHigh
	IntensityModerate
	IntensityLow
)

var intensityNames = [...]string{"CRITICAL", "HIGH", "MODERATE", "LOW"}
var intensityColors = [...]string{"#dc2626", "#f97316", "#fb923c", "#fdba74"}

func (i Intensity) String() string {
	if i < 0 || int(i) >= len(intensityNames) {
		return fmt.Sprintf("Intensity(%d)", int(i))
	}
	return intensityNames[i]
}

// Flaming reports whether cells of this intensity get a flame marker.
func (i Intensity) Flaming() bool {
	return i == IntensityCritical || i == IntensityHigh
}

// Cell is a rectangular burning area. Edges are offsets from the hazard
// center in units of the hazard radius; north and east are positive.
type Cell struct {
	Label     string
	Intensity Intensity
	South     float64
	North     float64
	West      float64
	East      float64
}

// PrimaryCell is the burning structure at the hazard center.
var PrimaryCell = Cell{Label: "Primary Fire", Intensity: IntensityCritical, South: -0.18, North: 0.18, West: -0.21, East: 0.07}

// SpreadCells are the six areas the fire has spread to.
var SpreadCells = []Cell{
	{Label: "West Building Fire", Intensity: IntensityCritical, South: -0.13, North: 0.13, West: -0.42, East: -0.25},
	{Label: "NW Structure Fire", Intensity: IntensityHigh, South: 0.22, North: 0.40, West: -0.32, East: -0.18},
	{Label: "North Wing Fire", Intensity: IntensityHigh, South: 0.31, North: 0.44, West: -0.07, East: 0.11},
	{Label: "SW Spot Fire", Intensity: IntensityModerate, South: -0.36, North: -0.22, West: -0.28, East: -0.14},
	{Label: "South Ground Fire", Intensity: IntensityModerate, South: -0.44, North: -0.27, West: -0.07, East: 0.11},
	{Label: "NE Hot Spot", Intensity: IntensityLow, South: 0.18, North: 0.31, West: 0.14, East: 0.28},
}

type service struct {
	label string
	icon  string
	north float64
	east  float64
}

// services surround the shelter at fixed metric offsets.
var services = []service{
	{"Fire Trucks", "fire-truck", 22, -18},
	{"Medical", "ambulance", 22, 18},
	{"Police", "police", -22, 0},
}

// Build returns the overlay for req. It does not validate req.
func Build(req Request) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if req.Hazard != nil {
		addHazard(fc, *req.Hazard)
	}
	if len(req.Route) > 0 {
		addRoute(fc, req.Route)
	}

	center := feature(point(req.Center), LayerCenter)
	center.Properties["label"] = req.Title
	fc.Append(center)
	return fc
}

func addHazard(fc *geojson.FeatureCollection, h Hazard) {
	c := point(h.Center)
	r := h.RadiusMeters

	cells := append([]Cell{PrimaryCell}, SpreadCells...)
	for _, cell := range cells {
		b := cellBound(c, r, cell)
		f := feature(b.ToPolygon(), LayerFire)
		f.Properties["label"] = cell.Label
		f.Properties["intensity"] = cell.Intensity.String()
		f.Properties["color"] = intensityColors[cell.Intensity]
		fc.Append(f)

		if cell.Intensity.Flaming() {
			flame := feature(b.Center(), LayerFlame)
			flame.Properties["label"] = cell.Label
			fc.Append(flame)
		}
	}

	wind := feature(offset(c, windOffset*r, 0), LayerWind)
	wind.Properties["label"] = "Wind"
	fc.Append(wind)

	smoke := feature(c, LayerSmoke)
	smoke.Properties["label"] = "Smoke Zone"
	smoke.Properties["radius"] = r
	fc.Append(smoke)
}

func cellBound(c orb.Point, r float64, cell Cell) orb.Bound {
	sw := offset(c, cell.South*r, cell.West*r)
	ne := offset(c, cell.North*r, cell.East*r)
	return orb.Bound{Min: sw, Max: ne}
}

func addRoute(fc *geojson.FeatureCollection, route []LatLng) {
	// repeated consecutive points would draw zero-length checkpoints
	path := make(orb.LineString, 0, len(route))
	for _, p := range route {
		if n := len(path); n > 0 && path[n-1] == point(p) {
			continue
		}
		path = append(path, point(p))
	}

	// a single point has no path to draw but still ends at a shelter
	if len(path) >= 2 {
		line := feature(path, LayerRoute)
		line.Properties["label"] = "Evacuation Route"
		line.Properties["distance"] = math.Round(geo.LengthHaversine(path))
		fc.Append(line)

		buffer := feature(path.Clone(), LayerRouteBuffer)
		fc.Append(buffer)
	}

	for i := 0; i+1 < len(path); i++ {
		f := feature(geo.Midpoint(path[i], path[i+1]), LayerDirection)
		f.Properties["label"] = fmt.Sprintf("Checkpoint %d", i+1)
		f.Properties["bearing"] = normalizeBearing(geo.Bearing(path[i], path[i+1]))
		fc.Append(f)
	}

	for i := 1; i < len(path)-1; i++ {
		f := feature(path[i], LayerWaypoint)
		f.Properties["label"] = fmt.Sprintf("Waypoint %d", i)
		f.Properties["index"] = i
		fc.Append(f)
	}

	last := path[len(path)-1]
	zone := feature(last, LayerSafeZone)
	zone.Properties["label"] = "Safe Zone"
	zone.Properties["radius"] = SafeZoneRadius
	fc.Append(zone)

	shelter := feature(last, LayerShelter)
	shelter.Properties["label"] = "Emergency Shelter"
	fc.Append(shelter)

	for _, s := range services {
		f := feature(offset(last, s.north, s.east), LayerService)
		f.Properties["label"] = s.label
		f.Properties["icon"] = s.icon
		fc.Append(f)
	}
}

func feature(g orb.Geometry, layer string) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["layer"] = layer
	return f
}

func point(c LatLng) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// offset moves p by the given distances in meters.
func offset(p orb.Point, north, east float64) orb.Point {
	if north != 0 {
		p = geo.PointAtBearingAndDistance(p, bearingFor(north, 0, 180), math.Abs(north))
	}
	if east != 0 {
		p = geo.PointAtBearingAndDistance(p, bearingFor(east, 90, 270), math.Abs(east))
	}
	return p
}

func bearingFor(d, positive, negative float64) float64 {
	if d < 0 {
		return negative
	}
	return positive
}

func normalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return math.Round(b*10) / 10
}

// Layers counts the features of fc by layer name.
func Layers(fc *geojson.FeatureCollection) map[string]int {
	counts := make(map[string]int)
	for _, f := range fc.Features {
		if name, ok := f.Properties["layer"].(string); ok {
			counts[name]++
		}
	}
	return counts
}
