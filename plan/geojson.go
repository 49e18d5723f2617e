package plan

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// GeometryType represents the GeoJSON geometry type
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

// Geometry represents a GeoJSON geometry object
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature represents a GeoJSON feature with geometry and properties
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
	ID         interface{}            `json:"id,omitempty"`
}

// FeatureCollection represents a GeoJSON FeatureCollection
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeatureCollection creates a new empty FeatureCollection
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, 0),
	}
}

// AddFeature appends a feature to the collection
func (fc *FeatureCollection) AddFeature(f *Feature) {
	fc.Features = append(fc.Features, f)
}

// NewFeature creates a Feature with the given geometry and properties
func NewFeature(geom *Geometry, props map[string]interface{}) *Feature {
	if props == nil {
		props = make(map[string]interface{})
	}
	return &Feature{
		Type:       "Feature",
		Geometry:   geom,
		Properties: props,
	}
}

// orbLineString converts a polyline to an orb.LineString
func orbLineString(pl Polyline) orb.LineString {
	ls := make(orb.LineString, len(pl.Points))
	for i, p := range pl.Points {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

// orbRing converts a polygon to a closed orb.Ring
func orbRing(poly Polygon) orb.Ring {
	ring := make(orb.Ring, 0, len(poly)+1)
	for _, p := range poly {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// PolylineToLineString converts a polyline to a GeoJSON LineString
// geometry in image-space coordinates.
func PolylineToLineString(pl Polyline) *Geometry {
	ls := orbLineString(pl)
	coords := make([][2]float64, len(ls))
	for i, p := range ls {
		coords[i] = [2]float64{p[0], p[1]}
	}
	coordsJSON, _ := json.Marshal(coords)
	return &Geometry{Type: GeometryLineString, Coordinates: coordsJSON}
}

// SublotToPolygon converts a sublot's vertex ring to a GeoJSON Polygon
// geometry with a single closed outer ring.
func SublotToPolygon(s *Sublot) *Geometry {
	ring := orbRing(s.Vertices)
	coords := make([][2]float64, len(ring))
	for i, p := range ring {
		coords[i] = [2]float64{p[0], p[1]}
	}
	ringsJSON, _ := json.Marshal([][][2]float64{coords})
	return &Geometry{Type: GeometryPolygon, Coordinates: ringsJSON}
}

// SublotToFeature converts a sublot to a GeoJSON feature carrying its
// derived metrics as properties.
func SublotToFeature(s *Sublot) *Feature {
	return NewFeature(SublotToPolygon(s), map[string]interface{}{
		"area":        s.Area,
		"perimeter":   s.Perimeter,
		"vertexCount": len(s.Vertices),
		"aspectRatio": s.AspectRatio,
		"quality":     s.Quality,
		"confidence":  s.Confidence,
		"category":    string(s.Category),
		"containment": s.Containment,
		"convex":      s.Convexity.Convex,
	})
}

// ResultToFeatureCollection converts a detection result plus the source
// polylines into a GeoJSON FeatureCollection: borders and dividers as
// LineStrings, accepted sublots as Polygons.
func ResultToFeatureCollection(polylines []Polyline, result *DetectionResult) *FeatureCollection {
	fc := NewFeatureCollection()

	for i, pl := range polylines {
		if len(pl.Points) < 2 {
			continue
		}
		f := NewFeature(PolylineToLineString(pl), map[string]interface{}{
			"role":  string(pl.Role),
			"index": i,
		})
		fc.AddFeature(f)
	}

	if result != nil {
		for i, s := range result.Sublots {
			f := SublotToFeature(s)
			f.ID = i
			fc.AddFeature(f)
		}
	}

	return fc
}
