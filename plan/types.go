package plan

import "math"

// Point represents a 2D coordinate in image space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance to another point
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// IsFinite reports whether both coordinates are finite numbers.
// Kernel functions assume finite input; ingestion strips anything else.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Polygon is an ordered sequence of vertices. The closing edge from the
// last vertex back to the first is implicit.
type Polygon []Point

// PolylineRole tags a polyline as part of the external border or as an
// internal sublot divider
type PolylineRole string

const (
	RoleBorder PolylineRole = "border"
	RoleSublot PolylineRole = "sublot"
)

// Polyline is an ordered sequence of points drawn or edited by the user.
// It may be open or closed (first point within tolerance of the last).
type Polyline struct {
	Role   PolylineRole `json:"role"`
	Points []Point      `json:"points"`
}

// IsClosed reports whether the polyline's endpoints coincide within tol
func (pl Polyline) IsClosed(tol float64) bool {
	if len(pl.Points) < 3 {
		return false
	}
	return pl.Points[0].Dist(pl.Points[len(pl.Points)-1]) <= tol
}

// Bounds is an axis-aligned bounding box
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the box
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// SublotCategory is the shape classification assigned by the enricher.
// Category names follow the persistence format of the plan documents.
type SublotCategory string

const (
	CategoryTriangular    SublotCategory = "triangular"
	CategoryCuadrilateral SublotCategory = "cuadrilateral"
	CategoryRegular       SublotCategory = "regular"
	CategoryComplejo      SublotCategory = "complejo"
	CategoryIrregular     SublotCategory = "irregular"
)

// Sublot is an accepted closed polygon representing a subdivided parcel
// within the overall plan boundary, enriched with derived metrics.
type Sublot struct {
	Vertices    Polygon        `json:"vertices"`
	SignedArea  float64        `json:"signedArea"`
	Area        float64        `json:"area"`
	Perimeter   float64        `json:"perimeter"`
	Bounds      Bounds         `json:"bounds"`
	AspectRatio float64        `json:"aspectRatio"`
	Convexity   ConvexityReport `json:"convexity"`
	Quality     float64        `json:"quality"`     // 0..100
	Confidence  float64        `json:"confidence"`  // 0..1
	Category    SublotCategory `json:"category"`
	Containment float64        `json:"containment"` // fraction of vertices inside the external boundary
}

// Centroid returns the area-weighted polygon centroid of the sublot
func (s *Sublot) Centroid() Point {
	return PolygonCentroid(s.Vertices)
}

// PlanDocument mirrors the persistence format of a digitized land plan.
// Field names match the stored JSON documents: "vectores" carries the
// legacy flat vector list, "bordes_externos" and "sublotes" the
// structured border/divider polylines.
type PlanDocument struct {
	Name     string         `json:"nombre"`
	Vectors  [][][2]float64 `json:"vectores,omitempty"`
	Borders  [][][2]float64 `json:"bordes_externos"`
	Sublots  [][][2]float64 `json:"sublotes"`
	ImageURL string         `json:"imagen_url,omitempty"`
}
