package plan

import (
	"math"
	"sort"
)

// vertexEpsilon is the tolerance for the point-on-vertex fast path in
// the containment tests.
const vertexEpsilon = 1e-6

// parallelEpsilon is the determinant threshold below which two segments
// are treated as parallel.
const parallelEpsilon = 1e-10

// degenerateAreaEpsilon is the absolute area below which a polygon is
// considered collinear/degenerate.
const degenerateAreaEpsilon = 1e-9

// PointInPolygonRayCast reports whether pt lies inside poly using
// horizontal-ray crossing counts. Points within vertexEpsilon of a
// polygon vertex are treated as inside.
func PointInPolygonRayCast(pt Point, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	// Vertex fast path.
	for _, v := range poly {
		if math.Abs(v.X-pt.X) < vertexEpsilon && math.Abs(v.Y-pt.Y) < vertexEpsilon {
			return true
		}
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := poly[i], poly[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			crossX := vi.X + (pt.Y-vi.Y)/(vj.Y-vi.Y)*(vj.X-vi.X)
			if pt.X < crossX {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// isLeft returns > 0 if p is left of the directed line a->b, < 0 if
// right, and 0 if collinear.
func isLeft(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (p.X-a.X)*(b.Y-a.Y)
}

// WindingNumber returns the signed number of times poly wraps around pt.
// A nonzero result means pt is inside. Preferred over ray casting for
// complex (non-simple) polygons.
func WindingNumber(pt Point, poly Polygon) int {
	n := len(poly)
	if n < 3 {
		return 0
	}

	wn := 0
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		if a.Y <= pt.Y {
			if b.Y > pt.Y && isLeft(a, b, pt) > 0 {
				wn++
			}
		} else {
			if b.Y <= pt.Y && isLeft(a, b, pt) < 0 {
				wn--
			}
		}
	}
	return wn
}

// PolygonArea returns the signed area of poly via the shoelace
// summation. The sign encodes winding direction: positive for
// counter-clockwise in a y-up coordinate system.
func PolygonArea(poly Polygon) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return sum / 2.0
}

// PolygonPerimeter returns the total edge length of poly, including the
// implicit closing edge.
func PolygonPerimeter(poly Polygon) float64 {
	n := len(poly)
	if n < 2 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += poly[i].Dist(poly[(i+1)%n])
	}
	return sum
}

// PolygonCentroid returns the area-weighted centroid of poly. For
// degenerate polygons (near-zero area) it falls back to the vertex mean.
func PolygonCentroid(poly Polygon) Point {
	n := len(poly)
	if n == 0 {
		return Point{}
	}

	a := PolygonArea(poly)
	if math.Abs(a) < degenerateAreaEpsilon {
		var c Point
		for _, p := range poly {
			c.X += p.X
			c.Y += p.Y
		}
		c.X /= float64(n)
		c.Y /= float64(n)
		return c
	}

	var cx, cy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		f := poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		cx += (poly[i].X + poly[j].X) * f
		cy += (poly[i].Y + poly[j].Y) * f
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// BoundingBox returns the axis-aligned bounding box of the points
func BoundingBox(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}

	b := Bounds{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
	}
	for _, p := range pts {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// AspectRatio returns max(width,height)/min(width,height) of the box,
// or +Inf when the box is degenerate in either dimension.
func AspectRatio(b Bounds) float64 {
	w, h := b.Width(), b.Height()
	lo := math.Min(w, h)
	hi := math.Max(w, h)
	if lo <= 0 {
		return math.Inf(1)
	}
	return hi / lo
}

// LineIntersection computes the intersection of segments a1-a2 and
// b1-b2 by solving the 2x2 linear system via determinants. The second
// return value is false when the segments are parallel (determinant
// magnitude below tolerance) or when the intersection parameters fall
// outside [0,1] on either segment.
func LineIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	det := (a2.X-a1.X)*(b2.Y-b1.Y) - (a2.Y-a1.Y)*(b2.X-b1.X)
	if math.Abs(det) < parallelEpsilon {
		return Point{}, false
	}

	t := ((b1.X-a1.X)*(b2.Y-b1.Y) - (b1.Y-a1.Y)*(b2.X-b1.X)) / det
	u := ((b1.X-a1.X)*(a2.Y-a1.Y) - (b1.Y-a1.Y)*(a2.X-a1.X)) / det
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}

	return Point{
		X: a1.X + t*(a2.X-a1.X),
		Y: a1.Y + t*(a2.Y-a1.Y),
	}, true
}

// Intersection describes one self-intersection of a polygon: the
// crossing point and the indices of the two offending edges.
type Intersection struct {
	At    Point
	EdgeA int
	EdgeB int
}

// SelfIntersections checks every non-adjacent edge pair of poly for
// crossings. O(n²) over the edge count, adequate for editor-scale
// polygons.
func SelfIntersections(poly Polygon) []Intersection {
	n := len(poly)
	if n < 4 {
		return nil
	}

	var found []Intersection
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges (shared vertex), including the
			// wrap-around pair (0, n-1).
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			a1, a2 := poly[i], poly[(i+1)%n]
			b1, b2 := poly[j], poly[(j+1)%n]
			if pt, ok := LineIntersection(a1, a2, b1, b2); ok {
				found = append(found, Intersection{At: pt, EdgeA: i, EdgeB: j})
			}
		}
	}
	return found
}

// ConvexityReport summarizes the turn-direction analysis of a polygon
type ConvexityReport struct {
	Convex      bool    `json:"convex"`
	ReflexCount int     `json:"reflexCount"`
	Ratio       float64 `json:"ratio"` // fraction of vertices turning in the majority direction
}

// AnalyzeConvexity walks consecutive edge triples of poly and classifies
// cross-product sign changes. A polygon is convex when every turn has
// the same sign; reflex vertices are those turning against the majority.
func AnalyzeConvexity(poly Polygon) ConvexityReport {
	n := len(poly)
	if n < 3 {
		return ConvexityReport{}
	}

	pos, neg := 0, 0
	for i := 0; i < n; i++ {
		p1 := poly[i]
		p2 := poly[(i+1)%n]
		p3 := poly[(i+2)%n]
		cross := (p2.X-p1.X)*(p3.Y-p2.Y) - (p2.Y-p1.Y)*(p3.X-p2.X)
		switch {
		case cross > vertexEpsilon:
			pos++
		case cross < -vertexEpsilon:
			neg++
		}
	}

	turns := pos + neg
	if turns == 0 {
		// All vertices collinear.
		return ConvexityReport{ReflexCount: 0, Ratio: 0}
	}

	majority := pos
	reflex := neg
	if neg > pos {
		majority = neg
		reflex = pos
	}
	return ConvexityReport{
		Convex:      reflex == 0,
		ReflexCount: reflex,
		Ratio:       float64(majority) / float64(turns),
	}
}

// ConvexHull computes the convex hull of the points with a Graham scan:
// pick the lowest-then-leftmost point as pivot, sort the rest by polar
// angle around it (ties broken by distance), then sweep maintaining a
// counter-clockwise turn invariant.
func ConvexHull(points []Point) Polygon {
	if len(points) < 3 {
		hull := make(Polygon, len(points))
		copy(hull, points)
		return hull
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	// Pivot: lowest Y, then leftmost X.
	pi := 0
	for i, p := range pts {
		if p.Y < pts[pi].Y || (p.Y == pts[pi].Y && p.X < pts[pi].X) {
			pi = i
		}
	}
	pts[0], pts[pi] = pts[pi], pts[0]
	pivot := pts[0]

	sort.Slice(pts[1:], func(i, j int) bool {
		a, b := pts[1+i], pts[1+j]
		cross := isLeft(pivot, a, b)
		if math.Abs(cross) > vertexEpsilon {
			return cross > 0
		}
		return pivot.Dist(a) < pivot.Dist(b)
	})

	var hull Polygon
	for _, p := range pts {
		// Pop points that would create a clockwise turn.
		for len(hull) >= 2 && isLeft(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// QualityScore rates a candidate polygon on a 0..100 scale. The score
// blends a geometric component (60%: aspect ratio, area banding,
// convexity bonus) with a topological component (40%: self-intersection
// penalty, vertex-count banding).
func QualityScore(poly Polygon) float64 {
	if len(poly) < 3 {
		return 0
	}

	score := 0.0

	// Geometric component (max 60).
	ar := AspectRatio(BoundingBox(poly))
	switch {
	case ar <= 2:
		score += 25
	case ar <= 4:
		score += 18
	case ar <= 8:
		score += 10
	default:
		score += 3
	}

	area := math.Abs(PolygonArea(poly))
	switch {
	case area >= 2000 && area <= 200000:
		score += 20 // typical sublot footprint
	case area >= 500:
		score += 12
	default:
		score += 5
	}

	conv := AnalyzeConvexity(poly)
	if conv.Convex {
		score += 15
	} else {
		score += 15 * conv.Ratio * 0.5
	}

	// Topological component (max 40).
	if len(SelfIntersections(poly)) == 0 {
		score += 25
	}

	switch n := len(poly); {
	case n >= 4 && n <= 6:
		score += 15
	case n == 3 || n <= 8:
		score += 10
	case n <= 12:
		score += 5
	}

	return math.Max(0, math.Min(100, score))
}
