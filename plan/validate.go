package plan

import (
	"fmt"
	"math"
)

// Pipeline stage names, used as keys of the per-stage rejection tallies.
const (
	StageVertexCount      = "vertex-count"
	StageGeometry         = "geometry"
	StageArea             = "area"
	StageAspectRatio      = "aspect-ratio"
	StageSelfIntersection = "self-intersection"
	StageContainment      = "containment"
	StageQuality          = "quality"
	StageDuplicate        = "duplicate"
	StageCombination      = "combination"
)

// Rejection explains why one candidate did not become a sublot
type Rejection struct {
	Candidate int    `json:"candidate"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

// Duplicate/combination tolerances. A candidate matching an accepted
// sublot in area, centroid and three quarters of its vertices is the
// same region re-derived; one matching the sum of two accepted sublots
// is a spurious combination.
const (
	duplicateAreaTolerance    = 0.05
	duplicateVertexMatchRatio = 0.75
	combinationAreaTolerance  = 0.12
)

// validator runs the sequential, short-circuiting filter pipeline over
// candidate polygons. Checks run in a fixed order and the first failing
// stage names the rejection.
type validator struct {
	cfg      DetectionConfig
	boundary Polygon
	accepted []*Sublot
}

func newValidator(cfg DetectionConfig, boundary Polygon) *validator {
	return &validator{cfg: cfg, boundary: boundary}
}

// check runs the pipeline over one candidate. On success it returns the
// partially filled sublot (geometry metrics and containment set); on
// failure it returns the rejection.
func (v *validator) check(candidate int, poly Polygon) (*Sublot, *Rejection) {
	reject := func(stage, format string, args ...interface{}) (*Sublot, *Rejection) {
		return nil, &Rejection{Candidate: candidate, Stage: stage, Reason: fmt.Sprintf(format, args...)}
	}

	// 1. Vertex-count bounds.
	n := len(poly)
	if n < v.cfg.MinVertices || n > v.cfg.MaxVertices {
		return reject(StageVertexCount, "%d vertices outside [%d, %d]", n, v.cfg.MinVertices, v.cfg.MaxVertices)
	}

	// 2. Full geometric validity.
	for i, p := range poly {
		if !p.IsFinite() {
			return reject(StageGeometry, "non-finite coordinate at vertex %d", i)
		}
	}
	signedArea := PolygonArea(poly)
	area := math.Abs(signedArea)
	if area < degenerateAreaEpsilon {
		return reject(StageGeometry, "degenerate polygon, area %.3g", area)
	}

	// 3. Area bounds. minArea is inclusive.
	if area < v.cfg.MinArea {
		return reject(StageArea, "area %.1f below minimum %.1f", area, v.cfg.MinArea)
	}
	if v.cfg.MaxArea > 0 && area > v.cfg.MaxArea {
		return reject(StageArea, "area %.1f above maximum %.1f", area, v.cfg.MaxArea)
	}

	// 4. Aspect ratio.
	bounds := BoundingBox(poly)
	ar := AspectRatio(bounds)
	if ar > v.cfg.MaxAspectRatio {
		return reject(StageAspectRatio, "aspect ratio %.2f above maximum %.2f", ar, v.cfg.MaxAspectRatio)
	}

	// 5. Self-intersection. Accepted sublots tolerate none.
	if crossings := SelfIntersections(poly); len(crossings) > 0 {
		c := crossings[0]
		return reject(StageSelfIntersection, "%d self-intersections, first between edges %d and %d",
			len(crossings), c.EdgeA, c.EdgeB)
	}

	// 6. Containment against the unified external boundary.
	containment := 1.0
	if len(v.boundary) >= 3 {
		containment = ContainmentRatio(poly, v.boundary)
		if containment < v.cfg.ContainmentThreshold {
			return reject(StageContainment, "containment %.2f below threshold %.2f",
				containment, v.cfg.ContainmentThreshold)
		}
	}

	// 7. Quality score.
	quality := QualityScore(poly)
	if quality < v.cfg.QualityThreshold {
		return reject(StageQuality, "quality %.1f below threshold %.1f", quality, v.cfg.QualityThreshold)
	}

	// 8. Near-duplicate of an accepted sublot.
	for i, s := range v.accepted {
		if v.isDuplicate(poly, area, s) {
			return reject(StageDuplicate, "near-duplicate of accepted sublot %d", i)
		}
	}

	// 9. Approximate union of two accepted sublots.
	if i, j, ok := v.findCombination(poly, area); ok {
		return reject(StageCombination, "combination of existing subplots %d and %d", i, j)
	}

	return &Sublot{
		Vertices:    poly,
		SignedArea:  signedArea,
		Area:        area,
		Perimeter:   PolygonPerimeter(poly),
		Bounds:      bounds,
		AspectRatio: ar,
		Containment: containment,
		Quality:     quality,
	}, nil
}

// accept registers a sublot so later candidates are checked against it
func (v *validator) accept(s *Sublot) {
	v.accepted = append(v.accepted, s)
}

// isDuplicate compares area, centroid and vertex correspondence against
// an already accepted sublot.
func (v *validator) isDuplicate(poly Polygon, area float64, s *Sublot) bool {
	maxArea := math.Max(area, s.Area)
	if maxArea == 0 || math.Abs(area-s.Area)/maxArea > duplicateAreaTolerance {
		return false
	}
	if PolygonCentroid(poly).Dist(s.Centroid()) > v.cfg.Tolerance {
		return false
	}

	// Vertex correspondence: fraction of candidate vertices with a
	// counterpart in the accepted sublot within tolerance.
	matched := 0
	for _, p := range poly {
		for _, q := range s.Vertices {
			if p.Dist(q) <= v.cfg.Tolerance {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(poly)) >= duplicateVertexMatchRatio
}

// findCombination looks for a pair of accepted sublots whose combined
// area and area-weighted centroid match the candidate.
func (v *validator) findCombination(poly Polygon, area float64) (int, int, bool) {
	if len(v.accepted) < 2 {
		return 0, 0, false
	}

	centroid := PolygonCentroid(poly)
	for i := 0; i < len(v.accepted); i++ {
		for j := i + 1; j < len(v.accepted); j++ {
			a, b := v.accepted[i], v.accepted[j]
			sum := a.Area + b.Area
			if sum == 0 || math.Abs(area-sum)/sum > combinationAreaTolerance {
				continue
			}

			ca, cb := a.Centroid(), b.Centroid()
			combined := Point{
				X: (ca.X*a.Area + cb.X*b.Area) / sum,
				Y: (ca.Y*a.Area + cb.Y*b.Area) / sum,
			}
			if centroid.Dist(combined) <= v.cfg.Tolerance*2 {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// ContainmentRatio returns the fraction of candidate vertices that lie
// inside (or on) the reference boundary. A vertex counts as contained
// when the winding number is nonzero or it sits on a boundary edge.
func ContainmentRatio(poly, boundary Polygon) float64 {
	if len(poly) == 0 || len(boundary) < 3 {
		return 0
	}

	inside := 0
	for _, p := range poly {
		if WindingNumber(p, boundary) != 0 || onBoundary(p, boundary) {
			inside++
		}
	}
	return float64(inside) / float64(len(poly))
}

func onBoundary(p Point, boundary Polygon) bool {
	n := len(boundary)
	for i := 0; i < n; i++ {
		a := boundary[i]
		b := boundary[(i+1)%n]
		if distToSegment(p, a, b) <= vertexEpsilon {
			return true
		}
	}
	return false
}

func distToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// ExternalBoundary derives the unified external boundary from the
// border polylines: a single closed border is used directly, otherwise
// the convex hull of all border points.
func ExternalBoundary(polylines []Polyline, tol float64) Polygon {
	var borderPts []Point
	var closed []Polygon
	for _, pl := range polylines {
		if pl.Role != RoleBorder {
			continue
		}
		borderPts = append(borderPts, pl.Points...)
		if pl.IsClosed(tol) && len(pl.Points) >= 4 {
			ring := make(Polygon, len(pl.Points)-1)
			copy(ring, pl.Points[:len(pl.Points)-1])
			closed = append(closed, ring)
		}
	}

	if len(closed) == 1 {
		return closed[0]
	}
	if len(borderPts) < 3 {
		return nil
	}
	return ConvexHull(borderPts)
}
