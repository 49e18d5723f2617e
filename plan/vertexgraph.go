package plan

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// DefaultMergeTolerance is the distance within which two raw polyline
// points resolve to the same shared vertex.
const DefaultMergeTolerance = 18.0

// VertexID identifies a shared vertex. IDs are indices into the graph's
// internal arena and stay valid for the life of the graph; merged or
// removed vertices keep their slot but stop resolving.
type VertexID int

// Incidence records one polyline point slot that references a shared
// vertex.
type Incidence struct {
	Role  PolylineRole `json:"role"`
	Line  int          `json:"line"`
	Point int          `json:"point"`
}

type sharedVertex struct {
	pos        Point
	incidences []Incidence
	alive      bool
}

// vertexPointer adapts a vertex to the quadtree's Pointer interface
type vertexPointer struct {
	id  VertexID
	pos orb.Point
}

func (vp *vertexPointer) Point() orb.Point { return vp.pos }

// VertexGraph is the single source of truth for vertex identity across
// a mutable collection of polylines. Any two raw points within the
// merge tolerance resolve to the same vertex id; moving a vertex yields
// the full incidence list so the caller can update every referenced
// polyline point atomically.
//
// Merging is first-come-first-served in construction order: a chain of
// near-tolerance points may merge transitively, and a later point that
// is within tolerance of two earlier, mutually-out-of-tolerance
// vertices joins whichever the spatial lookup finds nearest. This is a
// deliberate approximation, not globally optimal clustering.
type VertexGraph struct {
	Tolerance float64

	vertices []sharedVertex
	index    *quadtree.Quadtree
	dirty    bool
}

// NewVertexGraph creates an empty graph with the given merge tolerance.
// A tolerance <= 0 falls back to DefaultMergeTolerance.
func NewVertexGraph(tolerance float64) *VertexGraph {
	if tolerance <= 0 {
		tolerance = DefaultMergeTolerance
	}
	return &VertexGraph{Tolerance: tolerance, dirty: true}
}

// Count returns the number of live vertices
func (g *VertexGraph) Count() int {
	n := 0
	for _, v := range g.vertices {
		if v.alive {
			n++
		}
	}
	return n
}

// Position returns the canonical position of a vertex
func (g *VertexGraph) Position(id VertexID) (Point, bool) {
	if !g.valid(id) {
		return Point{}, false
	}
	return g.vertices[id].pos, true
}

// Incidences returns a copy of the vertex's incidence list
func (g *VertexGraph) Incidences(id VertexID) ([]Incidence, bool) {
	if !g.valid(id) {
		return nil, false
	}
	inc := make([]Incidence, len(g.vertices[id].incidences))
	copy(inc, g.vertices[id].incidences)
	return inc, true
}

func (g *VertexGraph) valid(id VertexID) bool {
	return id >= 0 && int(id) < len(g.vertices) && g.vertices[id].alive
}

// rebuildIndex re-derives the quadtree over all live vertices. The
// tree bound is the live-vertex bounding box padded by the tolerance,
// so FindNear queries just outside the extremes still resolve.
func (g *VertexGraph) rebuildIndex() {
	g.dirty = false
	g.index = nil

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	live := 0
	for _, v := range g.vertices {
		if !v.alive {
			continue
		}
		live++
		minX = math.Min(minX, v.pos.X)
		minY = math.Min(minY, v.pos.Y)
		maxX = math.Max(maxX, v.pos.X)
		maxY = math.Max(maxY, v.pos.Y)
	}
	if live == 0 {
		return
	}

	pad := math.Max(g.Tolerance, 1)
	bound := orb.Bound{
		Min: orb.Point{minX - pad, minY - pad},
		Max: orb.Point{maxX + pad, maxY + pad},
	}

	qt := quadtree.New(bound)
	for id := range g.vertices {
		v := &g.vertices[id]
		if !v.alive {
			continue
		}
		_ = qt.Add(&vertexPointer{id: VertexID(id), pos: orb.Point{v.pos.X, v.pos.Y}})
	}
	g.index = qt
}

// FindNear returns the nearest live vertex within tolerance of pos, if
// any. Lookup goes through the quadtree rather than a linear scan.
func (g *VertexGraph) FindNear(pos Point, tolerance float64) (VertexID, bool) {
	if g.dirty {
		g.rebuildIndex()
	}
	if g.index == nil {
		return -1, false
	}

	found := g.index.KNearest(nil, orb.Point{pos.X, pos.Y}, 1, tolerance)
	if len(found) == 0 {
		return -1, false
	}
	vp := found[0].(*vertexPointer)

	// KNearest uses the tree bound distance; re-check with the exact
	// euclidean metric.
	if g.vertices[vp.id].pos.Dist(pos) > tolerance {
		return -1, false
	}
	return vp.id, true
}

// GetOrCreate resolves pos to a shared vertex: if one exists within the
// merge tolerance the incidence is added to it, otherwise a new vertex
// is allocated. Returns the vertex id either way.
func (g *VertexGraph) GetOrCreate(pos Point, role PolylineRole, line, point int) VertexID {
	inc := Incidence{Role: role, Line: line, Point: point}

	if id, ok := g.FindNear(pos, g.Tolerance); ok {
		g.addIncidence(id, inc)
		return id
	}

	g.vertices = append(g.vertices, sharedVertex{
		pos:        pos,
		incidences: []Incidence{inc},
		alive:      true,
	})
	id := VertexID(len(g.vertices) - 1)

	// Grow the index in place while the new point fits its bound; a
	// point outside forces a rebuild on the next lookup.
	if g.index != nil && !g.dirty {
		if err := g.index.Add(&vertexPointer{id: id, pos: orb.Point{pos.X, pos.Y}}); err != nil {
			g.dirty = true
		}
	} else {
		g.dirty = true
	}
	return id
}

func (g *VertexGraph) addIncidence(id VertexID, inc Incidence) {
	for _, have := range g.vertices[id].incidences {
		if have == inc {
			return
		}
	}
	g.vertices[id].incidences = append(g.vertices[id].incidences, inc)
}

// Move updates the vertex position and returns the full incidence list
// so the caller can write the new coordinates into every referenced
// polyline point. The returned list is complete or the move did not
// happen; there is no partial state.
func (g *VertexGraph) Move(id VertexID, pos Point) ([]Incidence, error) {
	if !g.valid(id) {
		return nil, fmt.Errorf("vertex %d does not exist", id)
	}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("vertex %d: non-finite target position", id)
	}

	g.vertices[id].pos = pos
	g.dirty = true

	inc := make([]Incidence, len(g.vertices[id].incidences))
	copy(inc, g.vertices[id].incidences)
	return inc, nil
}

// Connect merges vertex b into vertex a, unioning their incidence
// lists. The surviving vertex is placed at the midpoint of the two.
// Connecting a vertex to itself is rejected as a no-op.
func (g *VertexGraph) Connect(a, b VertexID) (VertexID, error) {
	if a == b {
		return a, fmt.Errorf("cannot connect vertex %d to itself", a)
	}
	if !g.valid(a) || !g.valid(b) {
		return -1, fmt.Errorf("connect %d-%d: vertex does not exist", a, b)
	}

	va := &g.vertices[a]
	vb := &g.vertices[b]
	va.pos = Point{X: (va.pos.X + vb.pos.X) / 2, Y: (va.pos.Y + vb.pos.Y) / 2}
	for _, inc := range vb.incidences {
		g.addIncidence(a, inc)
	}
	vb.alive = false
	vb.incidences = nil
	g.dirty = true
	return a, nil
}

// Remove deletes the vertex and returns its incidence list so the
// caller can delete those points from their polylines. A polyline
// dropping below 2 points afterwards must be discarded by the caller.
func (g *VertexGraph) Remove(id VertexID) ([]Incidence, error) {
	if !g.valid(id) {
		return nil, fmt.Errorf("vertex %d does not exist", id)
	}

	inc := g.vertices[id].incidences
	g.vertices[id].alive = false
	g.vertices[id].incidences = nil
	g.dirty = true
	return inc, nil
}

// RebuildFrom clears the graph and re-derives the full vertex set from
// the polyline collection. Assignment is first-come-first-served in
// iteration order: two points merge into one vertex iff their distance
// is within the tolerance at the moment the later one is inserted.
func (g *VertexGraph) RebuildFrom(polylines []Polyline) {
	g.vertices = g.vertices[:0]
	g.index = nil
	g.dirty = true

	for li, pl := range polylines {
		for pi, pt := range pl.Points {
			if !pt.IsFinite() {
				continue
			}
			g.GetOrCreate(pt, pl.Role, li, pi)
		}
	}
}

// ApplyMove writes a vertex position into every incident polyline point.
// It is the caller-side half of the atomic move propagation.
func ApplyMove(polylines []Polyline, incidences []Incidence, pos Point) {
	for _, inc := range incidences {
		if inc.Line < 0 || inc.Line >= len(polylines) {
			continue
		}
		pts := polylines[inc.Line].Points
		if inc.Point < 0 || inc.Point >= len(pts) {
			continue
		}
		pts[inc.Point] = pos
	}
}
