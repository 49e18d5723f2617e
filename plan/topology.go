package plan

import "sort"

// ConnectionType classifies a topology edge by how its endpoints relate
type ConnectionType string

const (
	// ConnInternal links two points of the same polyline.
	ConnInternal ConnectionType = "internal"
	// ConnEndpoint links two polyline endpoints, the signature of a
	// manual join.
	ConnEndpoint ConnectionType = "endpoint"
	// ConnCrossBorder links points of different polylines where at
	// least one side is not an endpoint.
	ConnCrossBorder ConnectionType = "cross"
)

// Connection is a weighted, ranked edge from one topology node to
// another.
type Connection struct {
	Target   int
	Weight   float64
	Distance float64
	Type     ConnectionType
}

// TopoNode is one entry of the topology arena: a single (polyline,
// point-index) pair with its ranked neighborhood.
type TopoNode struct {
	Pos      Point
	Line     int
	Index    int
	Endpoint bool
	Conns    []Connection
}

// Topology is the connectivity graph the cycle search runs over. Nodes
// are addressed by plain array index.
type Topology struct {
	Nodes []TopoNode
}

// boxEntry is one item of the flat bounding-box index.
type boxEntry struct {
	minX, minY, maxX, maxY float64
	id                     int
}

// boxIndex is a simple R-tree-style list with box-intersection query.
// Worst case O(n) per query, adequate for editor-scale point counts.
type boxIndex struct {
	entries []boxEntry
}

func (bi *boxIndex) insert(id int, minX, minY, maxX, maxY float64) {
	bi.entries = append(bi.entries, boxEntry{minX: minX, minY: minY, maxX: maxX, maxY: maxY, id: id})
}

// search appends to buf the ids of all entries whose box intersects the
// query box.
func (bi *boxIndex) search(buf []int, minX, minY, maxX, maxY float64) []int {
	for _, e := range bi.entries {
		if e.maxX >= minX && e.minX <= maxX && e.maxY >= minY && e.minY <= maxY {
			buf = append(buf, e.id)
		}
	}
	return buf
}

// Connection weight shaping: endpoints joining endpoints is the
// strongest signal of an intended connection, while proximity between
// two points of the same polyline is discouraged so self-loops do not
// dominate the search. Sequential edges along a polyline carry a fixed
// weight below the coincident-endpoint maximum.
const (
	endpointBonus       = 0.3
	samePolylinePenalty = 0.5
	sequentialWeight    = 1.0
)

// BuildTopology indexes every polyline point and derives weighted
// adjacency: sequential edges between consecutive points of each
// polyline, plus proximity edges between any two nodes within the
// connection tolerance. Each node's connections are sorted descending
// by weight so the cycle search explores the most plausible joins
// first.
func BuildTopology(polylines []Polyline, tolerance float64) *Topology {
	if tolerance <= 0 {
		tolerance = DefaultMergeTolerance
	}

	topo := &Topology{}
	for li, pl := range polylines {
		if len(pl.Points) < 2 {
			continue
		}
		for pi, pt := range pl.Points {
			topo.Nodes = append(topo.Nodes, TopoNode{
				Pos:      pt,
				Line:     li,
				Index:    pi,
				Endpoint: pi == 0 || pi == len(pl.Points)-1,
			})
		}
	}

	idx := &boxIndex{}
	for i, n := range topo.Nodes {
		idx.insert(i, n.Pos.X, n.Pos.Y, n.Pos.X, n.Pos.Y)
	}

	var buf []int
	for i := range topo.Nodes {
		node := &topo.Nodes[i]

		// Sequential edges to the previous/next point of the same
		// polyline.
		if node.Index > 0 {
			prev := i - 1
			node.Conns = append(node.Conns, Connection{
				Target:   prev,
				Weight:   sequentialWeight,
				Distance: node.Pos.Dist(topo.Nodes[prev].Pos),
				Type:     ConnInternal,
			})
		}
		if i+1 < len(topo.Nodes) && topo.Nodes[i+1].Line == node.Line {
			node.Conns = append(node.Conns, Connection{
				Target:   i + 1,
				Weight:   sequentialWeight,
				Distance: node.Pos.Dist(topo.Nodes[i+1].Pos),
				Type:     ConnInternal,
			})
		}

		// Proximity edges within the connection tolerance.
		buf = idx.search(buf[:0],
			node.Pos.X-tolerance, node.Pos.Y-tolerance,
			node.Pos.X+tolerance, node.Pos.Y+tolerance)

		for _, j := range buf {
			if j == i {
				continue
			}
			other := &topo.Nodes[j]
			if other.Line == node.Line && (other.Index == node.Index-1 || other.Index == node.Index+1) {
				continue // already linked sequentially
			}
			dist := node.Pos.Dist(other.Pos)
			if dist > tolerance {
				continue
			}

			weight := 1 - dist/tolerance
			connType := ConnCrossBorder
			if node.Line == other.Line {
				weight -= samePolylinePenalty
				connType = ConnInternal
			} else if node.Endpoint && other.Endpoint {
				weight += endpointBonus
				connType = ConnEndpoint
			}

			node.Conns = append(node.Conns, Connection{
				Target:   j,
				Weight:   weight,
				Distance: dist,
				Type:     connType,
			})
		}

		sort.SliceStable(node.Conns, func(a, b int) bool {
			return node.Conns[a].Weight > node.Conns[b].Weight
		})
	}

	return topo
}
