package plan

// Search bounds: the depth cap and the per-start-node cycle cap keep a
// detection run terminating in practice regardless of graph density.
const (
	maxSearchDepth    = 15
	maxCyclesPerStart = 5
)

// Cycle is an ordered sequence of topology node indices returning to
// its start.
type Cycle []int

// FindCycles enumerates candidate closed cycles of the topology graph.
// From every not-yet-visited node it runs a depth-first search over the
// weight-ranked connections, using an explicit frame stack with an
// immutable path copy per branch. A cycle is recorded when the search
// returns to its start node with a path of at least minVertices nodes.
// Nodes of an accepted cycle are marked visited, which stops them from
// seeding further searches (paths may still pass through them), so the
// same region is not re-derived from every one of its own nodes.
func FindCycles(topo *Topology, minVertices, maxVertices int) []Cycle {
	if topo == nil || len(topo.Nodes) == 0 {
		return nil
	}
	if minVertices < 3 {
		minVertices = 3
	}
	depthCap := maxVertices
	if depthCap > maxSearchDepth || depthCap <= 0 {
		depthCap = maxSearchDepth
	}

	visited := make([]bool, len(topo.Nodes))
	var cycles []Cycle

	for start := range topo.Nodes {
		if visited[start] {
			continue
		}
		found := searchFrom(topo, start, minVertices, depthCap)
		for _, c := range found {
			for _, n := range c {
				visited[n] = true
			}
		}
		cycles = append(cycles, found...)
	}

	return cycles
}

type searchFrame struct {
	node int
	path Cycle
}

// searchFrom explores outward from the start node. Connections are
// already sorted by descending weight, so pushing them in reverse keeps
// the stack popping the most plausible join first.
func searchFrom(topo *Topology, start, minVertices, depthCap int) []Cycle {
	var found []Cycle

	stack := []searchFrame{{node: start, path: Cycle{start}}}
	for len(stack) > 0 && len(found) < maxCyclesPerStart {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		conns := topo.Nodes[frame.node].Conns
		for ci := len(conns) - 1; ci >= 0; ci-- {
			conn := conns[ci]

			if conn.Target == start {
				if len(frame.path) >= minVertices {
					cycle := make(Cycle, len(frame.path))
					copy(cycle, frame.path)
					found = append(found, cycle)
					if len(found) >= maxCyclesPerStart {
						break
					}
				}
				continue
			}

			if len(frame.path) >= depthCap {
				continue
			}
			if containsNode(frame.path, conn.Target) {
				continue
			}

			next := make(Cycle, len(frame.path), len(frame.path)+1)
			copy(next, frame.path)
			next = append(next, conn.Target)
			stack = append(stack, searchFrame{node: conn.Target, path: next})
		}
	}

	return found
}

func containsNode(path Cycle, node int) bool {
	for _, n := range path {
		if n == node {
			return true
		}
	}
	return false
}

// endpointJoins returns how many endpoint-to-endpoint connections the
// node has. Two or more means at least three polylines meet there, the
// signature of a manual multi-way join.
func endpointJoins(topo *Topology, node int) int {
	if !topo.Nodes[node].Endpoint {
		return 0
	}
	n := 0
	for _, c := range topo.Nodes[node].Conns {
		if c.Type == ConnEndpoint {
			n++
		}
	}
	return n
}

// IsExplicitClosure decides whether a raw cycle represents a closure
// the user actually drew, as opposed to one formed purely by the
// pre-existing geometry of previously accepted sublots. A cycle
// qualifies when it touches one of the recently added polylines, or
// when it passes through at least two multi-way joins.
func IsExplicitClosure(topo *Topology, cycle Cycle, recentLines map[int]bool) bool {
	for _, n := range cycle {
		if recentLines[topo.Nodes[n].Line] {
			return true
		}
	}

	joins := 0
	for _, n := range cycle {
		if endpointJoins(topo, n) >= 2 {
			joins++
			if joins >= 2 {
				return true
			}
		}
	}
	return false
}

// CyclePolygon converts a cycle to a polygon of ordered node positions.
// Consecutive nodes within mergeTol of each other collapse to a single
// vertex: coincident endpoints of joined polylines produce duplicate
// positions along the path.
func CyclePolygon(topo *Topology, cycle Cycle, mergeTol float64) Polygon {
	var poly Polygon
	for _, n := range cycle {
		pos := topo.Nodes[n].Pos
		if len(poly) > 0 && poly[len(poly)-1].Dist(pos) <= mergeTol {
			continue
		}
		poly = append(poly, pos)
	}
	// The closing vertex may also collapse onto the first.
	if len(poly) >= 2 && poly[0].Dist(poly[len(poly)-1]) <= mergeTol {
		poly = poly[:len(poly)-1]
	}
	return poly
}
