package plan

import (
	"testing"
)

// squareWithDiagonal is the canonical two-triangle fixture: a four-side
// border square plus a freshly drawn diagonal divider.
func squareWithDiagonal(size float64) []Polyline {
	return append(borderSquare(size),
		Polyline{Role: RoleSublot, Points: []Point{{0, 0}, {size, size}}})
}

func TestFindCycles_SquareLoop(t *testing.T) {
	topo := BuildTopology(borderSquare(100), 15)
	cycles := FindCycles(topo, 3, 12)
	if len(cycles) == 0 {
		t.Fatal("Closed border square should yield at least one cycle")
	}

	// At least one cycle must trace the full perimeter: its polygon,
	// with coincident corner nodes collapsed, is the 4-corner square.
	foundSquare := false
	for _, c := range cycles {
		poly := CyclePolygon(topo, c, 1.5)
		if len(poly) == 4 && absArea(poly) > 9999 {
			foundSquare = true
		}
	}
	if !foundSquare {
		t.Errorf("No perimeter cycle found among %d cycles", len(cycles))
	}
}

func TestFindCycles_SharedEdgeYieldsBothTriangles(t *testing.T) {
	topo := BuildTopology(squareWithDiagonal(100), 15)
	cycles := FindCycles(topo, 3, 12)

	lower, upper := 0, 0
	for _, c := range cycles {
		poly := CyclePolygon(topo, c, 1.5)
		if len(poly) != 3 {
			continue
		}
		cen := PolygonCentroid(poly)
		switch {
		case cen.X > cen.Y:
			lower++
		case cen.Y > cen.X:
			upper++
		}
	}
	if lower == 0 || upper == 0 {
		t.Errorf("Both triangles sharing the diagonal must be found, got lower=%d upper=%d", lower, upper)
	}
}

func TestFindCycles_Bounds(t *testing.T) {
	topo := BuildTopology(squareWithDiagonal(100), 15)

	for _, c := range FindCycles(topo, 3, 12) {
		if len(c) < 3 {
			t.Errorf("Cycle below minimum length: %v", c)
		}
		if len(c) > maxSearchDepth {
			t.Errorf("Cycle above depth cap: %v", c)
		}
		seen := map[int]bool{}
		for _, n := range c {
			if seen[n] {
				t.Errorf("Cycle revisits node %d: %v", n, c)
			}
			seen[n] = true
		}
	}
}

func TestFindCycles_EmptyAndOpenInput(t *testing.T) {
	if got := FindCycles(nil, 3, 12); got != nil {
		t.Errorf("nil topology should yield nil, got %v", got)
	}

	// Two disjoint open strokes cannot close.
	open := []Polyline{
		{Role: RoleSublot, Points: []Point{{0, 0}, {100, 0}}},
		{Role: RoleSublot, Points: []Point{{0, 50}, {100, 50}}},
	}
	topo := BuildTopology(open, 15)
	if got := FindCycles(topo, 3, 12); len(got) != 0 {
		t.Errorf("Open strokes should yield no cycles, got %d", len(got))
	}
}

func TestIsExplicitClosure_RecentLine(t *testing.T) {
	topo := BuildTopology(squareWithDiagonal(100), 15)
	cycles := FindCycles(topo, 3, 12)
	if len(cycles) == 0 {
		t.Fatal("fixture yielded no cycles")
	}

	recent := map[int]bool{4: true} // the diagonal
	touching := false
	for _, c := range cycles {
		if IsExplicitClosure(topo, c, recent) {
			touching = true
			break
		}
	}
	if !touching {
		t.Error("Cycles touching the recent diagonal must qualify as explicit")
	}
}

func TestIsExplicitClosure_PlainCornersRejected(t *testing.T) {
	// A bare border square: every corner joins only two lines, so no
	// node has two endpoint-to-endpoint connections and nothing is
	// recent. No cycle qualifies.
	topo := BuildTopology(borderSquare(100), 15)
	for _, c := range FindCycles(topo, 3, 12) {
		if IsExplicitClosure(topo, c, nil) {
			t.Errorf("Cycle %v should not qualify without recent lines or multi-way joins", c)
		}
	}
}

func TestIsExplicitClosure_MultiWayJoins(t *testing.T) {
	// With the diagonal, (0,0) and (100,100) are three-line meeting
	// points, so even non-recent cycles through both qualify.
	topo := BuildTopology(squareWithDiagonal(100), 15)
	qualified := 0
	for _, c := range FindCycles(topo, 3, 12) {
		if IsExplicitClosure(topo, c, nil) {
			qualified++
		}
	}
	if qualified == 0 {
		t.Error("Cycles through two multi-way joins must qualify without recency")
	}
}

func TestCyclePolygon_CollapsesCoincidentNodes(t *testing.T) {
	topo := BuildTopology(borderSquare(100), 15)
	cycles := FindCycles(topo, 3, 12)

	for _, c := range cycles {
		poly := CyclePolygon(topo, c, 1.5)
		for i := 1; i < len(poly); i++ {
			if poly[i].Dist(poly[i-1]) <= 1.5 {
				t.Errorf("Consecutive polygon vertices still coincident: %v", poly)
			}
		}
		if len(poly) >= 2 && poly[0].Dist(poly[len(poly)-1]) <= 1.5 {
			t.Errorf("Closing vertex not collapsed: %v", poly)
		}
	}
}

func absArea(p Polygon) float64 {
	a := PolygonArea(p)
	if a < 0 {
		return -a
	}
	return a
}
