package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateCfg() DetectionConfig {
	cfg := DefaultDetectionConfig()
	cfg.Tolerance = 15
	return cfg
}

func TestValidator_AcceptsGoodCandidate(t *testing.T) {
	v := newValidator(validateCfg(), nil)

	s, rej := v.check(0, square(100))
	require.Nil(t, rej)
	require.NotNil(t, s)

	assert.InDelta(t, 10000.0, s.Area, 1e-9)
	assert.InDelta(t, 10000.0, s.SignedArea, 1e-9)
	assert.InDelta(t, 400.0, s.Perimeter, 1e-9)
	assert.InDelta(t, 1.0, s.AspectRatio, 1e-9)
	assert.Equal(t, 1.0, s.Containment, "no boundary means containment is not constrained")
}

func TestValidator_StageOrder(t *testing.T) {
	cfg := validateCfg()
	cfg.MinArea = 1000
	v := newValidator(cfg, nil)

	cases := []struct {
		name  string
		poly  Polygon
		stage string
	}{
		{"too few vertices", Polygon{{0, 0}, {100, 0}}, StageVertexCount},
		{"too many vertices", make(Polygon, 20), StageVertexCount},
		{"non-finite vertex", Polygon{{0, 0}, {nan(), 0}, {50, 50}}, StageGeometry},
		{"degenerate area", Polygon{{0, 0}, {50, 50}, {100, 100}}, StageGeometry},
		{"below minimum area", Polygon{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, StageArea},
		{"needle sliver", Polygon{{0, 0}, {2000, 0}, {2000, 2}, {0, 2}}, StageAspectRatio},
		{"self-intersecting bowtie", Polygon{{0, 0}, {100, 0}, {20, 80}, {100, 100}}, StageSelfIntersection},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, rej := v.check(0, tc.poly)
			require.Nil(t, s)
			require.NotNil(t, rej)
			assert.Equal(t, tc.stage, rej.Stage)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestValidator_BowtieStopsBeforeLaterStages(t *testing.T) {
	// The asymmetric bowtie passes every earlier stage (area 1000,
	// square bounding box) and fails exactly at self-intersection.
	cfg := validateCfg()
	cfg.MinArea = 1000
	v := newValidator(cfg, square(200))

	bowtie := Polygon{{0, 0}, {100, 0}, {20, 80}, {100, 100}}
	_, rej := v.check(3, bowtie)
	require.NotNil(t, rej)
	assert.Equal(t, StageSelfIntersection, rej.Stage)
	assert.Equal(t, 3, rej.Candidate)
}

func TestValidator_Containment(t *testing.T) {
	boundary := square(100)
	v := newValidator(validateCfg(), boundary)

	// Fully inside.
	inside := Polygon{{10, 10}, {90, 10}, {90, 90}, {10, 90}}
	s, rej := v.check(0, inside)
	require.Nil(t, rej)
	assert.Equal(t, 1.0, s.Containment)

	// Vertices on the boundary itself still count as contained.
	s, rej = v.check(1, square(100))
	require.Nil(t, rej)
	assert.Equal(t, 1.0, s.Containment)

	// Half outside: 2 of 4 vertices beyond the boundary.
	cfg := validateCfg()
	cfg.MinArea = 100
	v = newValidator(cfg, boundary)
	straddling := Polygon{{50, 10}, {150, 10}, {150, 90}, {50, 90}}
	_, rej = v.check(2, straddling)
	require.NotNil(t, rej)
	assert.Equal(t, StageContainment, rej.Stage)
}

func TestValidator_DuplicateDetection(t *testing.T) {
	v := newValidator(validateCfg(), nil)

	first, rej := v.check(0, square(100))
	require.Nil(t, rej)
	v.accept(first)

	// Same region re-derived with a tiny vertex wobble.
	wobbled := Polygon{{1, 0}, {100, 1}, {99, 100}, {0, 99}}
	_, rej = v.check(1, wobbled)
	require.NotNil(t, rej)
	assert.Equal(t, StageDuplicate, rej.Stage)

	// A distinct region of similar size passes.
	shifted := Polygon{{200, 0}, {300, 0}, {300, 100}, {200, 100}}
	s, rej := v.check(2, shifted)
	require.Nil(t, rej)
	assert.NotNil(t, s)
}

func TestValidator_CombinationDetection(t *testing.T) {
	v := newValidator(validateCfg(), nil)

	left, rej := v.check(0, square(100))
	require.Nil(t, rej)
	v.accept(left)

	right, rej := v.check(1, Polygon{{100, 0}, {200, 0}, {200, 100}, {100, 100}})
	require.Nil(t, rej)
	v.accept(right)

	// The union rectangle of both accepted squares.
	union := Polygon{{0, 0}, {200, 0}, {200, 100}, {0, 100}}
	_, rej = v.check(2, union)
	require.NotNil(t, rej)
	assert.Equal(t, StageCombination, rej.Stage)

	// A same-size region elsewhere is not a combination.
	elsewhere := Polygon{{0, 200}, {200, 200}, {200, 300}, {0, 300}}
	s, rej := v.check(3, elsewhere)
	require.Nil(t, rej)
	assert.NotNil(t, s)
}

func TestContainmentRatio(t *testing.T) {
	boundary := square(100)

	if got := ContainmentRatio(Polygon{{10, 10}, {20, 10}, {20, 20}}, boundary); got != 1.0 {
		t.Errorf("Expected full containment, got %f", got)
	}
	if got := ContainmentRatio(Polygon{{10, 10}, {200, 10}, {200, 20}, {10, 20}}, boundary); got != 0.5 {
		t.Errorf("Expected half containment, got %f", got)
	}
	if got := ContainmentRatio(nil, boundary); got != 0 {
		t.Errorf("Empty polygon should give 0, got %f", got)
	}
	if got := ContainmentRatio(square(10), nil); got != 0 {
		t.Errorf("Missing boundary should give 0, got %f", got)
	}
}

func TestExternalBoundary_SingleClosedBorder(t *testing.T) {
	ring := Polyline{Role: RoleBorder, Points: []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}}
	got := ExternalBoundary([]Polyline{ring}, 15)

	require.Len(t, got, 4, "closing point is trimmed from the ring")
	assert.Equal(t, Point{0, 0}, got[0])
}

func TestExternalBoundary_HullFallback(t *testing.T) {
	got := ExternalBoundary(borderSquare(100), 15)
	require.Len(t, got, 4, "open border sides fall back to the convex hull")
	assert.Greater(t, PolygonArea(got), 0.0, "hull winds counter-clockwise")
}

func TestExternalBoundary_IgnoresSublotLines(t *testing.T) {
	lines := []Polyline{
		{Role: RoleSublot, Points: []Point{{0, 0}, {100, 100}}},
	}
	assert.Nil(t, ExternalBoundary(lines, 15))
}
