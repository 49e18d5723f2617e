package plan

import (
	"math"
	"testing"
)

func enriched(poly Polygon, quality, containment float64) *Sublot {
	s := &Sublot{
		Vertices:    poly,
		Area:        math.Abs(PolygonArea(poly)),
		Quality:     quality,
		Containment: containment,
	}
	Enrich(s)
	return s
}

func TestEnrich_Categories(t *testing.T) {
	cases := []struct {
		name string
		poly Polygon
		want SublotCategory
	}{
		{"triangle", Polygon{{0, 0}, {100, 0}, {0, 100}}, CategoryTriangular},
		{"convex quad", square(100), CategoryCuadrilateral},
		{"convex hexagon", Polygon{{50, 0}, {100, 25}, {100, 75}, {50, 100}, {0, 75}, {0, 25}}, CategoryRegular},
		{"concave quad", Polygon{{0, 0}, {100, 0}, {100, 100}, {60, 30}}, CategoryIrregular},
		{"many-sided", Polygon{
			{0, 0}, {30, 5}, {60, 0}, {90, 10}, {100, 40}, {95, 70},
			{80, 95}, {50, 100}, {20, 95}, {5, 70}, {0, 40},
		}, CategoryComplejo},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := enriched(tc.poly, 80, 1)
			if s.Category != tc.want {
				t.Errorf("Expected category %s, got %s", tc.want, s.Category)
			}
		})
	}
}

func TestEnrich_ConfidenceBlend(t *testing.T) {
	// Convex square in the typical area band with perfect inputs maxes
	// every component: 0.5 + 0.3 + 0.1 + 0.1.
	s := enriched(square(100), 100, 1)
	if math.Abs(s.Confidence-1.0) > 1e-9 {
		t.Errorf("Expected confidence 1.0, got %f", s.Confidence)
	}

	// Low quality and poor containment drag it down.
	low := enriched(square(100), 20, 0.5)
	want := 0.5*0.2 + 0.3*0.5 + 0.1 + 0.1
	if math.Abs(low.Confidence-want) > 1e-9 {
		t.Errorf("Expected confidence %f, got %f", want, low.Confidence)
	}

	// Tiny area loses the typical-footprint bonus.
	tiny := enriched(square(10), 100, 1)
	if tiny.Confidence >= s.Confidence {
		t.Errorf("Tiny sublot (%f) should score below typical one (%f)", tiny.Confidence, s.Confidence)
	}

	for _, c := range []*Sublot{s, low, tiny} {
		if c.Confidence < 0 || c.Confidence > 1 {
			t.Errorf("Confidence %f outside [0,1]", c.Confidence)
		}
	}
}

func TestEnrich_ConvexityReport(t *testing.T) {
	s := enriched(square(100), 80, 1)
	if !s.Convexity.Convex {
		t.Error("Square should be convex")
	}

	concave := enriched(Polygon{{0, 0}, {100, 0}, {100, 100}, {60, 30}}, 80, 1)
	if concave.Convexity.Convex {
		t.Error("Concave quad reported convex")
	}
	if concave.Convexity.ReflexCount == 0 {
		t.Error("Expected at least one reflex vertex")
	}
}

func TestComputeMetrics(t *testing.T) {
	sublots := []*Sublot{
		enriched(Polygon{{0, 0}, {100, 0}, {0, 100}}, 90, 1),
		enriched(square(100), 50, 1),
	}
	sublots[0].Quality = 90
	sublots[1].Quality = 50

	m := ComputeMetrics(sublots)
	if m.AverageQuality != 70 {
		t.Errorf("Expected average quality 70, got %f", m.AverageQuality)
	}
	if m.TotalArea != 15000 {
		t.Errorf("Expected total area 15000, got %f", m.TotalArea)
	}
	if m.AverageArea != 7500 {
		t.Errorf("Expected average area 7500, got %f", m.AverageArea)
	}
	if m.Categories[CategoryTriangular] != 1 || m.Categories[CategoryCuadrilateral] != 1 {
		t.Errorf("Unexpected category tally %v", m.Categories)
	}
	if m.QualityBands["alta"] != 1 || m.QualityBands["media"] != 1 {
		t.Errorf("Unexpected quality bands %v", m.QualityBands)
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil)
	if m.TotalArea != 0 || m.AverageQuality != 0 {
		t.Errorf("Empty run should have zero metrics, got %+v", m)
	}
	if m.Categories == nil || m.QualityBands == nil {
		t.Error("Maps must be initialized even for empty runs")
	}
}
