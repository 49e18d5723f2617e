package plan

import "math"

// Confidence blend weights: quality carries half, containment most of
// the rest, with small bonuses for convex shapes and typical sublot
// footprints.
const (
	confidenceQualityWeight     = 0.5
	confidenceContainmentWeight = 0.3
	confidenceConvexityBonus    = 0.1
	confidenceAreaBonus         = 0.1
)

// typical sublot area band used by the confidence bonus
const (
	typicalAreaMin = 2000.0
	typicalAreaMax = 200000.0
)

// Enrich fills the derived fields of an accepted sublot: convexity
// report, confidence and shape category.
func Enrich(s *Sublot) {
	s.Convexity = AnalyzeConvexity(s.Vertices)
	s.Confidence = confidence(s)
	s.Category = categorize(len(s.Vertices), s.Convexity)
}

func confidence(s *Sublot) float64 {
	c := confidenceQualityWeight * (s.Quality / 100)
	c += confidenceContainmentWeight * s.Containment
	if s.Convexity.Convex {
		c += confidenceConvexityBonus
	} else {
		c += confidenceConvexityBonus * s.Convexity.Ratio * 0.5
	}
	if s.Area >= typicalAreaMin && s.Area <= typicalAreaMax {
		c += confidenceAreaBonus
	}
	return math.Max(0, math.Min(1, c))
}

// categorize picks the shape category from vertex count and convexity
func categorize(vertices int, conv ConvexityReport) SublotCategory {
	switch {
	case vertices == 3:
		return CategoryTriangular
	case vertices == 4 && conv.Convex:
		return CategoryCuadrilateral
	case conv.Convex && vertices <= 8:
		return CategoryRegular
	case vertices > 8:
		return CategoryComplejo
	default:
		return CategoryIrregular
	}
}

// RunMetrics aggregates run-level statistics over the accepted sublots
type RunMetrics struct {
	AverageQuality    float64                `json:"averageQuality"`
	AverageConfidence float64                `json:"averageConfidence"`
	TotalArea         float64                `json:"totalArea"`
	AverageArea       float64                `json:"averageArea"`
	Categories        map[SublotCategory]int `json:"categories"`
	QualityBands      map[string]int         `json:"qualityBands"`
}

// ComputeMetrics summarizes the accepted sublots of a run
func ComputeMetrics(sublots []*Sublot) RunMetrics {
	m := RunMetrics{
		Categories:   make(map[SublotCategory]int),
		QualityBands: make(map[string]int),
	}
	if len(sublots) == 0 {
		return m
	}

	for _, s := range sublots {
		m.AverageQuality += s.Quality
		m.AverageConfidence += s.Confidence
		m.TotalArea += s.Area
		m.Categories[s.Category]++
		m.QualityBands[qualityBand(s.Quality)]++
	}

	n := float64(len(sublots))
	m.AverageQuality /= n
	m.AverageConfidence /= n
	m.AverageArea = m.TotalArea / n
	return m
}

func qualityBand(q float64) string {
	switch {
	case q >= 70:
		return "alta"
	case q >= 40:
		return "media"
	default:
		return "baja"
	}
}
