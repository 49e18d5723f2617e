package plan

import (
	"math"
	"sort"
	"time"
)

// minUsablePolylines is the smallest polyline set that can enclose a
// region.
const minUsablePolylines = 3

// ReasonInsufficientInput is reported when too few usable polylines
// remain after ingestion.
const ReasonInsufficientInput = "insufficient input"

// DetectionReport is the diagnostics record returned alongside the
// accepted sublots. Every rejected candidate appears here with a
// human-readable reason, so a caller can explain why a region was not
// accepted.
type DetectionReport struct {
	TotalPolylines    int            `json:"totalPolylines"`
	UsablePolylines   int            `json:"usablePolylines"`
	DroppedPolylines  []int          `json:"droppedPolylines,omitempty"`
	CandidateCycles   int            `json:"candidateCycles"`
	HeuristicRejected int            `json:"heuristicRejected"`
	Rejections        []Rejection    `json:"rejections,omitempty"`
	StageCounts       map[string]int `json:"stageCounts"`
	FailureReason     string         `json:"failureReason,omitempty"`
	ProcessingTime    time.Duration  `json:"processingTime"`
	Algorithms        []string       `json:"algorithms"`
}

// DetectionResult bundles the accepted sublots with the run diagnostics
type DetectionResult struct {
	Sublots []*Sublot       `json:"sublots"`
	Metrics RunMetrics      `json:"metrics"`
	Report  DetectionReport `json:"report"`
}

// DetectSublots runs the full detection pipeline over the polyline set:
// topology construction, cycle enumeration, the explicit-closure
// heuristic, the validation pipeline and result enrichment. The run is
// synchronous and single-threaded; the caller must not mutate the
// polyline set while it executes.
//
// recentLines flags the indices of the last few polylines inserted by
// the editor; cycles touching one of them count as user-intended
// closures. Detection is history-dependent through this parameter:
// geometrically identical inputs constructed in a different order can
// yield different results.
func DetectSublots(polylines []Polyline, recentLines []int, cfg DetectionConfig) *DetectionResult {
	start := time.Now()
	cfg = cfg.Normalize()

	report := DetectionReport{
		TotalPolylines: len(polylines),
		StageCounts:    make(map[string]int),
		Algorithms: []string{
			"shoelace-area",
			"winding-number",
			"graham-scan-hull",
			"weighted-proximity-topology",
			"bounded-dfs-cycles",
		},
	}
	result := &DetectionResult{Report: report}

	// Ingestion: drop polylines with fewer than 2 finite points,
	// continue with the remainder. Non-finite points never reach the
	// kernel.
	usable, dropped := sanitizePolylines(polylines)
	usableCount := 0
	for _, pl := range usable {
		if len(pl.Points) >= 2 {
			usableCount++
		}
	}
	result.Report.UsablePolylines = usableCount
	result.Report.DroppedPolylines = dropped
	if usableCount < minUsablePolylines {
		result.Report.FailureReason = ReasonInsufficientInput
		result.Report.ProcessingTime = time.Since(start)
		result.Metrics = ComputeMetrics(nil)
		return result
	}

	// Thin out digitization noise before topology construction. Sharp
	// corners are meaningful here, so topology is preserved.
	for i := range usable {
		usable[i].Points = Simplify(usable[i].Points, cfg.SimplificationEpsilon, true)
	}

	recent := make(map[int]bool, len(recentLines))
	for _, li := range recentLines {
		recent[li] = true
	}

	// Topology + cycle enumeration.
	topo := BuildTopology(usable, cfg.Tolerance)
	cycles := FindCycles(topo, cfg.MinVertices, cfg.MaxVertices)
	result.Report.CandidateCycles = len(cycles)

	// Explicit-closure heuristic: suppress cycles formed purely by the
	// pre-existing geometry.
	var kept []Cycle
	for _, c := range cycles {
		if IsExplicitClosure(topo, c, recent) {
			kept = append(kept, c)
		} else {
			result.Report.HeuristicRejected++
		}
	}

	// Convert cycles to polygons. Coincident join vertices collapse
	// with a dedupe threshold well below the connection tolerance.
	dedupeTol := cfg.Tolerance / 10
	polys := make([]Polygon, 0, len(kept))
	for _, c := range kept {
		polys = append(polys, CyclePolygon(topo, c, dedupeTol))
	}

	// Validate smaller candidates first so that a region equal to the
	// union of two real sublots is seen after its parts and rejected as
	// a combination.
	sort.SliceStable(polys, func(i, j int) bool {
		return math.Abs(PolygonArea(polys[i])) < math.Abs(PolygonArea(polys[j]))
	})

	boundary := ExternalBoundary(usable, cfg.Tolerance)
	v := newValidator(cfg, boundary)
	for i, poly := range polys {
		sublot, rejection := v.check(i, poly)
		if rejection != nil {
			result.Report.Rejections = append(result.Report.Rejections, *rejection)
			result.Report.StageCounts[rejection.Stage]++
			continue
		}
		Enrich(sublot)
		v.accept(sublot)
		result.Sublots = append(result.Sublots, sublot)
	}

	result.Metrics = ComputeMetrics(result.Sublots)
	result.Report.ProcessingTime = time.Since(start)
	return result
}

// sanitizePolylines strips non-finite points and drops polylines left
// with fewer than 2 points. Returns the usable set and the indices of
// dropped polylines. Indices of the usable set match the input so
// recent-line flags stay meaningful.
func sanitizePolylines(polylines []Polyline) ([]Polyline, []int) {
	usable := make([]Polyline, 0, len(polylines))
	var dropped []int

	for i, pl := range polylines {
		pts := make([]Point, 0, len(pl.Points))
		for _, p := range pl.Points {
			if p.IsFinite() {
				pts = append(pts, p)
			}
		}
		if len(pts) < 2 {
			dropped = append(dropped, i)
			// Keep an empty placeholder so polyline indices survive.
			usable = append(usable, Polyline{Role: pl.Role})
			continue
		}
		usable = append(usable, Polyline{Role: pl.Role, Points: pts})
	}

	return usable, dropped
}
