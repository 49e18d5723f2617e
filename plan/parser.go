package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ParsePlanFile reads and parses a plan JSON document
func ParsePlanFile(path string) (*PlanDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	doc, err := ParsePlanJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// ParsePlanJSON parses a plan JSON document
func ParsePlanJSON(data []byte) (*PlanDocument, error) {
	var doc PlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &doc, nil
}

// FindPlanFiles globs the data directory for stored plan documents
func FindPlanFiles(dataDir string) ([]string, error) {
	pattern := filepath.Join(dataDir, "*.plan.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("finding plan files: %w", err)
	}
	return files, nil
}

// SavePlanFile writes a plan document back to disk
func SavePlanFile(path string, doc *PlanDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing plan file: %w", err)
	}
	return nil
}

// Polylines converts the structured border/divider arrays of the
// document into tagged polylines, in document order: borders first,
// then sublot dividers. Non-finite coordinates are preserved here and
// stripped at detection ingestion.
func (doc *PlanDocument) Polylines() []Polyline {
	var out []Polyline
	for _, raw := range doc.Borders {
		out = append(out, rawPolyline(raw, RoleBorder))
	}
	for _, raw := range doc.Sublots {
		out = append(out, rawPolyline(raw, RoleSublot))
	}
	return out
}

// SetPolylines writes tagged polylines back into the document's
// structured arrays, replacing the previous content.
func (doc *PlanDocument) SetPolylines(polylines []Polyline) {
	doc.Borders = doc.Borders[:0]
	doc.Sublots = doc.Sublots[:0]
	for _, pl := range polylines {
		raw := make([][2]float64, len(pl.Points))
		for i, p := range pl.Points {
			raw[i] = [2]float64{p.X, p.Y}
		}
		if pl.Role == RoleBorder {
			doc.Borders = append(doc.Borders, raw)
		} else {
			doc.Sublots = append(doc.Sublots, raw)
		}
	}
}

func rawPolyline(raw [][2]float64, role PolylineRole) Polyline {
	pts := make([]Point, len(raw))
	for i, c := range raw {
		pts[i] = Point{X: c[0], Y: c[1]}
	}
	return Polyline{Role: role, Points: pts}
}
