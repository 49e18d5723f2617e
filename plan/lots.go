package plan

import (
	"fmt"
	"math"
	"time"
)

// LotState tracks the commercial state of a lot record
type LotState string

const (
	LotAvailable LotState = "disponible"
	LotReserved  LotState = "reservado"
	LotSold      LotState = "vendido"
)

// Lot is a named, sellable record derived from an accepted sublot.
// Field names follow the persistence format of the lot documents.
type Lot struct {
	Plan        string    `json:"plano,omitempty"`
	Name        string    `json:"nombre"`
	Description string    `json:"descripcion,omitempty"`
	Vertices    Polygon   `json:"vertices"`
	Area        float64   `json:"area"`
	SideLengths []float64 `json:"medidas_lados,omitempty"`
	Price       float64   `json:"precio,omitempty"`
	State       LotState  `json:"estado"`
	Created     time.Time `json:"creado"`
}

// NewLotFromSublot builds a lot record from an accepted sublot. Names
// are generated sequentially in the Lote-001 pattern when none is
// given.
func NewLotFromSublot(planName string, s *Sublot, sequence int) *Lot {
	return &Lot{
		Plan:        planName,
		Name:        fmt.Sprintf("Lote-%03d", sequence),
		Vertices:    s.Vertices,
		Area:        s.Area,
		SideLengths: sideLengths(s.Vertices),
		State:       LotAvailable,
		Created:     time.Now(),
	}
}

// CalculatedArea recomputes the lot area from its stored vertices.
// Returns 0 when fewer than 3 vertices are stored.
func (l *Lot) CalculatedArea() float64 {
	if len(l.Vertices) < 3 {
		return 0
	}
	return math.Abs(PolygonArea(l.Vertices))
}

// sideLengths returns the edge lengths of the closed vertex ring
func sideLengths(poly Polygon) []float64 {
	n := len(poly)
	if n < 2 {
		return nil
	}
	sides := make([]float64, n)
	for i := 0; i < n; i++ {
		sides[i] = poly[i].Dist(poly[(i+1)%n])
	}
	return sides
}
