package plan

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// storedPlan couples a plan document with its editing state
type storedPlan struct {
	Doc       *PlanDocument    `json:"doc"`
	Polylines []Polyline       `json:"polylines"`
	Result    *DetectionResult `json:"result,omitempty"`
	Recent    []int            `json:"recent,omitempty"`
	Updated   time.Time        `json:"updated"`
}

// recentWindow is how many of the latest inserted polylines count as
// "recently added" for the explicit-closure heuristic.
const recentWindow = 3

// PlanStore tracks loaded plans, their editable polyline sets and the
// last detection result per plan. Detection results are invalidated
// whenever any polyline of their plan is edited or removed. The store
// optionally persists itself to a JSON cache file.
type PlanStore struct {
	mu        sync.RWMutex
	plans     map[string]*storedPlan
	cachePath string // empty disables persistence
}

// NewPlanStore creates an empty plan store
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]*storedPlan)}
}

// NewPlanStoreWithCache creates a store that persists to the given
// cache file. If the file exists, its content is loaded on creation.
func NewPlanStoreWithCache(cachePath string) *PlanStore {
	st := &PlanStore{
		plans:     make(map[string]*storedPlan),
		cachePath: cachePath,
	}
	if cachePath != "" {
		if err := st.loadCache(); err != nil {
			log.Printf("Plan cache not loaded: %v", err)
		}
	}
	return st
}

// UpsertPlan registers or replaces a plan document. Any previous
// detection result for the plan is invalidated.
func (st *PlanStore) UpsertPlan(doc *PlanDocument) {
	st.mu.Lock()
	st.plans[doc.Name] = &storedPlan{
		Doc:       doc,
		Polylines: doc.Polylines(),
		Updated:   time.Now(),
	}
	st.mu.Unlock()
	st.persist()
}

// PlanNames returns the names of all stored plans
func (st *PlanStore) PlanNames() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	names := make([]string, 0, len(st.plans))
	for name := range st.plans {
		names = append(names, name)
	}
	return names
}

// Polylines returns a copy of the plan's current polyline set and the
// recently-inserted indices, or false when the plan is unknown.
func (st *PlanStore) Polylines(name string) ([]Polyline, []int, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sp, ok := st.plans[name]
	if !ok {
		return nil, nil, false
	}

	lines := make([]Polyline, len(sp.Polylines))
	for i, pl := range sp.Polylines {
		pts := make([]Point, len(pl.Points))
		copy(pts, pl.Points)
		lines[i] = Polyline{Role: pl.Role, Points: pts}
	}
	recent := make([]int, len(sp.Recent))
	copy(recent, sp.Recent)
	return lines, recent, true
}

// AddPolyline appends a polyline to the plan and flags it as recently
// added. The plan's detection result is invalidated.
func (st *PlanStore) AddPolyline(name string, pl Polyline) error {
	st.mu.Lock()
	sp, ok := st.plans[name]
	if !ok {
		st.mu.Unlock()
		return fmt.Errorf("plan %q not found", name)
	}

	sp.Polylines = append(sp.Polylines, pl)
	sp.Recent = append(sp.Recent, len(sp.Polylines)-1)
	if len(sp.Recent) > recentWindow {
		sp.Recent = sp.Recent[len(sp.Recent)-recentWindow:]
	}
	sp.Result = nil
	sp.Updated = time.Now()
	sp.Doc.SetPolylines(sp.Polylines)
	st.mu.Unlock()
	st.persist()
	return nil
}

// UpdatePolyline replaces the points of one polyline and invalidates
// the plan's detection result.
func (st *PlanStore) UpdatePolyline(name string, index int, points []Point) error {
	st.mu.Lock()
	sp, ok := st.plans[name]
	if !ok {
		st.mu.Unlock()
		return fmt.Errorf("plan %q not found", name)
	}
	if index < 0 || index >= len(sp.Polylines) {
		st.mu.Unlock()
		return fmt.Errorf("plan %q: polyline %d out of range", name, index)
	}

	sp.Polylines[index].Points = points
	sp.Result = nil
	sp.Updated = time.Now()
	sp.Doc.SetPolylines(sp.Polylines)
	st.mu.Unlock()
	st.persist()
	return nil
}

// SetResult stores the detection result of a plan
func (st *PlanStore) SetResult(name string, result *DetectionResult) {
	st.mu.Lock()
	if sp, ok := st.plans[name]; ok {
		sp.Result = result
		sp.Updated = time.Now()
	}
	st.mu.Unlock()
	st.persist()
}

// Result returns the last valid detection result for the plan, if any
func (st *PlanStore) Result(name string) (*DetectionResult, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sp, ok := st.plans[name]
	if !ok || sp.Result == nil {
		return nil, false
	}
	return sp.Result, true
}

// HasPlans reports whether any plan is loaded
func (st *PlanStore) HasPlans() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.plans) > 0
}

// persist writes the store to the cache file when persistence is on
func (st *PlanStore) persist() {
	if st.cachePath == "" {
		return
	}
	st.mu.RLock()
	data, err := json.MarshalIndent(st.plans, "", "  ")
	st.mu.RUnlock()
	if err != nil {
		log.Printf("Error marshaling plan cache: %v", err)
		return
	}

	dir := filepath.Dir(st.cachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Error creating cache directory: %v", err)
		return
	}
	if err := os.WriteFile(st.cachePath, data, 0644); err != nil {
		log.Printf("Error writing plan cache: %v", err)
	}
}

func (st *PlanStore) loadCache() error {
	data, err := os.ReadFile(st.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading plan cache: %w", err)
	}

	plans := make(map[string]*storedPlan)
	if err := json.Unmarshal(data, &plans); err != nil {
		return fmt.Errorf("parsing plan cache: %w", err)
	}

	st.mu.Lock()
	st.plans = plans
	st.mu.Unlock()
	return nil
}
