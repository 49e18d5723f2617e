package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jvaldes/planvec/plan"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(a *App) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			HasPlans  bool      `json:"hasPlans"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			HasPlans:  a.Store.HasPlans(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Plan listing
	mux.HandleFunc("/plans", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"plans": a.Store.PlanNames()})
	})

	// Per-plan endpoints: /plans/{name}/detect, /plans/{name}/sublots.geojson,
	// /plans/{name}/preview.svg, /plans/{name}/preview.png
	mux.HandleFunc("/plans/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/plans/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		name, action := parts[0], parts[1]

		polylines, recent, ok := a.Store.Polylines(name)
		if !ok {
			http.Error(w, "Plan not found", http.StatusNotFound)
			return
		}

		switch action {
		case "detect":
			if r.Method != http.MethodPost {
				http.Error(w, "POST required", http.StatusMethodNotAllowed)
				return
			}
			result := plan.DetectSublots(polylines, recent, a.Config.Detection)
			a.Store.SetResult(name, result)
			if a.Publisher != nil {
				if err := a.Publisher.PublishResult(name, polylines, result); err != nil {
					log.Printf("Error publishing result for %q: %v", name, err)
				}
			}
			writeJSON(w, result)

		case "sublots.geojson":
			result, ok := a.Store.Result(name)
			if !ok {
				// No valid cached result: run detection on demand.
				result = plan.DetectSublots(polylines, recent, a.Config.Detection)
				a.Store.SetResult(name, result)
			}
			w.Header().Set("Content-Type", "application/geo+json")
			writeJSON(w, plan.ResultToFeatureCollection(polylines, result))

		case "preview.svg", "preview.png":
			result, ok := a.Store.Result(name)
			if !ok {
				result = plan.DetectSublots(polylines, recent, a.Config.Detection)
				a.Store.SetResult(name, result)
			}
			renderer := plan.NewPlanRenderer(polylines, result)
			if action == "preview.svg" {
				w.Header().Set("Content-Type", "image/svg+xml")
				if err := renderer.RenderSVG(w); err != nil {
					log.Printf("Error rendering SVG for %q: %v", name, err)
				}
				return
			}
			w.Header().Set("Content-Type", "image/png")
			if err := renderer.RenderPNG(w); err != nil {
				log.Printf("Error rendering PNG for %q: %v", name, err)
			}

		case "polylines":
			if r.Method == http.MethodPost {
				var pl plan.Polyline
				if err := json.NewDecoder(r.Body).Decode(&pl); err != nil {
					http.Error(w, "Invalid polyline JSON", http.StatusBadRequest)
					return
				}
				if pl.Role != plan.RoleBorder && pl.Role != plan.RoleSublot {
					http.Error(w, "Role must be border or sublot", http.StatusBadRequest)
					return
				}
				if err := a.Store.AddPolyline(name, pl); err != nil {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusCreated)
				return
			}
			writeJSON(w, polylines)

		default:
			http.NotFound(w, r)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
