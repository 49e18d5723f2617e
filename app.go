package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jvaldes/planvec/plan"
)

// App encapsulates the application state and dependencies
type App struct {
	Config    *plan.Config
	Store     *plan.PlanStore
	Publisher *plan.Publisher

	// CLI flags (effectively dependencies)
	ConfigFile string
	DataDir    string
	OutputDir  string
	Format     string
	HTTPPort   int
	CacheFile  string
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{Store: plan.NewPlanStore()}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.DataDir = opts.DataDir
	a.OutputDir = opts.OutputDir
	a.Format = opts.Format
	a.HTTPPort = opts.HTTPPort
	a.CacheFile = opts.CacheFile
}

// LoadConfig loads the YAML configuration if one was given and lets
// CLI flags override its values. Without a config file the defaults
// apply.
func (a *App) LoadConfig() error {
	if a.ConfigFile == "" {
		a.Config = &plan.Config{
			DataDir:   a.DataDir,
			HTTPPort:  a.HTTPPort,
			CacheFile: a.CacheFile,
			Detection: plan.DefaultDetectionConfig(),
		}
		return nil
	}

	config, err := plan.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}

	if a.DataDir != "." && a.DataDir != "" {
		config.DataDir = a.DataDir
	}
	if a.HTTPPort != 0 {
		config.HTTPPort = a.HTTPPort
	}
	if a.CacheFile != "" {
		config.CacheFile = a.CacheFile
	}

	a.Config = config
	return nil
}

// loadPlans parses every plan document in the data directory into the
// store. Unparseable documents are skipped with a log line, matching
// the engine's drop-and-continue error policy.
func (a *App) loadPlans() int {
	if a.Config.CacheFile != "" {
		a.Store = plan.NewPlanStoreWithCache(a.Config.CacheFile)
	}

	files, err := plan.FindPlanFiles(a.Config.DataDir)
	if err != nil {
		log.Printf("Error finding plan files: %v", err)
		return 0
	}

	loaded := 0
	for _, file := range files {
		doc, err := plan.ParsePlanFile(file)
		if err != nil {
			log.Printf("Skipping %s: %v", file, err)
			continue
		}
		a.Store.UpsertPlan(doc)
		loaded++
	}
	return loaded
}

// RunDetect runs sublot detection over every loaded plan and prints a
// per-plan summary.
func (a *App) RunDetect() {
	if a.loadPlans() == 0 {
		log.Fatalf("No *.plan.json files found in %s", a.Config.DataDir)
	}

	for _, name := range a.Store.PlanNames() {
		polylines, recent, _ := a.Store.Polylines(name)
		result := plan.DetectSublots(polylines, recent, a.Config.Detection)
		a.Store.SetResult(name, result)
		a.printSummary(name, result)
	}
}

func (a *App) printSummary(name string, result *plan.DetectionResult) {
	fmt.Printf("\nPlan %q: %d sublot(s) from %d candidate cycle(s) in %v\n",
		name, len(result.Sublots), result.Report.CandidateCycles, result.Report.ProcessingTime)
	if result.Report.FailureReason != "" {
		fmt.Printf("  no detection: %s\n", result.Report.FailureReason)
		return
	}

	for i, s := range result.Sublots {
		fmt.Printf("  %2d. %-13s area=%-10.1f quality=%-5.1f confidence=%.2f\n",
			i+1, s.Category, s.Area, s.Quality, s.Confidence)
	}
	if len(result.Report.Rejections) > 0 {
		fmt.Printf("  rejected %d candidate(s):\n", len(result.Report.Rejections))
		for stage, n := range result.Report.StageCounts {
			fmt.Printf("    %-18s %d\n", stage, n)
		}
	}
}

// RunRender renders a preview for every loaded plan into the output
// directory.
func (a *App) RunRender() {
	if a.loadPlans() == 0 {
		log.Fatalf("No *.plan.json files found in %s", a.Config.DataDir)
	}

	ext := strings.ToLower(a.Format)
	if ext != "svg" && ext != "png" {
		log.Fatalf("Unknown render format %q (want svg or png)", a.Format)
	}

	for _, name := range a.Store.PlanNames() {
		polylines, recent, _ := a.Store.Polylines(name)
		result := plan.DetectSublots(polylines, recent, a.Config.Detection)
		a.Store.SetResult(name, result)

		outPath := filepath.Join(a.OutputDir, fmt.Sprintf("%s.%s", name, ext))
		f, err := os.Create(outPath)
		if err != nil {
			log.Printf("Error creating %s: %v", outPath, err)
			continue
		}

		renderer := plan.NewPlanRenderer(polylines, result)
		if ext == "svg" {
			err = renderer.RenderSVG(f)
		} else {
			err = renderer.RenderPNG(f)
		}
		f.Close()
		if err != nil {
			log.Printf("Error rendering %s: %v", name, err)
			continue
		}
		fmt.Printf("Rendered %s (%d sublots)\n", outPath, len(result.Sublots))
	}
}

// RunService starts the HTTP server and, when configured, the MQTT
// result publisher. Blocks until SIGINT/SIGTERM.
func (a *App) RunService() {
	a.loadPlans()

	client, err := plan.ConnectMQTT(a.Config.MQTT)
	if err != nil {
		log.Printf("MQTT unavailable, continuing without publisher: %v", err)
	}
	if client != nil {
		a.Publisher = plan.NewPublisher(client, a.Config.MQTT)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.HTTPPort),
		Handler: newHTTPServer(a),
	}

	go func() {
		log.Printf("HTTP server listening on :%d", a.Config.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down")
	_ = server.Close()
	if client != nil {
		client.Disconnect(250)
	}
	time.Sleep(100 * time.Millisecond)
}
