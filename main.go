package main

import (
	"flag"
	"fmt"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "", "Path to configuration file (optional)")
	dataDir    = flag.String("data-dir", ".", "Directory containing *.plan.json documents")
	detectOnly = flag.Bool("detect", false, "Run sublot detection on all plan files and exit")
	renderOnly = flag.Bool("render", false, "Render plan previews and exit")
	outputDir  = flag.String("output-dir", ".", "Output directory for --render mode")
	format     = flag.String("format", "svg", "Render format: svg or png")
	httpMode   = flag.Bool("http", false, "Enable HTTP server")
	httpPort   = flag.Int("http-port", 8080, "HTTP server port")
	cacheFile  = flag.String("cache", "", "Path to plan store cache file (empty disables)")
)

func main() {
	flag.Parse()
	fmt.Printf("planvec version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile: *configFile,
		DataDir:    *dataDir,
		OutputDir:  *outputDir,
		Format:     *format,
		HTTPPort:   *httpPort,
		CacheFile:  *cacheFile,
	})

	if err := app.LoadConfig(); err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	if *detectOnly {
		app.RunDetect()
		return
	}

	if *renderOnly {
		app.RunRender()
		return
	}

	if *httpMode {
		app.RunService()
		return
	}

	flag.Usage()
	fmt.Println("\nUse --detect for batch detection, --render for previews, --http for service mode")
}

// AppOptions carries parsed CLI options into the App
type AppOptions struct {
	ConfigFile string
	DataDir    string
	OutputDir  string
	Format     string
	HTTPPort   int
	CacheFile  string
}
