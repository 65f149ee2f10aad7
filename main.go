package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/renderloop/pathtrace/pkg/integrator"
	"github.com/renderloop/pathtrace/pkg/loaders"
	"github.com/renderloop/pathtrace/pkg/renderer"
	"github.com/renderloop/pathtrace/pkg/scene"
	"github.com/renderloop/pathtrace/web/server"
)

func main() {
	// Parse command line flags
	sceneFlag := flag.String("scene", "cornell", "Scene: 'cornell' or a JSON scene file")
	outputFlag := flag.String("output", "", "Output PNG path (default output/<scene>/render_<timestamp>.png)")
	settingsFlag := flag.String("settings", "", "TOML render settings file")
	widthFlag := flag.Int("width", 0, "Image width (0 keeps the scene camera width)")
	heightFlag := flag.Int("height", 0, "Image height (0 keeps the scene camera height)")
	samplesFlag := flag.Int("samples", 0, "Samples per pixel (0 uses the settings file or the built-in default)")
	workersFlag := flag.Int("workers", 0, "Render workers (0 uses one per CPU)")
	tileFlag := flag.Int("tile", 0, "Tile size in pixels")
	serveFlag := flag.Bool("serve", false, "Serve the web viewer instead of rendering to a file")
	portFlag := flag.Int("port", 8080, "Web viewer port (used with -serve)")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		printHelp()
		return
	}

	if *serveFlag {
		if err := serveViewer(*portFlag, *sceneFlag); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Starting progressive path tracer...")

	selected, err := createScene(*sceneFlag)
	if err != nil {
		fmt.Printf("Error loading scene: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scene: %s (%d primitives, %d lights)\n",
		sceneLabel(*sceneFlag), selected.PrimitiveCount(), selected.LightCount())

	var settings renderer.Settings
	if *settingsFlag != "" {
		settings, err = renderer.LoadSettings(*settingsFlag)
		if err != nil {
			fmt.Printf("Error loading settings: %v\n", err)
			os.Exit(1)
		}
	}

	// Overlay precedence: built-in defaults, then the settings file,
	// then explicit flags
	config := settings.Apply(renderer.DefaultConfig())
	if *samplesFlag > 0 {
		config.MaxSamples = *samplesFlag
	}
	if *tileFlag > 0 {
		config.TileSize = *tileFlag
	}
	if *workersFlag > 0 {
		config.NumWorkers = *workersFlag
	}

	camConfig := selected.Camera
	if settings.Width > 0 {
		camConfig.Width = settings.Width
	}
	if settings.Height > 0 {
		camConfig.Height = settings.Height
	}
	if *widthFlag > 0 {
		camConfig.Width = *widthFlag
	}
	if *heightFlag > 0 {
		camConfig.Height = *heightFlag
	}

	camera, err := renderer.NewCamera(camConfig)
	if err != nil {
		fmt.Printf("Error building camera: %v\n", err)
		os.Exit(1)
	}

	output := *outputFlag
	if output == "" {
		output = settings.Output
	}
	if output == "" {
		output = defaultOutputPath(*sceneFlag)
	}

	pt := renderer.NewProgressiveRenderer(selected, camera, integrator.NewPathTracingIntegrator(), config, nil)

	startTime := time.Now()
	img, err := pt.Render(context.Background())
	if err != nil {
		fmt.Printf("Render failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render completed in %v (%d samples/pixel)\n", time.Since(startTime), config.MaxSamples)

	if err := renderer.SavePNG(img, output); err != nil {
		fmt.Printf("Error saving PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", output)
}

// serveViewer runs the web viewer until the server stops
func serveViewer(port int, sceneName string) error {
	scenePath := ""
	if sceneName != "" && sceneName != "cornell" {
		scenePath = findSceneFile(sceneName)
		if scenePath == "" {
			return fmt.Errorf("unknown scene %q", sceneName)
		}
	}

	srv, err := server.NewServer(port, scenePath, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Serving the web viewer on http://localhost:%d\n", port)
	return srv.Start(context.Background())
}

// createScene builds the scene named by the -scene flag: a built-in
// name or a JSON scene file.
func createScene(name string) (*scene.Scene, error) {
	if name == "cornell" {
		return scene.NewCornellScene(), nil
	}
	if path := findSceneFile(name); path != "" {
		return loaders.LoadScene(path)
	}
	return nil, fmt.Errorf("unknown scene %q", name)
}

// findSceneFile resolves a scene argument to a JSON file on disk. A
// path is taken as is, a bare name is looked up under scenes/.
func findSceneFile(name string) string {
	var candidates []string
	if strings.HasSuffix(name, ".json") {
		candidates = append(candidates, name)
	} else if name != "" {
		candidates = append(candidates, filepath.Join("scenes", name+".json"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// sceneLabel names a scene argument for logs and output paths
func sceneLabel(name string) string {
	if strings.HasSuffix(name, ".json") {
		return strings.TrimSuffix(filepath.Base(name), ".json")
	}
	if name == "" {
		return "scene"
	}
	return name
}

// outputDir returns the directory renders of a scene are saved under
func outputDir(name string) string {
	return filepath.Join("output", sceneLabel(name))
}

// defaultOutputPath builds a timestamped PNG path for a scene
func defaultOutputPath(name string) string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(outputDir(name), fmt.Sprintf("render_%s.png", timestamp))
}

func printHelp() {
	fmt.Println("Progressive Path Tracer")
	fmt.Println("Usage: pathtrace [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Scenes:")
	fmt.Println("  cornell - Built-in Cornell box with an area light and two blocks")
	fmt.Println("  <path>  - JSON scene file; a bare name is looked up under scenes/")
	fmt.Println()
	fmt.Println("Output is saved to output/<scene>/render_<timestamp>.png unless -output is set.")
}
