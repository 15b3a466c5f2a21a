package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/statcompass/statcompass/pkg/analysis"
	"github.com/statcompass/statcompass/pkg/config"
	"github.com/statcompass/statcompass/pkg/export"
	"github.com/statcompass/statcompass/pkg/highlight"
	"github.com/statcompass/statcompass/pkg/history"
	"github.com/statcompass/statcompass/pkg/loader"
	"github.com/statcompass/statcompass/pkg/model"
	"github.com/statcompass/statcompass/pkg/ui"
	"github.com/statcompass/statcompass/pkg/version"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	initFlag := flag.Bool("init", false, "Interactively set up a .statcompass/ directory in the current project")
	dataFile := flag.String("data", "", "Tree data file (JSON or YAML); overrides config and discovery")
	themeName := flag.String("theme", "", "Color theme: dark or light (overrides config)")
	title := flag.String("title", "Statistical Test Guide", "Title used in exported documents")
	highlightNode := flag.String("highlight", "", "Node ID whose decision path is emphasized in exports")
	noWatch := flag.Bool("no-watch", false, "Disable live reload when the data file changes")
	exportSVG := flag.String("export-svg", "", "Export the tree diagram to an SVG file")
	exportPNG := flag.String("export-png", "", "Export the tree diagram to a PNG file")
	exportHTML := flag.String("export-html", "", "Export a self-contained interactive HTML file")
	exportMD := flag.String("export-md", "", "Export a Markdown report (e.g., report.md)")
	exportAll := flag.String("export-all", "", "Export all formats into a directory")
	serveAddr := flag.String("serve", "", "Serve the export directory with live reload (e.g., :8080)")
	robotHelp := flag.Bool("robot-help", false, "Show AI agent help")
	robotStats := flag.Bool("robot-stats", false, "Output tree structure statistics as JSON for AI agents")
	robotPath := flag.String("robot-path", "", "Output the decision path to a node as JSON for AI agents")
	robotHistory := flag.Bool("robot-history", false, "Output recently visited recommendations as JSON")
	historyLimit := flag.Int("history-limit", 20, "Number of entries for --robot-history (0 = all)")
	flag.Parse()

	if *help {
		fmt.Println("Usage: sc [options]")
		fmt.Println("\nA TUI guide and exporter for decision trees, with a built-in")
		fmt.Println("\"which statistical test should I use?\" tree.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("sc %s\n", version.Version)
		os.Exit(0)
	}

	if *robotHelp {
		printRobotHelp()
		os.Exit(0)
	}

	root := config.DetectRoot()
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *themeName != "" {
		cfg.Theme = *themeName
	}

	if *initFlag {
		if err := runInit(root, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	data, dataPath := loadTree(root, cfg, *dataFile)

	if *robotStats {
		writeJSON(struct {
			GeneratedAt string         `json:"generated_at"`
			Stats       analysis.Stats `json:"stats"`
		}{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Stats:       analysis.Compute(data),
		})
		os.Exit(0)
	}

	if *robotPath != "" {
		node, ok := data[*robotPath]
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: unknown node '%s'\n", *robotPath)
			os.Exit(1)
		}
		out := struct {
			NodeID string   `json:"node_id"`
			Test   string   `json:"test,omitempty"`
			Path   []string `json:"path"`
		}{NodeID: *robotPath, Path: highlight.PathToNode(*robotPath, data)}
		if node.Result != nil {
			out.Test = node.Result.Test
		}
		writeJSON(out)
		os.Exit(0)
	}

	if *robotHistory {
		store, err := history.Open(filepath.Join(root, config.DirName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		entries, err := store.Recent(*historyLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		writeJSON(struct {
			Entries []history.Entry `json:"entries"`
		}{Entries: entries})
		os.Exit(0)
	}

	opts := export.Options{
		Data:          data,
		Layout:        cfg.Layout,
		HighlightNode: *highlightNode,
		Title:         *title,
	}

	if *exportAll != "" {
		if err := exportEverything(*exportAll, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported SVG, PNG, HTML and Markdown to %s\n", *exportAll)
		os.Exit(0)
	}

	if *exportSVG != "" || *exportPNG != "" || *exportHTML != "" || *exportMD != "" {
		if err := exportSelected(opts, *exportSVG, *exportPNG, *exportHTML, *exportMD); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *serveAddr != "" {
		dir := cfg.ExportDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if err := servePreview(dir, *serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Error serving %s: %v\n", dir, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: stdout is not a terminal.")
		fmt.Fprintln(os.Stderr, "Use --robot-stats, --robot-path or an --export-* flag for non-interactive output.")
		os.Exit(1)
	}

	runTUI(root, cfg, data, dataPath, *noWatch)
}

// loadTree resolves the tree data: an explicit --data file wins, then the
// configured or discovered project file, then the built-in tree.
func loadTree(root string, cfg config.Config, explicit string) (model.TreeData, string) {
	if explicit != "" {
		data, err := loader.LoadFile(explicit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", explicit, err)
			os.Exit(1)
		}
		return data, explicit
	}
	if path, ok := config.DiscoverDataFile(root, cfg); ok {
		data, err := loader.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		return data, path
	}
	return loader.DefaultTree(), ""
}

func runTUI(root string, cfg config.Config, data model.TreeData, dataPath string, noWatch bool) {
	settingsDir := filepath.Join(root, config.DirName)

	var recorder ui.Recorder
	store, err := history.Open(settingsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
	} else {
		recorder = store
		defer store.Close()
	}

	m, err := ui.NewModel(ui.ModelConfig{
		Data:        data,
		Layout:      cfg.Layout,
		Theme:       ui.ThemeByName(cfg.Theme, lipgloss.DefaultRenderer()),
		SettingsDir: settingsDir,
		Recorder:    recorder,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if dataPath != "" && !noWatch {
		stop, err := ui.StartWatching(p, dataPath, cfg.Layout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running statcompass: %v\n", err)
		os.Exit(1)
	}
}

// exportEverything writes all four formats into dir concurrently. Each format
// renders from its own layout pass, so the writers are independent.
func exportEverything(dir string, opts export.Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var g errgroup.Group
	g.Go(func() error { return export.WriteSVGFile(filepath.Join(dir, "tree.svg"), opts) })
	g.Go(func() error { return export.WritePNGFile(filepath.Join(dir, "tree.png"), opts) })
	g.Go(func() error {
		_, err := export.GenerateInteractiveHTML(opts.Data, opts.Title, filepath.Join(dir, "tree.html"))
		return err
	})
	g.Go(func() error {
		return export.SaveMarkdownToFile(opts.Data, opts.Title, filepath.Join(dir, "tree.md"))
	})
	return g.Wait()
}

func exportSelected(opts export.Options, svgPath, pngPath, htmlPath, mdPath string) error {
	if svgPath != "" {
		if err := export.WriteSVGFile(svgPath, opts); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", svgPath)
	}
	if pngPath != "" {
		if err := export.WritePNGFile(pngPath, opts); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", pngPath)
	}
	if htmlPath != "" {
		written, err := export.GenerateInteractiveHTML(opts.Data, opts.Title, htmlPath)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", written)
	}
	if mdPath != "" {
		if err := export.SaveMarkdownToFile(opts.Data, opts.Title, mdPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", mdPath)
	}
	return nil
}

func servePreview(dir, addr string) error {
	srv, err := export.NewPreviewServer(dir)
	if err != nil {
		return err
	}
	defer srv.Stop()
	return srv.Serve(addr, func(actual string) {
		fmt.Printf("Serving %s at http://%s (live reload enabled, ctrl+c to stop)\n", dir, actual)
	})
}

// runInit scaffolds .statcompass/ with a config file and a starter tree.
func runInit(root string, cfg config.Config) error {
	format := "json"
	seed := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&cfg.Theme),
			huh.NewSelect[string]().
				Title("Tree data format").
				Options(
					huh.NewOption("JSON", "json"),
					huh.NewOption("YAML", "yaml"),
				).
				Value(&format),
			huh.NewConfirm().
				Title("Seed with the built-in statistical test tree?").
				Description("Answer no for a minimal single-question starter.").
				Value(&seed),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("init cancelled: %w", err)
	}

	tree := loader.DefaultTree()
	if !seed {
		tree = starterTree()
	}

	treeFile := filepath.Join(config.DirName, "tree."+format)
	cfg.DataFile = treeFile
	if err := config.Save(root, cfg); err != nil {
		return err
	}
	if err := writeTreeFile(filepath.Join(root, treeFile), format, tree); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", filepath.Join(root, config.DirName))
	fmt.Printf("  config: %s\n", filepath.Join(config.DirName, config.FileName))
	fmt.Printf("  tree:   %s\n", treeFile)
	fmt.Println("Run 'sc' to explore it.")
	return nil
}

func starterTree() model.TreeData {
	return model.TreeData{
		model.RootID: {
			Question: "What do you want to find out?",
			Options: []model.Option{
				{Label: "Example answer", NextNodeID: "example_result"},
			},
		},
		"example_result": {
			Result: &model.Result{
				Test:  "Example recommendation",
				Notes: "Replace this tree with your own questions and answers.",
			},
		},
	}
}

func writeTreeFile(path, format string, tree model.TreeData) error {
	var raw []byte
	var err error
	if format == "yaml" {
		raw, err = yaml.Marshal(tree)
	} else {
		raw, err = json.MarshalIndent(tree, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal tree: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

func printRobotHelp() {
	fmt.Println("sc (statcompass) AI Agent Interface")
	fmt.Println("===================================")
	fmt.Println("This tool navigates a decision tree and reports its structure.")
	fmt.Println("Use these commands for machine-readable output without a terminal.")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  --robot-stats")
	fmt.Println("      Outputs tree structure statistics as JSON.")
	fmt.Println("      Key fields:")
	fmt.Println("      - node_count / question_count / leaf_count: Tree size")
	fmt.Println("      - max_depth: Longest question chain from the root")
	fmt.Println("      - fanout_mean / fanout_stddev: Answer branching factor")
	fmt.Println("      - leaf_depths: Questions needed to reach each recommendation")
	fmt.Println("      - leaf_weights: Recommendations reachable from each node")
	fmt.Println("      - unreachable / dangling: Structural problems to fix")
	fmt.Println("      - cycles: Question loops (each listed once, smallest ID first)")
	fmt.Println("")
	fmt.Println("  --robot-path <node-id>")
	fmt.Println("      Outputs the decision path from the root to a node as JSON.")
	fmt.Println("      Includes the recommended test when the node is a leaf.")
	fmt.Println("")
	fmt.Println("  --robot-history [--history-limit N]")
	fmt.Println("      Outputs recently visited recommendations as JSON, newest first.")
	fmt.Println("      Each entry has node_id, test, path and visited_at.")
	fmt.Println("")
	fmt.Println("  --export-md <file>")
	fmt.Println("      Generates a readable Markdown report: summary statistics,")
	fmt.Println("      the full question outline and every recommendation's notes.")
	fmt.Println("")
	fmt.Println("  --export-svg / --export-png / --export-html <file>")
	fmt.Println("      Renders the tree diagram. The HTML export is self-contained")
	fmt.Println("      and interactive (expand/collapse in the browser).")
	fmt.Println("")
	fmt.Println("  --export-all <dir>")
	fmt.Println("      Writes tree.svg, tree.png, tree.html and tree.md into <dir>.")
	fmt.Println("")
	fmt.Println("  --data <file>")
	fmt.Println("      Use a specific JSON or YAML tree file instead of discovery.")
	fmt.Println("      Without it, sc probes .statcompass/tree.{json,yaml,yml} and")
	fmt.Println("      tree.{json,yaml,yml}, then falls back to the built-in tree.")
	fmt.Println("")
	fmt.Println("  --highlight <node-id>")
	fmt.Println("      Emphasize the decision path to a node in SVG/PNG exports.")
}
