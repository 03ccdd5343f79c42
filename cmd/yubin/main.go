// Package main is the Yubin CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/meridianlabs/yubin/internal/cli"
	"github.com/meridianlabs/yubin/internal/config"
	"github.com/meridianlabs/yubin/internal/export"
	"github.com/meridianlabs/yubin/internal/format"
	"github.com/meridianlabs/yubin/internal/importer"
	"github.com/meridianlabs/yubin/internal/mcp"
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/search"
	"github.com/meridianlabs/yubin/internal/server"
	"github.com/meridianlabs/yubin/internal/storage"
	"github.com/meridianlabs/yubin/internal/tools"
	"github.com/meridianlabs/yubin/internal/watcher"
	"github.com/meridianlabs/yubin/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/yubin/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. When neither exists, built-in defaults apply so yubin runs
// without any config file at all.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "mcp":
		runMCP()
	case "search":
		runSearch()
	case "geocode":
		runGeocode()
	case "reverse":
		runReverse()
	case "validate":
		runValidate()
	case "stats":
		runStats()
	case "suggest":
		runSuggest()
	case "nearest":
		runNearest()
	case "fetch":
		runFetch()
	case "import":
		runImport()
	case "export":
		runExport()
	case "version", "--version", "-v":
		fmt.Printf("yubin version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (tool calls, dataset events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(context.Background(), cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Dataset.WatchOrDefault() {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(
			components.Manager.Path(),
			func() {
				if err := components.Manager.Reset(); err != nil {
					logger.Warn("dataset handle reset failed", zap.Error(err))
				}
				components.Engine.Reset()
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(components.Dispatcher, components.Engine, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr; stdout is the protocol channel.
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	mcpServer := mcp.NewServer(components.Dispatcher, version, logger)
	if err := mcpServer.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		logger.Fatal("MCP server failed", zap.Error(err))
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	postalCode := fs.String("postal-code", "", "exact postal code to look up")
	prefix := fs.String("prefix", "", "postal code prefix to match")
	maxRows := fs.Int("max-rows", 10, "maximum results (1-100)")
	style := fs.String("style", "", "detail level: SHORT, MEDIUM, LONG or FULL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *postalCode == "" && *prefix == "" {
		fmt.Println("Usage: yubin search --postal-code <code> | --prefix <digits> [flags]")
		os.Exit(1)
	}

	query := &models.SearchQuery{
		PostalCode:       *postalCode,
		PostalCodePrefix: *prefix,
		Country:          "US",
		MaxRows:          *maxRows,
		Style:            *style,
	}

	if *serverURL != "" {
		response, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		writeResponse(response, *outputFormat)
		return
	}

	// Direct dataset access (no server required).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	records, err := components.Engine.Search(ctx, query)
	var response *models.GeonamesResponse
	if err != nil {
		response = models.DegradedResponse(err)
	} else {
		response = format.Records(records, query.Style)
	}
	writeResponse(response, *outputFormat)
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.GeonamesResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.GeonamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runGeocode() {
	fs := flag.NewFlagSet("geocode", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	style := fs.String("style", "", "detail level: SHORT, MEDIUM, LONG or FULL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: yubin geocode [flags] <postal-code>")
		os.Exit(1)
	}
	args := map[string]interface{}{"postalCode": fs.Arg(0)}
	if *style != "" {
		args["style"] = *style
	}

	raw, err := runTool(*serverURL, *configPath, tools.ToolGeocodePostal, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Geocode failed: %v\n", err)
		os.Exit(1)
	}
	writeRawResponse(raw, *outputFormat)
}

func runReverse() {
	fs := flag.NewFlagSet("reverse", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	radius := fs.Float64("radius", 0, "search radius in km (0.1-100, default 5)")
	maxResults := fs.Int("max-results", 0, "maximum results (1-100, default 10)")
	style := fs.String("style", "", "detail level: SHORT, MEDIUM, LONG or FULL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: yubin reverse [flags] <lat> <lng>")
		fmt.Println("Flags go before the coordinates so negative longitudes parse cleanly.")
		os.Exit(1)
	}
	lat, err := parseCoordinate(fs.Arg(0), "latitude")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lng, err := parseCoordinate(fs.Arg(1), "longitude")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := map[string]interface{}{"latitude": lat, "longitude": lng}
	if *radius != 0 {
		args["radius"] = *radius
	}
	if *maxResults != 0 {
		args["maxResults"] = *maxResults
	}
	if *style != "" {
		args["style"] = *style
	}

	raw, err := runTool(*serverURL, *configPath, tools.ToolReverseGeocode, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reverse geocode failed: %v\n", err)
		os.Exit(1)
	}
	writeRawResponse(raw, *outputFormat)
}

func runValidate() {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: yubin validate [flags] <postal-code>")
		os.Exit(1)
	}

	raw, err := runTool(*serverURL, *configPath, tools.ToolValidatePostal,
		map[string]interface{}{"postalCode": fs.Arg(0)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validate failed: %v\n", err)
		os.Exit(1)
	}

	f := mustFormat(*outputFormat)
	var result models.ValidationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteValidation(os.Stdout, &result, f); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	raw, err := runTool(*serverURL, *configPath, tools.ToolPostalStats, map[string]interface{}{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
		os.Exit(1)
	}

	f := mustFormat(*outputFormat)
	var stats models.StatsResult
	if err := json.Unmarshal(raw, &stats); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStats(os.Stdout, &stats, f); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSuggest() {
	suggestArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	limit := fs.Int("limit", 0, "maximum suggestions (1-20, default 5)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(suggestArgs)

	placeName := buildPlaceName(fs.Args())
	if placeName == "" {
		fmt.Println("Usage: yubin suggest [flags] <place name words...>")
		os.Exit(1)
	}

	args := map[string]interface{}{"placeName": placeName}
	if *limit != 0 {
		args["maxResults"] = *limit
	}

	raw, err := runTool(*serverURL, *configPath, tools.ToolPostalSuggest, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Suggest failed: %v\n", err)
		os.Exit(1)
	}

	f := mustFormat(*outputFormat)
	var response models.SuggestResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSuggestions(os.Stdout, &response, f); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runNearest() {
	fs := flag.NewFlagSet("nearest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = direct dataset access)")
	k := fs.Int("k", 0, "number of nearest codes (1-10, default 1)")
	style := fs.String("style", "", "detail level: SHORT, MEDIUM, LONG or FULL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: yubin nearest [flags] <lat> <lng>")
		fmt.Println("Flags go before the coordinates so negative longitudes parse cleanly.")
		os.Exit(1)
	}
	lat, err := parseCoordinate(fs.Arg(0), "latitude")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lng, err := parseCoordinate(fs.Arg(1), "longitude")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := map[string]interface{}{"latitude": lat, "longitude": lng}
	if *k != 0 {
		args["k"] = *k
	}
	if *style != "" {
		args["style"] = *style
	}

	raw, err := runTool(*serverURL, *configPath, tools.ToolPostalNearest, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Nearest failed: %v\n", err)
		os.Exit(1)
	}
	writeRawResponse(raw, *outputFormat)
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path, err := storage.EnsureDataset(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Dataset ready: %s\n", path)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	zipPath := fs.String("zip", "", "GeoNames zip archive (e.g. US.zip)")
	tsvPath := fs.String("tsv", "", "GeoNames tab-separated export (e.g. US.txt)")
	outPath := fs.String("out", "", "output dataset path (default: the configured dataset location)")
	_ = fs.Parse(os.Args[2:])

	if (*zipPath == "") == (*tsvPath == "") {
		fmt.Println("Usage: yubin import --zip <file> | --tsv <file> [--out <db>]")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dest := *outPath
	if dest == "" {
		dest = filepath.Join(cfg.Dataset.Dir, cfg.Dataset.Filename)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}

	im := importer.New(logger)
	ctx := context.Background()
	var result *importer.Result
	if *zipPath != "" {
		result, err = im.FromZip(ctx, *zipPath, dest)
	} else {
		result, err = im.FromTSV(ctx, *tsvPath, dest)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d records into %s (%d rows skipped)\n", result.Imported, dest, result.Skipped)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	state := fs.String("state", "", "export records in a state (two-letter code)")
	prefix := fs.String("prefix", "", "export records whose code starts with a prefix")
	outPath := fs.String("out", "postal_codes.csv", "output file (.csv or .xlsx)")
	limit := fs.Int("limit", 10000, "maximum rows to export")
	_ = fs.Parse(os.Args[2:])

	if *state != "" && *prefix != "" {
		fmt.Println("Usage: yubin export --state <code> | --prefix <digits> [--out <file>] [--limit <n>]")
		os.Exit(1)
	}
	if *limit < 1 {
		fmt.Println("--limit must be positive")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	// The exporter reads the storage layer directly: the engine caps
	// prefix lookups at 100 rows, which is far too low for a dump.
	var records []*models.PostalRecord
	if *state != "" {
		records, err = components.Manager.FindByState(ctx, strings.ToUpper(*state), *limit)
	} else {
		records, err = components.Manager.FindByPrefix(ctx, *prefix, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	if err := export.Records(records, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d records to %s\n", len(records), *outPath)
}

// runTool executes one tool call in server or direct mode and returns the
// raw JSON result, so both modes print byte-identical bodies.
func runTool(serverURL, configPath, tool string, args map[string]interface{}) ([]byte, error) {
	if serverURL != "" {
		return callViaHTTP(serverURL, tool, args)
	}

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	result, err := components.Dispatcher.Call(ctx, tool, raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func callViaHTTP(serverURL, tool string, args map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/tools/"+tool, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return b, nil
}

// argsReorder moves any flags (and their values) that appear after
// positional arguments to the front of the slice so that flag.Parse() sees
// them. Go's flag package stops at the first non-flag argument, so
// "yubin suggest seattle -limit 3" would otherwise leave -limit unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildPlaceName joins all positional args with spaces so multi-word place
// names work the same with or without shell quoting.
func buildPlaceName(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseCoordinate(arg, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, arg)
	}
	return v, nil
}

// parseFormat maps the --output flag to a cli output format.
func parseFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "json":
		return cli.OutputJSON, nil
	case "text", "":
		return cli.OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func mustFormat(s string) cli.OutputFormat {
	f, err := parseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return f
}

func writeRawResponse(raw []byte, outputFormat string) {
	var response models.GeonamesResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	writeResponse(&response, outputFormat)
}

func writeResponse(response *models.GeonamesResponse, outputFormat string) {
	f := mustFormat(outputFormat)
	if err := cli.WriteResponse(os.Stdout, response, f); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Manager    *storage.Manager
	Engine     *search.Engine
	Dispatcher *tools.Dispatcher
}

func (c *Components) Close() {
	if c.Engine != nil {
		c.Engine.Reset()
	}
	if c.Manager != nil {
		_ = c.Manager.Close()
	}
}

// initializeComponents resolves the dataset and builds the query stack on
// top of it. With strict unset a missing dataset is tolerated: the server
// starts anyway and queries degrade until the file shows up, at which point
// the watcher picks it up without a restart.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, strict bool) (*Components, error) {
	path, err := storage.EnsureDataset(ctx, cfg, logger)
	if err != nil {
		if strict {
			return nil, err
		}
		logger.Warn("starting without a dataset", zap.Error(err))
		path = cfg.Dataset.Path
		if path == "" {
			path = filepath.Join(cfg.Dataset.Dir, cfg.Dataset.Filename)
		}
	}

	manager := storage.NewManager(path, cfg.Database.MmapSize, logger)
	engine := search.NewEngine(manager, cfg, logger)
	dispatcher := tools.NewDispatcher(engine, logger)

	return &Components{
		Manager:    manager,
		Engine:     engine,
		Dispatcher: dispatcher,
	}, nil
}

func printUsage() {
	fmt.Println(`yubin - US postal code geocoding and spatial queries

Usage:
  yubin serve [flags]                Start the HTTP server
  yubin mcp [flags]                  Serve tools over stdio (JSON-RPC)
  yubin search [flags]               Search by postal code or prefix
  yubin geocode [flags] <code>       Postal code to coordinates
  yubin reverse [flags] <lat> <lng>  Postal codes near coordinates
  yubin validate [flags] <code>      Check whether a postal code exists
  yubin stats [flags]                Dataset statistics and health
  yubin suggest [flags] <place...>   Fuzzy place name suggestions
  yubin nearest [flags] <lat> <lng>  K nearest postal codes
  yubin fetch [flags]                Download the dataset if missing
  yubin import [flags]               Build a dataset from a GeoNames export
  yubin export [flags]               Dump records to CSV or XLSX
  yubin version                      Show version
  yubin help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/yubin/config.yaml,
                     falling back to ./config.yaml, then built-in defaults)
  --server string    Server URL for query commands (empty = direct dataset access)
  --output string    Output format: text or json (default: text)

Examples:
  yubin serve
  yubin geocode 90210
  yubin search --prefix 902 --max-rows 25
  yubin reverse --radius 10 47.6062 -122.3321
  yubin validate 10001
  yubin suggest seatle
  yubin nearest --k 3 40.7506 -73.9972
  yubin stats --output json
  yubin import --zip US.zip
  yubin export --state CA --out california.xlsx
  yubin geocode --server http://localhost:8080 90210`)
}
