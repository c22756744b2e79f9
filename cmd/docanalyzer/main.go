// Package main is the docanalyzer CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/docanalyzer/internal/cli"
	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/pipeline"
	"github.com/hyperjump/docanalyzer/internal/server"
	"github.com/hyperjump/docanalyzer/internal/watcher"
	"github.com/hyperjump/docanalyzer/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docanalyzer/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if neither exists the built-in
// defaults are used. Returns the config and the path that was actually loaded ("" for
// defaults).
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if debug {
		return utils.NewLogger(true)
	}
	return utils.NewLoggerWithLevel(cfg.LogLevel, false)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "health":
		runHealth()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("docanalyzer version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-page decisions, stage timings)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := newLogger(cfg, debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch := pipeline.New(ctx, cfg, pipeline.WithLogger(logger))
	defer orch.Close()

	// The inbox always runs so directories can be added over the API.
	inbox := watcher.NewInbox(orch, cfg.Watch, logger)
	if err := inbox.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer inbox.Stop()

	srvOpts := []server.Option{server.WithWatcher(inbox.Watcher())}
	if resolvedConfigPath != "" {
		srvOpts = append(srvOpts, server.WithConfigPersistence(resolvedConfigPath, cfg))
	}
	srv := server.NewServer(orch, &cfg.Server, cfg.Limits, logger, srvOpts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse sees them. Go's flag package stops at the
// first non-flag argument, so "docanalyzer analyze report.pdf -output json" would
// otherwise leave -output unparsed.
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

// parseStageList reads a comma separated stage list; "" selects every stage and "none"
// extracts text only.
func parseStageList(raw string) ([]models.Stage, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return nil, nil
	case "none":
		return []models.Stage{}, nil
	}
	out := []models.Stage{}
	for _, name := range strings.Split(raw, ",") {
		st, ok := models.ParseStage(name)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q (want entities, math or summary)", strings.TrimSpace(name))
		}
		out = append(out, st)
	}
	return out, nil
}

func printAnalyzeUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: docanalyzer analyze [flags] <file>\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  docanalyzer analyze invoice.pdf
  docanalyzer analyze --stages entities,summary report.docx
  docanalyzer analyze --output json scan.pdf > scan.json
  docanalyzer analyze --server http://localhost:8080 invoice.pdf
`)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", "", "server URL (empty = analyse locally)")
	stagesFlag := fs.String("stages", "", "comma separated stages: entities, math, summary, or none (default: all)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printAnalyzeUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		printAnalyzeUsage(fs)
		os.Exit(1)
	}
	path := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	stages, err := parseStageList(*stagesFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var view *models.ReportView
	if *serverURL != "" {
		view, err = analyzeViaHTTP(*serverURL, path, stages)
	} else {
		view, err = analyzeLocal(*configPath, *debug, path, stages)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteReport(os.Stdout, view, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if view.Outcome == models.OutcomeFailed {
		os.Exit(2)
	}
}

func analyzeLocal(configPath string, debug bool, path string, stages []models.Stage) (*models.ReportView, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg, cfg.Debug || debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	orch := pipeline.New(ctx, cfg, pipeline.WithLogger(logger))
	defer orch.Close()

	report, err := orch.Analyze(ctx, pipeline.Request{Filename: filepath.Base(path), Data: data, Stages: stages})
	if err != nil {
		return nil, err
	}
	return report.View(), nil
}

func analyzeViaHTTP(serverURL, path string, stages []models.Stage) (*models.ReportView, error) {
	body, contentType, err := multipartBody(path)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/analyze"
	if stages != nil {
		names := make([]string, len(stages))
		for i, s := range stages {
			names[i] = string(s)
		}
		endpoint += "?stages=" + url.QueryEscape(strings.Join(names, ","))
	}
	resp, err := http.Post(endpoint, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeReport(resp)
}

// decodeReport reads an analysis response. A 502 still carries a report.
func decodeReport(resp *http.Response) (*models.ReportView, error) {
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadGateway {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var view models.ReportView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &view, nil
}

func multipartBody(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", "", "server URL (empty = check local capabilities)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var h models.Health
	if *serverURL != "" {
		h, err = healthViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		ctx := context.Background()
		orch := pipeline.New(ctx, cfg)
		h = orch.Health(ctx)
		_ = orch.Close()
	}
	if err := cli.WriteHealth(os.Stdout, h, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func healthViaHTTP(serverURL string) (models.Health, error) {
	var h models.Health
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/health")
	if err != nil {
		return h, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return h, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return h, fmt.Errorf("decode response: %w", err)
	}
	return h, nil
}

func runWatch() {
	if len(os.Args) > 2 {
		switch os.Args[2] {
		case "add", "remove", "list":
			runWatchRemote(os.Args[2], os.Args[3:])
			return
		}
	}
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", false, "also watch subdirectories")
	debug := fs.Bool("debug", false, "enable debug logging (file events, debounce)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Watch = watchConfigFromArgs(cfg.Watch, fs.Args(), *recursive)
	if len(cfg.Watch.Directories) == 0 {
		fmt.Println("Usage: docanalyzer watch [flags] <dir>...  (or set watch.directories in config)")
		os.Exit(1)
	}

	logger, err := newLogger(cfg, cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch := pipeline.New(ctx, cfg, pipeline.WithLogger(logger))
	defer orch.Close()

	inbox := watcher.NewInbox(orch, cfg.Watch, logger)
	if err := inbox.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	waitForSignal()
	logger.Info("Shutting down...")
	inbox.Stop()
}

// runWatchRemote manages the inbox directories of a running server.
func runWatchRemote(sub string, args []string) {
	fs := flag.NewFlagSet("watch "+sub, flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	noSync := fs.Bool("no-sync", false, "do not analyse files already in the directory (add only)")
	_ = fs.Parse(argsReorder(args))

	var (
		status map[string]string
		err    error
	)
	switch sub {
	case "add", "remove":
		if fs.NArg() < 1 {
			fmt.Printf("Usage: docanalyzer watch %s <path>\n", sub)
			os.Exit(1)
		}
		path := fs.Arg(0)
		if abs, absErr := filepath.Abs(path); absErr == nil {
			path = abs
		}
		if sub == "add" {
			status, err = watchAddViaHTTP(*serverURL, path, !*noSync)
		} else {
			status, err = watchRemoveViaHTTP(*serverURL, path)
		}
	default:
		var dirs []string
		dirs, err = watchListViaHTTP(*serverURL)
		if err == nil {
			for _, d := range dirs {
				fmt.Println(d)
			}
			return
		}
	}
	if err != nil {
		fmt.Printf("Watch %s failed: %v\n", sub, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", status["status"], status["path"])
}

func watchAddViaHTTP(serverURL, path string, syncExisting bool) (map[string]string, error) {
	body, err := json.Marshal(map[string]interface{}{"path": path, "sync": syncExisting})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeWatchStatus(resp, http.StatusCreated)
}

func watchRemoveViaHTTP(serverURL, path string) (map[string]string, error) {
	req, err := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeWatchStatus(resp, http.StatusOK)
}

func decodeWatchStatus(resp *http.Response, want int) (map[string]string, error) {
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func watchListViaHTTP(serverURL string) ([]string, error) {
	resp, err := http.Get(serverURL + "/api/v1/watch/directories")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Directories, nil
}

// watchConfigFromArgs replaces the configured directories when any are given on the
// command line.
func watchConfigFromArgs(wc config.WatchConfig, dirs []string, recursive bool) config.WatchConfig {
	if len(dirs) > 0 {
		wc.Directories = nil
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				d = abs
			}
			wc.Directories = append(wc.Directories, d)
		}
	}
	if recursive {
		on := true
		wc.Recursive = &on
	}
	return wc
}

func printUsage() {
	fmt.Println(`docanalyzer - Document text, entity, math and summary extraction

Usage:
  docanalyzer server [flags]            Start the HTTP server
  docanalyzer analyze [flags] <file>    Analyse a document
  docanalyzer health [flags]            Show which capabilities are loaded
  docanalyzer watch [flags] <dir>...    Analyse files dropped into inbox directories
  docanalyzer watch <add|remove|list>   Manage the inbox directories of a running server
  docanalyzer version                   Show version
  docanalyzer help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/docanalyzer/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path (local mode)
  --server string    Server URL. Empty (default) analyses locally.
  --stages string    Comma separated: entities, math, summary, or none (default: all)
  --output string    Output format: text or json (default: text)

Health Flags:
  --server string    Server URL. Empty (default) checks local capabilities.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --config string    Config file path
  --recursive        Also watch subdirectories
  --debug            Enable debug logging
  --server string    Server URL for add, remove and list (default: http://localhost:8080)
  --no-sync          Do not analyse files already in an added directory

Examples:
  docanalyzer server
  docanalyzer analyze invoice.pdf
  docanalyzer analyze --output json --stages entities scan.pdf
  docanalyzer analyze --server http://localhost:8080 report.docx
  docanalyzer health --server http://localhost:8080
  docanalyzer watch ~/inbox
  docanalyzer watch add ~/scans`)
}
