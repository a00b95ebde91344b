// Package main is the Sakuin CLI entry point.
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
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/cli"
	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/poller"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/server"
	"github.com/hyperjump/sakuin/internal/storage"
	"github.com/hyperjump/sakuin/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sakuin/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "sakuin server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
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
	case "server":
		runServer()
	case "search":
		runSearch()
	case "related":
		runRelated()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "clear":
		runClear()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("sakuin version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging (change log drains, per-record indexing, etc.)")
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

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	pollSvc := poller.New(components.Store, components.IndexerList(),
		poller.WithLogger(logger),
		poller.WithInterval(time.Duration(cfg.Poll.Interval)),
		poller.WithBatchSize(cfg.Poll.BatchSize),
		poller.WithWatchPath(components.Store.Path()),
	)
	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	go func() {
		if err := pollSvc.Run(pollCtx); err != nil {
			logger.Error("poller stopped", zap.Error(err))
		}
	}()

	srv := server.NewServer(components.Services(), components.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	pollCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// kvFlag collects repeatable key=value flags into a map.
type kvFlag map[string]string

func (f kvFlag) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (f kvFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[k] = v
	return nil
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves flags (and their values) that appear after the query to
// the front so flag.Parse() sees them. Go's flag package stops at the first
// non-flag argument.
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

func outputFormat(name string) cli.SearchOutputFormat {
	switch name {
	case "json":
		return cli.OutputJSON
	case "text", "":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", name)
		os.Exit(1)
		return cli.OutputText
	}
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	recordType := fs.String("type", "", "record type to search (required)")
	limit := fs.Int("limit", 10, "number of results")
	offset := fs.Int("offset", 0, "pagination offset over accepted matches")
	orderBy := fs.String("order", "", "sort: relevance (default) or [+|-]tagname")
	lang := fs.String("lang", "", "stemming language override (none disables)")
	output := fs.String("output", "text", "output format: text or json")
	filter := kvFlag{}
	exclude := kvFlag{}
	fs.Var(filter, "filter", "require tag=value (repeatable)")
	fs.Var(exclude, "exclude", "reject tag=value (repeatable)")
	_ = fs.Parse(args)

	queryStr := buildQuery(fs.Args())
	if queryStr == "" || *recordType == "" {
		fmt.Println("Usage: sakuin search --type <record-type> [flags] <query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	format := outputFormat(*output)

	req := &models.SearchRequest{
		Type:    *recordType,
		Query:   queryStr,
		Offset:  *offset,
		Limit:   *limit,
		OrderBy: *orderBy,
		Lang:    *lang,
		Filter:  filter,
		Exclude: exclude,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids the index
		// writer lock).
		var err error
		response, err = postJSON[models.SearchResponse](*serverURL+"/api/v1/search", req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()
		response = directSearch(components, req)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRelated() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("related", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	recordType := fs.String("type", "", "record type to search (required)")
	limit := fs.Int("limit", 10, "number of results")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	queryStr := buildQuery(fs.Args())
	if queryStr == "" || *recordType == "" {
		fmt.Println("Usage: sakuin related --type <record-type> [flags] <seed-query>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	format := outputFormat(*output)

	req := &models.RelatedRequest{Type: *recordType, Query: queryStr, Limit: *limit}
	var response *models.RelatedResponse
	if *serverURL != "" {
		var err error
		response, err = postJSON[models.RelatedResponse](*serverURL+"/api/v1/related", req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Related search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()
		response = directRelated(components, req)
	}
	if err := cli.WriteRelatedResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recordType := fs.String("type", "", "record type to reindex (empty = all)")
	transaction := fs.Bool("transaction", false, "stage each record's mutations transactionally")
	flushEach := fs.Bool("flush", false, "flush after every document instead of periodically")
	daemon := fs.Bool("daemon", false, "keep draining the change log until interrupted")
	once := fs.Bool("once", false, "drain pending change log entries and exit")
	verbose := fs.Bool("verbose", false, "print a dot per indexed record")
	timeout := fs.Duration("timeout", 0, "abort after this duration (0 = no limit)")
	_ = fs.Parse(os.Args[2:])

	components := mustInitialize(*configPath)
	defer components.Close()
	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if *once || *daemon {
		cfg := components.Config
		pollSvc := poller.New(components.Store, components.IndexerList(),
			poller.WithLogger(components.Logger),
			poller.WithInterval(time.Duration(cfg.Poll.Interval)),
			poller.WithBatchSize(cfg.Poll.BatchSize),
			poller.WithWatchPath(components.Store.Path()),
		)
		if *once {
			n, err := pollSvc.RunOnce(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Drain failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Processed %d change(s)\n", n)
			return
		}
		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := pollSvc.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Poller failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	targets := components.Indexers
	if *recordType != "" {
		ix, ok := targets[*recordType]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown record type: %s\n", *recordType)
			os.Exit(1)
		}
		targets = map[string]*indexer.Indexer{*recordType: ix}
	}
	opts := indexer.UpdateOptions{Transaction: *transaction, FlushEach: *flushEach}
	if *verbose {
		opts.OnEach = func(schema.Record) { fmt.Print(".") }
	}
	for name, ix := range targets {
		stats, err := ix.Update(ctx, nil, opts)
		if *verbose {
			fmt.Println()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reindex %s failed: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d indexed, %d removed, %d failed\n", name, stats.Indexed, stats.Removed, stats.Failed)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recordType := fs.String("type", "", "record type (required)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 || *recordType == "" {
		fmt.Println("Usage: sakuin delete --type <record-type> <primary-key>")
		os.Exit(1)
	}
	pk := fs.Arg(0)

	components := mustInitialize(*configPath)
	defer components.Close()

	ix, ok := components.Indexers[*recordType]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown record type: %s\n", *recordType)
		os.Exit(1)
	}
	ctx := context.Background()
	if err := components.Store.DeleteRecord(ctx, *recordType, pk); err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	if err := ix.Delete(ctx, pk); err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted: %s\n", ix.UID(pk))
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recordType := fs.String("type", "", "record type whose index to clear (required)")
	_ = fs.Parse(os.Args[2:])

	if *recordType == "" {
		fmt.Println("Usage: sakuin clear --type <record-type>")
		os.Exit(1)
	}
	components := mustInitialize(*configPath)
	defer components.Close()

	ix, ok := components.Indexers[*recordType]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown record type: %s\n", *recordType)
		os.Exit(1)
	}
	if err := ix.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cleared index for %s\n", *recordType)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Indices        []*models.IndexStatus `json:"indices"`
	PendingChanges int64                 `json:"pending_changes"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := getJSON[statusResponse](*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components := mustInitialize(*configPath)
		defer components.Close()
		ctx := context.Background()
		for name, ix := range components.Indexers {
			docs, err := ix.DocumentCount()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Document count failed: %v\n", err)
				os.Exit(1)
			}
			records, err := components.Store.CountRecords(ctx, name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Record count failed: %v\n", err)
				os.Exit(1)
			}
			status.Indices = append(status.Indices, &models.IndexStatus{Type: name, Documents: docs, Records: records})
		}
		pending, err := components.Store.CountChanges(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Change count failed: %v\n", err)
			os.Exit(1)
		}
		status.PendingChanges = pending
	}

	switch *output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		for _, ix := range status.Indices {
			fmt.Printf("%-16s documents: %-8d records: %d\n", ix.Type, ix.Documents, ix.Records)
		}
		fmt.Printf("pending_changes: %d\n", status.PendingChanges)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *output)
		os.Exit(1)
	}
}

// postJSON posts req and decodes the JSON response body.
func postJSON[T any](url string, req interface{}) (*T, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func getJSON[T any](url string) (*T, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Components holds initialized services.
type Components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *storage.SQLiteStore
	Indexers  map[string]*indexer.Indexer
	Searchers map[string]*search.Searcher
	indexes   []*engine.Index
}

func (c *Components) Close() {
	for _, idx := range c.indexes {
		_ = idx.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// IndexerList returns the indexers in no particular order.
func (c *Components) IndexerList() []*indexer.Indexer {
	out := make([]*indexer.Indexer, 0, len(c.Indexers))
	for _, ix := range c.Indexers {
		out = append(out, ix)
	}
	return out
}

// Services pairs each record type's indexer with its searcher for the HTTP
// layer.
func (c *Components) Services() map[string]*server.Service {
	out := make(map[string]*server.Service, len(c.Indexers))
	for name, ix := range c.Indexers {
		out[name] = &server.Service{Indexer: ix, Searcher: c.Searchers[name]}
	}
	return out
}

func mustInitialize(configPath string) *Components {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	schemas, err := cfg.BuildSchemas()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build schemas: %w", err)
	}
	if len(schemas) == 0 {
		_ = store.Close()
		return nil, fmt.Errorf("no schemas declared in config")
	}

	c := &Components{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Indexers:  make(map[string]*indexer.Indexer, len(schemas)),
		Searchers: make(map[string]*search.Searcher, len(schemas)),
	}
	for name, s := range schemas {
		idx, err := indexer.OpenIndex(filepath.Join(cfg.Storage.IndexDir, name), s)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open index for %s: %w", name, err)
		}
		c.indexes = append(c.indexes, idx)

		ixOpts := []indexer.Option{
			indexer.WithPageSize(cfg.Index.PageSize),
			indexer.WithFlushEvery(cfg.Index.FlushEvery),
			indexer.WithStemLang(cfg.Index.StemLang),
		}
		if debug {
			ixOpts = append(ixOpts, indexer.WithLogger(logger))
		}
		c.Indexers[name] = indexer.New(s, idx, store, ixOpts...)
		c.Searchers[name] = search.NewSearcher(s, idx,
			search.WithDefaultLang(cfg.Index.StemLang),
			search.WithLogger(logger),
		)
	}
	return c, nil
}

func directSearch(components *Components, req *models.SearchRequest) *models.SearchResponse {
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid search: %v\n", err)
		os.Exit(1)
	}
	sr, ok := components.Searchers[req.Type]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown record type: %s\n", req.Type)
		os.Exit(1)
	}
	start := time.Now()
	res, err := sr.Search(search.Query{
		Text:     req.Query,
		Offset:   req.Offset,
		Limit:    req.Limit,
		OrderBy:  req.OrderBy,
		StemLang: req.Lang,
		Filter:   req.Filter,
		Exclude:  req.Exclude,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	resp := &models.SearchResponse{
		Matches:     toMatches(components.Indexers[req.Type].Schema(), res.Hits),
		Total:       res.Total,
		ParsedQuery: res.ParsedQuery,
		QueryTimeMS: time.Since(start).Milliseconds(),
	}
	if res.Total == 0 {
		if corrected, ok := sr.Suggest(req.Query); ok {
			resp.Suggestion = corrected
		}
	}
	return resp
}

func directRelated(components *Components, req *models.RelatedRequest) *models.RelatedResponse {
	sr, ok := components.Searchers[req.Type]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown record type: %s\n", req.Type)
		os.Exit(1)
	}
	seed, err := sr.Search(search.Query{Text: req.Query, Limit: 40})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed search failed: %v\n", err)
		os.Exit(1)
	}
	expanded, err := sr.Related(seed.Hits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Expansion failed: %v\n", err)
		os.Exit(1)
	}
	resp := &models.RelatedResponse{ExpandedQuery: expanded}
	if expanded == "" {
		return resp
	}
	res, err := sr.Search(search.Query{Text: expanded, Offset: req.Offset, Limit: req.Limit})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Related search failed: %v\n", err)
		os.Exit(1)
	}
	resp.Matches = toMatches(components.Indexers[req.Type].Schema(), res.Hits)
	resp.Total = res.Total
	return resp
}

// toMatches converts engine hits into API results by decoding metadata and
// tag value slots.
func toMatches(s *schema.Schema, hits []*engine.Hit) []*models.MatchResult {
	out := make([]*models.MatchResult, 0, len(hits))
	for _, h := range hits {
		m := &models.MatchResult{
			UID:        h.UID,
			PrimaryKey: h.Value(schema.SlotPrimaryKey),
			Type:       h.Value(schema.SlotTypeName),
			Score:      h.Score,
		}
		for _, tag := range s.Tags() {
			if v := h.Value(tag.Slot); v != "" {
				if m.Values == nil {
					m.Values = make(map[string]string)
				}
				m.Values[tag.Prefix] = v
			}
		}
		out = append(out, m)
	}
	return out
}

func printUsage() {
	fmt.Println(`sakuin - record search indexing engine

Usage:
  sakuin server [flags]                     Start the HTTP server and change-log poller
  sakuin search --type T [flags] <query>    Search indexed records
  sakuin related --type T [flags] <query>   Find records similar to a query's matches
  sakuin index [flags]                      Rebuild indices, or drain the change log
  sakuin delete --type T <pk>               Delete a record and its document
  sakuin clear --type T                     Remove every document from a type's index
  sakuin status [flags]                     Show index/record/change-log counts
  sakuin version                            Show version
  sakuin help                               Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sakuin/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --type string      Record type to search (required)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open the index directly.
  --limit int        Number of results (default: 10)
  --offset int       Pagination offset
  --order string     Sort: relevance (default) or [+|-]tagname
  --lang string      Stemming language override ("none" disables)
  --filter tag=v     Require an exact tag value (repeatable)
  --exclude tag=v    Reject an exact tag value (repeatable)
  --output string    Output format: text or json (default: text)

Index Flags:
  --type string      Record type to reindex (empty = all)
  --transaction      Stage each record's mutations transactionally
  --flush            Flush after every document
  --once             Drain pending change log entries and exit
  --daemon           Keep draining the change log until interrupted
  --verbose          Print a dot per indexed record
  --timeout duration Abort after this duration (0 = no limit)

Examples:
  sakuin server
  sakuin search --type entry solar power
  sakuin search --type entry --order -count --filter author=alice solar
  sakuin related --type entry solar
  sakuin index --type entry --verbose
  sakuin index --once
  sakuin delete --type entry 42
  sakuin status --output json`)
}
