// Copyright 2025 Storyloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/storyloom/distill"
	"github.com/storyloom/distill/ai"
	"github.com/storyloom/distill/ai/openai"
	"github.com/storyloom/distill/config"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/reembed"
	"github.com/storyloom/distill/scheduler"
	"github.com/storyloom/distill/storage/badger"
	"github.com/storyloom/distill/watch"
)

func main() {
	app := &cli.App{
		Name:  "distill",
		Usage: "Turn documents into themes, quotes, insights and keywords",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "Analyze one or more document files",
				ArgsUsage: "<file>...",
				Action:    submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "priority",
						Aliases: []string{"p"},
						Usage:   "Job priority (low, medium, high, critical)",
						Value:   "medium",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Watch directories and analyze files as they appear",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "dir",
						Usage: "Directory to watch (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "sync",
						Usage: "Also submit files already present when watching starts",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the stored document counts and capability settings",
				Action: statusCommand,
			},
			{
				Name:   "list",
				Usage:  "List recent documents",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of documents to show",
						Value:   20,
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Show a document's analysis artifacts",
				ArgsUsage: "<documentId>",
				Action:    showCommand,
			},
			{
				Name:      "search",
				Usage:     "Search stored documents by meaning and keywords",
				ArgsUsage: "<query>...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits to show",
						Value:   5,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate every stored chunk embedding",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openPipeline builds a pipeline from the global config and db flags. The
// returned config carries applied defaults, so callers can read sections the
// pipeline itself does not use.
func openPipeline(c *cli.Context) (*distill.Pipeline, *config.Config, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	p, err := distill.New(c.String("db"), distill.WithConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pipeline: %w", err)
	}
	return p, cfg, nil
}

func submitCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: distill submit <file>...")
	}

	p, _, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := c.Context
	priority := scheduler.ParsePriority(c.String("priority"))

	// Queue everything up front so the scheduler orders the work.
	jobIDs := make([]string, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		jobID, err := p.SubmitFile(ctx, path, distill.WithPriority(priority))
		if err != nil {
			return fmt.Errorf("submit %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "queued %s as job %s\n", path, jobID)
		jobIDs = append(jobIDs, jobID)
	}

	single := len(jobIDs) == 1
	var failed int
	for _, jobID := range jobIDs {
		info, err := waitForJob(ctx, p, jobID)
		if err != nil {
			return err
		}
		if info.Status == scheduler.StatusFailed {
			failed++
			fmt.Fprintf(os.Stderr, "job %s failed: %v\n", info.Id, info.Err)
			continue
		}
		if single {
			if err := printDocument(ctx, p, info.DocumentId, os.Stdout); err != nil {
				return err
			}
		}
	}

	if !single {
		printJobSummary(os.Stdout, p)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobIDs))
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	p, cfg, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	roots := c.StringSlice("dir")
	if len(roots) == 0 {
		roots = cfg.Watch.Directories
	}
	if len(roots) == 0 {
		return fmt.Errorf("nothing to watch: pass --dir or set watch.directories in the config")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	onFile := func(path string) {
		jobID, err := p.SubmitFile(ctx, path)
		if err != nil {
			slog.Warn("failed to submit watched file", "path", path, "error", err)
			return
		}
		slog.Info("watched file queued", "path", path, "job", jobID)
	}

	w := watch.NewWatcher(roots, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), onFile,
		watch.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond))
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	if c.Bool("sync") {
		w.SyncExisting()
	}

	fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", strings.Join(roots, ", "))
	<-ctx.Done()

	printJobSummary(os.Stdout, p)
	return nil
}

// statusScanLimit bounds the overview scan. Counts cover the most recent
// documents up to this many.
const statusScanLimit = 10000

func statusCommand(c *cli.Context) error {
	p, cfg, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	docs, err := p.Documents(c.Context, statusScanLimit)
	if err != nil {
		return err
	}

	counts := make(map[core.DocumentStatus]int)
	var latest time.Time
	for _, doc := range docs {
		counts[doc.Status]++
		if doc.UpdatedAt.After(latest) {
			latest = doc.UpdatedAt
		}
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.Storage.Path
	}
	fmt.Printf("Database: %s\n", dbPath)
	if cfg.AI.EnabledOrDefault() {
		host := cfg.AI.Host
		if host == "" {
			host = "default host"
		}
		fmt.Printf("Capability: enabled (%s)\n", host)
	} else {
		fmt.Println("Capability: disabled, fallback analysis only")
	}
	fmt.Println()

	order := []core.DocumentStatus{
		core.DocumentCompleted,
		core.DocumentProcessing,
		core.DocumentQueued,
		core.DocumentFailed,
	}
	rows := make([][]string, 0, len(order))
	for _, status := range order {
		rows = append(rows, []string{status.String(), strconv.Itoa(counts[status])})
	}
	writeTable(os.Stdout, []string{"Status", "Documents"}, rows, 1)

	if !latest.IsZero() {
		fmt.Printf("Latest update: %s\n", latest.Format(time.DateTime))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	p, _, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	docs, err := p.Documents(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("no documents")
		return nil
	}

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		provenance := ""
		if doc.Status == core.DocumentCompleted {
			provenance = doc.Provenance.String()
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(doc.Id), 10),
			doc.Title,
			doc.Status.String(),
			provenance,
			doc.CreatedAt.Format(time.DateTime),
		})
	}
	writeTable(os.Stdout, []string{"ID", "Title", "Status", "Provenance", "Created"}, rows, 0)
	return nil
}

func showCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: distill show <documentId>")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", c.Args().First())
	}

	p, _, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	return printDocument(c.Context, p, core.ID(id), os.Stdout)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: distill search <query>...")
	}
	query := strings.Join(c.Args().Slice(), " ")

	p, _, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.Search(c.Context, query, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, hit := range results {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(hit.Document.Id), 10),
			hit.Document.Title,
			fmt.Sprintf("%.3f", hit.Score),
		})
	}
	writeTable(os.Stdout, []string{"ID", "Title", "Score"}, rows, 0, 2)
	return nil
}

// reembedCommand regenerates stored vectors without going through the
// pipeline. Run it after switching embedding models so similarity search
// compares vectors from a single model.
func reembedCommand(c *cli.Context) error {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	config.ApplyDefaults(cfg)

	if !cfg.AI.EnabledOrDefault() {
		return fmt.Errorf("reembedding needs the capability layer, but ai.enabled is false in the config")
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.Storage.Path
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create document repository: %w", err)
	}
	defer documents.Close()

	artifacts, err := badger.NewArtifactRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create artifact repository: %w", err)
	}
	defer artifacts.Close()

	var opts []ai.ConfigOption
	if cfg.AI.Host != "" {
		opts = append(opts, ai.WithHost(cfg.AI.Host))
	}
	if cfg.AI.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(cfg.AI.EmbeddingModel))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if cfg.AI.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(cfg.AI.APIKey))
	}
	aiConfig := ai.NewConfig(opts...)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	reembedder := reembed.NewReembedder(documents, artifacts, embedder, reembedConfig, os.Stderr)
	if err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// waitForJob polls until the job and any job chained after it reach a
// terminal state, and returns the final job in the chain.
func waitForJob(ctx context.Context, p *distill.Pipeline, jobID string) (distill.JobInfo, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		info, err := p.Status(jobID)
		if err != nil {
			return distill.JobInfo{}, err
		}
		switch {
		case info.Status == scheduler.StatusCompleted && info.NextJob != "":
			// A file job hands off to analysis; follow it.
			jobID = info.NextJob
			continue
		case info.Status == scheduler.StatusCompleted, info.Status == scheduler.StatusFailed:
			return info, nil
		}

		select {
		case <-ctx.Done():
			return distill.JobInfo{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// printDocument writes a document's metadata and, once analysis has
// completed, its artifacts.
func printDocument(ctx context.Context, p *distill.Pipeline, id core.ID, w io.Writer) error {
	doc, err := p.Document(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Document %d: %s\n", doc.Id, doc.Title)
	if doc.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", doc.Source)
	}
	fmt.Fprintf(w, "Status: %s\n", doc.Status)
	if doc.Status != core.DocumentCompleted {
		return nil
	}

	agg, err := p.Results(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Provenance: %s (%d chunks analyzed, %d failed)\n\n",
		agg.Provenance, agg.ChunksAnalyzed, agg.ChunksFailed)
	fmt.Fprintf(w, "%s\n\n", agg.Summary)

	if len(agg.Themes) > 0 {
		rows := make([][]string, 0, len(agg.Themes))
		for _, theme := range agg.Themes {
			rows = append(rows, []string{
				theme.Name,
				fmt.Sprintf("%.2f", theme.Confidence),
				strconv.Itoa(len(theme.Evidence)),
			})
		}
		fmt.Fprintln(w, "Themes")
		writeTable(w, []string{"Name", "Confidence", "Evidence"}, rows, 1, 2)
	}

	if len(agg.Quotes) > 0 {
		fmt.Fprintln(w, "Quotes")
		for _, quote := range agg.Quotes {
			line := fmt.Sprintf("  %q", quote.Text)
			if quote.Speaker != "" {
				line += fmt.Sprintf(" (%s)", quote.Speaker)
			}
			if quote.Sensitivity != core.SensitivityPublic {
				line += fmt.Sprintf(" [%s]", quote.Sensitivity)
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	if len(agg.Insights) > 0 {
		fmt.Fprintln(w, "Insights")
		for _, insight := range agg.Insights {
			fmt.Fprintf(w, "  [%s] %s\n", insight.Category, insight.Text)
		}
		fmt.Fprintln(w)
	}

	if len(agg.Keywords) > 0 {
		terms := make([]string, 0, len(agg.Keywords))
		for _, keyword := range agg.Keywords {
			terms = append(terms, keyword.Term)
		}
		fmt.Fprintf(w, "Keywords: %s\n", strings.Join(terms, ", "))
	}
	return nil
}

// printJobSummary renders scheduler metrics and the finished-job history.
func printJobSummary(w io.Writer, p *distill.Pipeline) {
	m := p.Metrics()
	fmt.Fprintf(w, "Jobs: %d completed, %d failed, %d active, %d queued (avg %s)\n",
		m.Completed, m.Failed, m.Active, m.Queued, m.AvgProcessingTime.Round(time.Millisecond))

	hist := p.History()
	if len(hist) == 0 {
		return
	}
	rows := make([][]string, 0, len(hist))
	for _, snap := range hist {
		document := ""
		if snap.DocumentId != 0 {
			document = strconv.FormatUint(uint64(snap.DocumentId), 10)
		}
		rows = append(rows, []string{
			snap.Id,
			snap.Type.String(),
			snap.Priority.String(),
			snap.Status.String(),
			snap.FinishedAt.Sub(snap.StartedAt).Round(time.Millisecond).String(),
			document,
		})
	}
	writeTable(w, []string{"Job", "Type", "Priority", "Status", "Duration", "Document"}, rows, 4, 5)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
