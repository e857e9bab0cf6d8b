package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inkwell/internal/analysis"
	"inkwell/internal/config"
	"inkwell/internal/journal"
	"inkwell/internal/llm"
	"inkwell/internal/notify"
	"inkwell/internal/server"
	"inkwell/internal/store"
	"inkwell/internal/themes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the background analysis scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := llm.ValidateBaseURL(cfg.Model.BaseURL); err != nil {
		return fmt.Errorf("model endpoint rejected: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	journalStore, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	transport := llm.NewOllama(cfg.Model.BaseURL, cfg.Model.Model, cfg.Model.Temperature, cfg.Model.TopP)
	gateway := llm.NewGateway(transport, cfg.Model.MaxRetries)

	prober := llm.NewProber(cfg.Model.BaseURL, gateway)
	prober.Start()
	defer prober.Stop()

	index := themes.NewIndex(db)
	orch := analysis.New(journalStore, gateway, index, db, notify.LogReporter{}, cfg.Analysis)

	scheduler, err := analysis.NewScheduler(orch, cfg.Analysis.DailyAt, cfg.Analysis.WeeklyAt)
	if err != nil {
		return fmt.Errorf("configure scheduler: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(db, journalStore, gateway, index, orch, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "inkwell serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		fmt.Fprintf(os.Stderr, "  journal: %s\n", journalStore.Dir())
		fmt.Fprintf(os.Stderr, "  model: %s (%s)\n", cfg.Model.Model, cfg.Model.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// loadConfig resolves the config path (INKWELL_CONFIG overrides the default)
// and loads it.
func loadConfig() (config.Config, error) {
	path := os.Getenv("INKWELL_CONFIG")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}

// openDB opens the configured database, falling back to the default path.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if env := os.Getenv("INKWELL_DB"); env != "" {
		dbPath = env
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}

// openJournal opens the configured journal directory, falling back to the
// default.
func openJournal(cfg config.Config) (*journal.Store, error) {
	dir := cfg.Journal.Dir
	if env := os.Getenv("INKWELL_JOURNAL"); env != "" {
		dir = env
	}
	if dir == "" {
		var err error
		dir, err = journal.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return journal.Open(dir)
}
