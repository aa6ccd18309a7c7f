package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"bike-rental/config"
	"bike-rental/logger"
	"bike-rental/metrics"
	"bike-rental/rental"
	"bike-rental/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	root := newRootCmd(os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	dbPath     string
	backend    string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:           "bike-rental",
		Short:         "Track bike rental loans from an interactive shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), opts, in, cmd.OutOrStdout())
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "bike-rental.yaml", "Path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Database file (overrides config)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Storage backend: sqlite or bolt (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bike-rental %s (built %s)\n", version, buildDate)
		},
	})
	return root
}

func loadConfig(opts rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	return cfg, cfg.Validate()
}

func runShell(ctx context.Context, opts rootOptions, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logOut, closeLog, err := logger.OpenFile(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	log := logger.SetupDefault(logOut, cfg.Level()).With("session", uuid.NewString())

	backend, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer backend.Close()

	mgr, err := storage.LoadManager(ctx, backend, rental.WithLogger(log))
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	log.Info("store loaded", "backend", cfg.Backend, "path", cfg.DatabasePath(),
		"bikes", len(mgr.Snapshot().Bikes), "loans", len(mgr.Snapshot().Loans))

	// Persist right away so a freshly generated salt survives the session.
	if err := backend.Save(ctx, mgr.Snapshot(), mgr.Prefs()); err != nil {
		return fmt.Errorf("initial save: %w", err)
	}
	unsubscribe := storage.Autosave(backend, mgr, log)
	defer unsubscribe()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.ObserveSnapshot(mgr.Snapshot())
	defer mgr.Subscribe(collector.ObserveSnapshot)()

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	sh := newShell(in, out, mgr)
	sh.metrics = collector
	sh.logger = log
	sh.readPassword = terminalPasswordReader(in, out, sh.readLine)
	return sh.run()
}
