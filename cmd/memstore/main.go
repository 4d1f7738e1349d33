package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/internal/repository"
	"github.com/ajitpratap0/memstore/pkg/config"
	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/ajitpratap0/memstore/pkg/logger"
	"github.com/ajitpratap0/memstore/pkg/observability"
)

var version = "0.1.0"

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	configFile string
	logLevel   string

	cfg      *config.StoreConfig
	log      *zap.Logger
	shutdown func(context.Context) error
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:   "memstore",
		Short: "memstore - in-memory record store with soft delete and tombstone purging",
		Long: `memstore runs the in-memory record store behind the shop demo.
It can populate a demo database, sweep expired tombstones, export collections
as compressed snapshots and report store and process statistics.

Configuration is read from --config (YAML) and MEMSTORE_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memstore v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(
		newDemoCmd(a),
		newMaintenanceCmd(a),
		newExportCmd(a),
		newStatsCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging and tracing.
func (a *app) setup() error {
	cfg, err := config.LoadStoreConfig(a.configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if a.logLevel != "" {
		cfg.Observability.LogLevel = a.logLevel
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = logger.With(zap.String("component", "memstore-cli"))

	if cfg.Observability.EnableTracing {
		tc := observability.DefaultTracingConfig()
		tc.ServiceName = cfg.Name
		tc.ServiceVersion = version
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

func (a *app) teardown() error {
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil {
			a.log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = logger.Sync()
	return nil
}

func (a *app) openDatabase() (*repository.Database, error) {
	db, err := repository.New(a.cfg, repository.WithLogger(a.log))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
