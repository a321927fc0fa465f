package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/app"
	"github.com/pyhub-apps/nh3ingest/pkg/batch"
	"github.com/pyhub-apps/nh3ingest/pkg/config"
	"github.com/pyhub-apps/nh3ingest/pkg/logging"
	"github.com/pyhub-apps/nh3ingest/pkg/schedule"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitNoData = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		envPath     string
		inputDir    string
		startPage   int
		strategies  string
		workers     int
		snapshotDir string
		xlsx        bool
		driver      string
		sqlitePath  string
		postgresDSN string
		logFile     string
		textfile    string
		spec        string
		reprocess   string
		strict      bool
		verbose     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&envPath, "env", ".env", "Path to .env file (ignored when missing)")
	flag.StringVar(&inputDir, "input", "", "Directory holding the report PDFs")
	flag.IntVar(&startPage, "start", 0, "First page carrying measurement tables (1-based)")
	flag.StringVar(&strategies, "strategies", "", "Comma-separated extraction strategies in trial order (stream, lattice)")
	flag.IntVar(&workers, "workers", 0, "Files processed concurrently")
	flag.StringVar(&snapshotDir, "snapshot.dir", "", "Directory for the timestamped CSV snapshot")
	flag.BoolVar(&xlsx, "xlsx", false, "Also write an XLSX copy of the snapshot")
	flag.StringVar(&driver, "store.driver", "", "Store driver: sqlite or postgres")
	flag.StringVar(&sqlitePath, "sqlite", "", "SQLite database file")
	flag.StringVar(&postgresDSN, "postgres.dsn", "", "Postgres connection string")
	flag.StringVar(&logFile, "log.file", "", "Persistent JSON log file")
	flag.StringVar(&textfile, "metrics.textfile", "", "Write Prometheus metrics to this file after each run")
	flag.StringVar(&spec, "schedule", "", "Cron schedule; keeps running and ingests on every tick")
	flag.StringVar(&reprocess, "reprocess", "", "Load this CSV snapshot into the store instead of reading PDFs")
	flag.BoolVar(&strict, "strict", false, "Exit with status 2 when no data is extracted")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if err := config.LoadDotEnv(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", envPath, err)
		return exitFailed
	}
	cfg := config.Default()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			return exitFailed
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "environment: %v\n", err)
		return exitFailed
	}

	// explicitly set flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Dir = inputDir
		case "start":
			cfg.Input.StartPage = startPage
		case "strategies":
			cfg.Extract.Strategies = nil
			for _, s := range strings.Split(strategies, ",") {
				if s = strings.TrimSpace(s); s != "" {
					cfg.Extract.Strategies = append(cfg.Extract.Strategies, s)
				}
			}
		case "workers":
			cfg.Extract.Workers = workers
		case "snapshot.dir":
			cfg.Snapshot.Dir = snapshotDir
		case "xlsx":
			cfg.Snapshot.XLSX = xlsx
		case "store.driver":
			cfg.Store.Driver = driver
		case "sqlite":
			cfg.Store.SQLite.Path = sqlitePath
		case "postgres.dsn":
			cfg.Store.Postgres.DSN = postgresDSN
		case "log.file":
			cfg.Log.File = logFile
		case "metrics.textfile":
			cfg.Metrics.Textfile = textfile
		case "schedule":
			cfg.Schedule = spec
		}
	})
	if verbose {
		cfg.Log.Level = zerolog.DebugLevel.String()
	}

	log, err := logging.New(os.Stderr, cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return exitFailed
	}
	defer log.Close()

	if cfg.Schedule != "" {
		if err := schedule.Validate(cfg.Schedule); err != nil {
			log.Error().Err(err).Msg("invalid configuration")
			return exitFailed
		}
	}
	a, err := app.New(cfg, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return exitFailed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	switch {
	case reprocess != "":
		_, err = a.Reprocess(ctx, reprocess)
	case cfg.Schedule != "":
		err = schedule.Run(ctx, cfg.Schedule, func(ctx context.Context) {
			_, _ = a.Run(ctx)
		}, log.Logger)
	default:
		log.Info().Str("input", cfg.Input.Dir).Strs("strategies", cfg.Extract.Strategies).
			Msg("starting batch extraction")
		_, err = a.Run(ctx)
	}

	switch {
	case err == nil:
		log.Info().Dur("elapsed", time.Since(start)).Msg("processing finished")
		return exitOK
	case errors.Is(err, batch.ErrNoData):
		if strict {
			return exitNoData
		}
		return exitOK
	case errors.Is(err, context.Canceled):
		log.Warn().Msg("interrupted")
		return exitFailed
	default:
		return exitFailed
	}
}
