// Command seed writes a synthetic customer dataset for one tenant into the configured
// database, or into a directory of CSV files with -csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/config"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/services"
	"github.com/schollz/progressbar/v3"
)

type options struct {
	tenantID uint
	clients  int
	orders   int
	messages int
	csvDir   string
	seed     uint64
	quiet    bool
}

func parseFlags(args []string) (options, error) {
	defaults := services.DefaultGeneratorConfig(1)
	var opts options
	var tenant uint64

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.Uint64Var(&tenant, "tenant", 1, "tenant to replace")
	fs.IntVar(&opts.clients, "clients", defaults.Clients, "number of clients")
	fs.IntVar(&opts.orders, "orders", defaults.Orders, "number of orders")
	fs.IntVar(&opts.messages, "messages", defaults.Messages, "number of messages")
	fs.StringVar(&opts.csvDir, "csv", "", "write CSV files to this directory instead of the database")
	fs.Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one from the clock)")
	fs.BoolVar(&opts.quiet, "quiet", false, "hide the progress bar")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if tenant == 0 {
		return options{}, fmt.Errorf("-tenant must be positive")
	}
	if opts.clients < 1 || opts.orders < 0 || opts.messages < 0 {
		return options{}, fmt.Errorf("-clients must be positive and -orders/-messages non-negative")
	}
	opts.tenantID = uint(tenant)
	return opts, nil
}

func main() {
	log, err := logger.New(os.Getenv("GO_ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	logger.SetLogger(log)
	defer log.Sync()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("invalid arguments", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink, err := openSink(opts)
	if err != nil {
		log.Fatal("failed to open destination", "error", err)
	}

	data, err := seed(ctx, sink, opts, time.Now())
	if err != nil {
		log.Fatal("seeding failed", "tenant_id", opts.tenantID, "error", err)
	}
	log.Info("seed complete",
		"tenant_id", opts.tenantID,
		"clients", len(data.Clients),
		"orders", len(data.Orders),
		"messages", len(data.Messages),
	)
}

func openSink(opts options) (services.DataSink, error) {
	if opts.csvDir != "" {
		if err := os.MkdirAll(opts.csvDir, 0o755); err != nil {
			return nil, err
		}
		return services.NewCSVRecordSource(opts.csvDir), nil
	}

	if _, err := config.Load(); err != nil {
		return nil, err
	}
	if err := config.ConnectDatabase(); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return services.NewGormRecordSource(db), nil
}

// seed generates the dataset and replaces the tenant's rows in sink
func seed(ctx context.Context, sink services.DataSink, opts options, now time.Time) (*services.Snapshot, error) {
	cfg := services.DefaultGeneratorConfig(opts.tenantID)
	cfg.Clients = opts.clients
	cfg.Orders = opts.orders
	cfg.Messages = opts.messages

	if !opts.quiet {
		bar := progressbar.Default(int64(cfg.Total()), "generating")
		cfg.Progress = func(n int) { _ = bar.Add(n) }
		defer bar.Finish()
	}

	rngSeed := opts.seed
	if rngSeed == 0 {
		rngSeed = uint64(now.UnixNano())
	}
	return services.Regenerate(ctx, sink, nil, cfg, analytics.NewRandom(rngSeed), now)
}
