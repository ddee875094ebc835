package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/s4rv4d/kobe-dashboard/internal/api"
	"github.com/s4rv4d/kobe-dashboard/internal/cache"
	"github.com/s4rv4d/kobe-dashboard/internal/coingecko"
	"github.com/s4rv4d/kobe-dashboard/internal/config"
	"github.com/s4rv4d/kobe-dashboard/internal/database"
	"github.com/s4rv4d/kobe-dashboard/internal/donations"
	"github.com/s4rv4d/kobe-dashboard/internal/export"
	"github.com/s4rv4d/kobe-dashboard/internal/ledger"
	"github.com/s4rv4d/kobe-dashboard/internal/portfolio"
	"github.com/s4rv4d/kobe-dashboard/internal/safe"
	"github.com/s4rv4d/kobe-dashboard/internal/snapshot"
	"github.com/s4rv4d/kobe-dashboard/internal/vault"
	"github.com/s4rv4d/kobe-dashboard/internal/worker"
	"github.com/s4rv4d/kobe-dashboard/migrations"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "kobe",
		Usage: "treasury dashboard backend for a Safe-held vault",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API with background workers",
				Action: runServe,
			},
			{
				Name:  "report",
				Usage: "write a one-off vault report workbook and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "path of the .xlsx file to write",
					},
				},
				Action: runReport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services is the wired object graph shared by both commands.
type services struct {
	pool       *pgxpool.Pool
	portfolios *portfolio.Service
	vaults     *vault.Service
	donors     *donations.Service
	snapshots  *snapshot.Service
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.VaultAddress == "" {
		return nil, errors.New("VAULT_ADDRESS is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	safeClient := safe.NewClient(cfg.SafeAPIURL, cfg.SafeRetryMax, cfg.SafeRetryBaseDelay)
	geckoClient := coingecko.NewClient(cfg.CoinGeckoURL, cfg.CoinGeckoAPIKey, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax, cfg.CoinGeckoRetryDelay)

	sharedCache := cache.New()
	ledgerRepo := ledger.NewPgRepository(pool)

	portfolioSvc := portfolio.NewService(safeClient, geckoClient, sharedCache)
	vaultSvc := vault.NewService(cfg.VaultAddress, portfolioSvc, ledgerRepo, sharedCache)
	donationSvc := donations.NewService(ledgerRepo, sharedCache)
	snapshotSvc := snapshot.NewService(vaultSvc, snapshot.NewPgRepository(pool))

	return &services{
		pool:       pool,
		portfolios: portfolioSvc,
		vaults:     vaultSvc,
		donors:     donationSvc,
		snapshots:  snapshotSvc,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	snapshotWorker := worker.NewSnapshotWorker(svcs.snapshots, cfg.SnapshotWorkerInterval)
	go snapshotWorker.Run(ctx)

	if cfg.SheetsSpreadsheetID != "" && cfg.GoogleCredentialsJSON != "" {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		exportSvc := export.NewService(cfg.VaultAddress, svcs.vaults, svcs.portfolios, writer)
		reportWorker := worker.NewReportWorker(exportSvc, cfg.ReportWorkerInterval)
		go reportWorker.Run(ctx)
	} else {
		slog.Info("sheets export disabled, SHEETS_SPREADSHEET_ID or GOOGLE_CREDENTIALS_JSON not set")
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, generate endpoint is unprotected")
	}

	handler := api.NewHandler(svcs.portfolios, svcs.vaults, svcs.donors, svcs.snapshots)
	srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func runReport(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	path := c.String("output")
	if path == "" {
		path = cfg.ReportXLSXPath
	}

	exportSvc := export.NewService(cfg.VaultAddress, svcs.vaults, svcs.portfolios, export.NewXLSXWriter(path))
	if err := exportSvc.Export(ctx); err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}

	slog.Info("report written", "path", path)
	return nil
}
