package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/his/his/internal/config"
	"github.com/his/his/internal/domain/audit"
	"github.com/his/his/internal/domain/billing"
	"github.com/his/his/internal/domain/followup"
	"github.com/his/his/internal/domain/patient"
	"github.com/his/his/internal/domain/sequence"
	"github.com/his/his/internal/domain/visit"
	"github.com/his/his/internal/domain/ward"
	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/db"
	"github.com/his/his/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "his-server",
		Short: "Hospital administration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	txRunner := db.NewRunner(pool)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Actor identity
	if cfg.IsDev() {
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.Middleware([]byte(cfg.AuthSigningKey)))
	}

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// -- Wire domains --

	// Audit trail: every mutating service writes through the recorder.
	auditRepo := audit.NewRepoPG(pool)
	auditRecorder := audit.NewDBRecorder(auditRepo, logger)
	auditSvc := audit.NewService(auditRepo)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Sequence counters behind every business identifier.
	seqRepo := sequence.NewRepoPG(pool)
	seqSvc := sequence.NewService(seqRepo)
	seqSvc.SetMaxRetries(cfg.SequenceMaxRetries)

	// Follow-ups, scheduled on discharge.
	followupRepo := followup.NewRepoPG(pool)
	followupSvc := followup.NewService(followupRepo, auditRecorder)
	followup.NewHandler(followupSvc).RegisterRoutes(apiV1)

	// Wards and beds need visit status; visits release beds on discharge.
	// Both sides depend on narrow interfaces, wired here.
	wardRepo := ward.NewRepoPG(pool)
	visitRepo := visit.NewRepoPG(pool)

	var visitSvc *visit.Service
	wardSvc := ward.NewService(wardRepo, txRunner, visitGate{&visitSvc}, auditRecorder)
	visitSvc = visit.NewService(visitRepo, seqSvc, txRunner, wardSvc, followupSvc, auditRecorder, logger)

	ward.NewHandler(wardSvc).RegisterRoutes(apiV1)
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)

	// Patient registration mints MRNs and can open a visit in the same call.
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, seqSvc, visitSvc, auditRecorder)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Billing ledger.
	billingRepo := billing.NewRepoPG(pool)
	billingSvc := billing.NewService(billingRepo, seqSvc, txRunner, auditRecorder, cfg.TaxRatePercent)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// visitGate defers to the visit service once it exists; ward and visit
// construction reference each other, so the gate holds a pointer that is
// filled right after.
type visitGate struct {
	svc **visit.Service
}

func (g visitGate) VisitStatusForUpdate(ctx context.Context, id uuid.UUID) (string, error) {
	return (*g.svc).VisitStatusForUpdate(ctx, id)
}
