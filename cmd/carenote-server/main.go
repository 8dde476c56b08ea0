package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carenote/carenote/internal/config"
	"github.com/carenote/carenote/internal/domain/intake"
	"github.com/carenote/carenote/internal/domain/note"
	"github.com/carenote/carenote/internal/domain/patient"
	"github.com/carenote/carenote/internal/domain/recommendation"
	"github.com/carenote/carenote/internal/domain/synthesis"
	"github.com/carenote/carenote/internal/domain/template"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/cache"
	"github.com/carenote/carenote/internal/platform/db"
	"github.com/carenote/carenote/internal/platform/events"
	"github.com/carenote/carenote/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carenote-server",
		Short: "Clinical note synthesis API server",
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
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis template cache (optional)
	templateCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure redis cache")
	}
	if templateCache != nil {
		if err := templateCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, template caching degraded")
		}
		defer templateCache.Close()
	}

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

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Event log and share publisher
	eventLog := events.NewLogPG(pool)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MessagingWebhookURL != "" {
		publisher = events.NewWebhookPublisher(cfg.MessagingWebhookURL, cfg.MessagingWebhookSecret)
		logger.Info().Str("url", cfg.MessagingWebhookURL).Msg("note_shared webhook publisher configured")
	}

	// Recommendation generator: external service when configured, stub
	// otherwise so the pipeline stays usable in development.
	var generator recommendation.Generator = recommendation.StubGenerator{}
	recommenderTimeout := time.Duration(cfg.RecommenderTimeoutMS) * time.Millisecond
	if cfg.RecommenderURL != "" {
		generator = recommendation.NewHTTPGenerator(cfg.RecommenderURL, cfg.RecommenderAPIKey, recommenderTimeout)
		logger.Info().Str("url", cfg.RecommenderURL).Msg("recommendation service configured")
	} else {
		logger.Warn().Msg("RECOMMENDER_URL not set, using stub recommendation generator")
	}

	// Domain services
	transactor := db.NewTransactor(pool)
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	templateSvc := template.NewService(template.NewRepoPG(pool), templateCache,
		time.Duration(cfg.TemplateCacheTTLSeconds)*time.Second)
	bundleSvc := recommendation.NewService(generator, recommendation.NewRepoPG(pool), eventLog, recommenderTimeout)
	synthSvc := synthesis.NewService(templateSvc, patientSvc, bundleSvc, eventLog, cfg.ClinicName)
	resolver := synthesis.NewResolver(synthesis.ExprEvaluator{}, logger)
	noteSvc := note.NewService(note.NewRepoPG(pool), transactor, patientSvc, templateSvc, synthSvc, resolver,
		eventLog, publisher, cfg.ClinicName)
	intakeSvc := intake.NewService(intake.NewRepoPG(pool), transactor, patientSvc, bundleSvc, eventLog)

	// Handlers
	template.NewHandler(templateSvc).RegisterRoutes(apiV1)
	synthesis.NewHandler(synthSvc).RegisterRoutes(apiV1)
	note.NewHandler(noteSvc, eventLog).RegisterRoutes(apiV1)
	intake.NewHandler(intakeSvc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

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
