package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"

	_ "jobboard/docs"
	"jobboard/errors"
	"jobboard/internal/controllers"
	"jobboard/internal/middleware"
	"jobboard/internal/routes"
	"jobboard/internal/services"
	"jobboard/logger"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd starts the HTTP API
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the job board HTTP API",
	Long: `Start the job board HTTP API.

The API needs a JWT secret (auth.jwt_secret or JWT_SECRET) shared with the auth service.
With the mongo driver, live applicant counts use change streams, which need a replica set.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.WithHint(errors.New("JWT secret is not configured"),
			"set JWT_SECRET or auth.jwt_secret")
	}
	policy, err := services.ParseEditApprovalPolicy(cfg.Jobs.EditPolicy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier := services.NewNotifier(store, logger.Named("notifier"))
	jobs := services.NewJobService(store, notifier, logger.Named("jobs"), policy)
	watcher := services.NewCountWatcher(store, jobs, cfg.DebounceWindow(), logger.Named("watcher"))

	app := fiber.New(fiber.Config{
		ErrorHandler:          controllers.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(logger.Named("http")))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	routes.SetupDocs(app)

	routes.SetupRoutes(app, routes.Services{
		Jobs:               jobs,
		Applications:       services.NewApplicationService(store, jobs, notifier, logger.Named("applications")),
		Moderation:         services.NewModerationService(store, jobs, notifier, logger.Named("moderation")),
		Notifier:           notifier,
		Watcher:            watcher,
		ApplyRatePerMinute: cfg.Apply.RatePerMinute,
	}, cfg.Auth.JWTSecret)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()
	logger.Infow("Job board API listening",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"edit_policy", policy,
		"debounce", cfg.DebounceWindow(),
		"apply_rate_per_minute", cfg.Apply.RatePerMinute)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	// Open streams block a graceful shutdown until their subscriptions end
	watcher.Shutdown()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
