package routes

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/middleware"
	"jobboard/internal/services"
)

// Services are the handlers' dependencies
type Services struct {
	Jobs         *services.JobService
	Applications *services.ApplicationService
	Moderation   *services.ModerationService
	Notifier     *services.Notifier
	Watcher      *services.CountWatcher

	// ApplyRatePerMinute limits POST /jobs/:job_id/apply per seeker; 0 disables it
	ApplyRatePerMinute int
}

// SetupRoutes mounts every authenticated route. /healthz is registered by the caller
// before the JWT middleware.
func SetupRoutes(app *fiber.App, svc Services, secret string) {
	app.Use(middleware.JWTAuth(secret))

	SetupRoutesJob(app, svc)
	SetupRoutesApplication(app, svc)
	SetupRoutesAdmin(app, svc)
	NotificationRoutes(app, svc)
}
