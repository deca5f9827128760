package routes

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/controllers"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
)

func SetupRoutesApplication(app *fiber.App, svc Services) {
	seeker := middleware.RequireRole(string(models.RoleJobSeeker))
	reviewer := middleware.RequireRole(string(models.RoleEmployer), string(models.RoleAdmin))

	app.Post("/jobs/:job_id/apply",
		seeker,
		middleware.PerUserRateLimit(svc.ApplyRatePerMinute),
		controllers.ApplyHandler(svc.Applications),
	)
	app.Get("/jobs/:job_id/applications", reviewer, controllers.ListJobApplicationsHandler(svc.Applications))
	app.Patch("/applications/:application_id/status", reviewer, controllers.SetApplicationStatusHandler(svc.Applications))

	app.Get("/me/applications", seeker, controllers.ListMyApplicationsHandler(svc.Applications))
}
