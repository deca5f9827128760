package routes

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/controllers"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
)

func SetupRoutesAdmin(app *fiber.App, svc Services) {
	admin := app.Group("/admin", middleware.RequireRole(string(models.RoleAdmin)))
	admin.Get("/jobs/pending", controllers.ListPendingJobsHandler(svc.Moderation))
	admin.Post("/jobs/:job_id/decision", controllers.DecideJobHandler(svc.Moderation))
}
