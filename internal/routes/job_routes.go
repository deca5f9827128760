package routes

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/controllers"
	"jobboard/internal/middleware"
	"jobboard/internal/models"
)

func SetupRoutesJob(app *fiber.App, svc Services) {
	employer := middleware.RequireRole(string(models.RoleEmployer))

	job := app.Group("/jobs")
	job.Get("/", controllers.ListJobsHandler(svc.Jobs))
	job.Post("/", employer, controllers.CreateJobHandler(svc.Jobs))

	job.Get("/:job_id", controllers.GetJobHandler(svc.Jobs))
	job.Put("/:job_id", employer, controllers.UpdateJobHandler(svc.Jobs))
	job.Delete("/:job_id", employer, controllers.DeleteJobHandler(svc.Jobs))
	job.Patch("/:job_id/status", employer, controllers.ToggleJobStatusHandler(svc.Jobs))
	job.Post("/:job_id/resubmit", employer, controllers.ResubmitJobHandler(svc.Jobs))

	// Live applicant count
	job.Get("/:job_id/applicants/stream", controllers.StreamApplicantCountHandler(svc.Jobs, svc.Watcher))

	app.Get("/employer/jobs", employer, controllers.ListEmployerJobsHandler(svc.Jobs))
}
