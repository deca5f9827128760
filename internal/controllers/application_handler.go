package controllers

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/dto"
	"jobboard/internal/models"
	"jobboard/internal/services"
)

// ApplyHandler godoc
// @Summary      Apply to a job
// @Description  Fails with 409 when the seeker's latest application is still active or the job is closed.
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      201  {object}  models.Application
// @Failure      403  {object}  dto.ErrorResponse  "Not a job seeker"
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "Already applied or job closed"
// @Failure      429  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id}/apply [post]
func ApplyHandler(apps *services.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		app, err := apps.Apply(c.UserContext(), actor.ID, jobID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(app)
	}
}

// ListJobApplicationsHandler godoc
// @Summary      List applications to a job
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200  {array}   models.Application
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id}/applications [get]
func ListJobApplicationsHandler(apps *services.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		list, err := apps.ListByJob(c.UserContext(), actor, jobID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// ListMyApplicationsHandler godoc
// @Summary      List my applications
// @Description  One entry per job: the latest application, older ones and whether the seeker may apply again.
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.SeekerJobApplication
// @Router       /me/applications [get]
func ListMyApplicationsHandler(apps *services.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		list, err := apps.ListBySeeker(c.UserContext(), actor.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// SetApplicationStatusHandler godoc
// @Summary      Review an application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        application_id  path  string                        true  "Application ID"
// @Param        body            body  dto.ApplicationStatusRequest  true  "New status"
// @Success      200  {object}  models.Application
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "Application already rejected"
// @Router       /applications/{application_id}/status [patch]
func SetApplicationStatusHandler(apps *services.ApplicationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		appID, err := paramObjectID(c, "application_id")
		if err != nil {
			return respondError(c, err)
		}
		var body dto.ApplicationStatusRequest
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		if err := services.Validate(body); err != nil {
			return respondError(c, err)
		}
		app, err := apps.SetStatus(c.UserContext(), actor, appID, models.ApplicationStatus(body.Status))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(app)
	}
}
