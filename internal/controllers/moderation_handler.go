package controllers

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/dto"
	"jobboard/internal/services"
)

// ListPendingJobsHandler godoc
// @Summary      Review queue
// @Description  Pending jobs joined with their employer's profile.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.PendingJob
// @Router       /admin/jobs/pending [get]
func ListPendingJobsHandler(moderation *services.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := moderation.ListPending(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// DecideJobHandler godoc
// @Summary      Approve or reject a job
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string               true  "Job ID"
// @Param        body    body  dto.DecisionRequest  true  "Decision"
// @Success      200  {object}  models.Job
// @Failure      400  {object}  dto.ErrorResponse  "Unknown decision or missing reason"
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /admin/jobs/{job_id}/decision [post]
func DecideJobHandler(moderation *services.ModerationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		var body dto.DecisionRequest
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		job, err := moderation.Decide(c.UserContext(), actor.ID, jobID, body.Decision, body.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(job)
	}
}
