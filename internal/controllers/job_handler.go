package controllers

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/services"
)

// ListJobsHandler godoc
// @Summary      List approved jobs
// @Description  Seeker-facing job listing. Only approved jobs are returned.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        barangay    query  string  false  "Barangay"
// @Param        job_type    query  string  false  "full-time | part-time"
// @Param        job_status  query  string  false  "open | closed"
// @Param        q           query  string  false  "Title search"
// @Success      200  {array}   models.Job
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /jobs [get]
func ListJobsHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q dto.JobListQuery
		if err := c.QueryParser(&q); err != nil {
			return respondError(c, errors.NewValidationError("invalid query"))
		}
		list, err := jobs.ListApproved(c.UserContext(), q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}

// GetJobHandler godoc
// @Summary      Get a job
// @Description  Approved jobs are visible to everyone; others only to their employer and admins.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID (hex ObjectID)"
// @Success      200  {object}  models.Job
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id} [get]
func GetJobHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		job, err := jobs.GetVisible(c.UserContext(), actor, jobID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(job)
	}
}

// CreateJobHandler godoc
// @Summary      Post a job
// @Description  New jobs always start pending review.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.JobInput  true  "Job"
// @Success      201  {object}  models.Job
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /jobs [post]
func CreateJobHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		var body dto.JobInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		job, err := jobs.Create(c.UserContext(), actor.ID, body)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(job)
	}
}

// UpdateJobHandler godoc
// @Summary      Edit a job
// @Description  Replaces the editable fields. Whether an approved job goes back to review depends on jobs.edit_policy.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string        true  "Job ID"
// @Param        body    body  dto.JobInput  true  "Job"
// @Success      200  {object}  models.Job
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id} [put]
func UpdateJobHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		var body dto.JobInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		job, err := jobs.Edit(c.UserContext(), actor.ID, jobID, body)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(job)
	}
}

// ToggleJobStatusHandler godoc
// @Summary      Open or close a job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200  {object}  models.Job
// @Failure      409  {object}  dto.ErrorResponse  "Job is not approved"
// @Router       /jobs/{job_id}/status [patch]
func ToggleJobStatusHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		job, err := jobs.ToggleStatus(c.UserContext(), actor.ID, jobID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(job)
	}
}

// ResubmitJobHandler godoc
// @Summary      Send a rejected job back to review
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200  {object}  models.Job
// @Failure      409  {object}  dto.ErrorResponse  "Job is not rejected"
// @Router       /jobs/{job_id}/resubmit [post]
func ResubmitJobHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		job, err := jobs.Resubmit(c.UserContext(), actor.ID, jobID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(job)
	}
}

// DeleteJobHandler godoc
// @Summary      Delete a job
// @Description  Applications to the job are kept.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id} [delete]
func DeleteJobHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		if err := jobs.Delete(c.UserContext(), actor.ID, jobID); err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.MessageResponse{Message: "job deleted"})
	}
}

// ListEmployerJobsHandler godoc
// @Summary      List my jobs
// @Description  Every job the employer posted, with approval status and rejection reason.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Job
// @Router       /employer/jobs [get]
func ListEmployerJobsHandler(jobs *services.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		list, err := jobs.ListByEmployer(c.UserContext(), actor.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(list)
	}
}
