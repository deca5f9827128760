package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"jobboard/dto"
	"jobboard/internal/services"
	"jobboard/logger"
)

// streamHeartbeat keeps proxies from closing an idle stream and detects gone clients
var streamHeartbeat = 15 * time.Second

// StreamApplicantCountHandler godoc
// @Summary      Live applicant count
// @Description  Server-sent events. Each "count" event carries the current number of active applications; "end" is sent when the job is deleted or the server shuts down.
// @Tags         jobs
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200  {object}  dto.CountEvent
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /jobs/{job_id}/applicants/stream [get]
func StreamApplicantCountHandler(jobs *services.JobService, watcher *services.CountWatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		jobID, err := paramObjectID(c, "job_id")
		if err != nil {
			return respondError(c, err)
		}
		if _, err := jobs.GetVisible(c.UserContext(), actor, jobID); err != nil {
			return respondError(c, err)
		}

		// The stream outlives this handler, so it gets its own context
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := watcher.Subscribe(ctx, jobID)
		if err != nil {
			cancel()
			return respondError(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			defer sub.Close()

			heartbeat := time.NewTicker(streamHeartbeat)
			defer heartbeat.Stop()

			for {
				select {
				case u, ok := <-sub.Updates():
					if !ok {
						_, _ = w.WriteString("event: end\ndata: {}\n\n")
						_ = w.Flush()
						return
					}
					if err := writeCountEvent(w, u); err != nil {
						logger.Named("stream").Debugw("Client went away", "job_id", jobID.Hex(), "error", err)
						return
					}
				case <-heartbeat.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		}))
		return nil
	}
}

func writeCountEvent(w *bufio.Writer, u services.CountUpdate) error {
	payload, err := json.Marshal(dto.CountEvent{
		JobID:          u.JobID.Hex(),
		Count:          u.Count,
		ApplicantLimit: u.ApplicantLimit,
		JobStatus:      string(u.JobStatus),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: count\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}
