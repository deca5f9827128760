package controllers

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/services"
)

const notificationPageSize = 50

// ListNotificationsHandler godoc
// @Summary      List my notifications
// @Description  Newest first, at most 50 unless ?limit is smaller.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "Page size"
// @Success      200  {object}  map[string]interface{}
// @Router       /me/notifications [get]
func ListNotificationsHandler(notifier *services.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return respondError(c, err)
		}
		limit := c.QueryInt("limit", notificationPageSize)
		if limit <= 0 || limit > notificationPageSize {
			limit = notificationPageSize
		}
		notes, err := notifier.List(c.UserContext(), actor.ID, limit)
		if err != nil {
			return respondError(c, err)
		}

		unread := 0
		for _, n := range notes {
			if !n.Read {
				unread++
			}
		}
		return c.JSON(fiber.Map{
			"unread_count": unread,
			"data":         notes,
		})
	}
}
