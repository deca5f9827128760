package routes

import (
	"github.com/gofiber/fiber/v2"

	"jobboard/internal/controllers"
)

func NotificationRoutes(app *fiber.App, svc Services) {
	app.Get("/me/notifications", controllers.ListNotificationsHandler(svc.Notifier))
}
