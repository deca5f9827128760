package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// SetupDocs serves Swagger UI and the generated OpenAPI document at /docs. It must be
// mounted before SetupRoutes so it stays public. The caller blank-imports jobboard/docs.
func SetupDocs(app *fiber.App) {
	app.Get("/docs/*", swagger.HandlerDefault)
}
