package handlers

import (
	"context"

	"progreso/services"

	"github.com/gofiber/fiber/v2"
)

// SetupJobRoutes exposes the four daily jobs to the external trigger. Each
// endpoint runs the job synchronously and reports only success or failure;
// per-user details go to the server log.
func SetupJobRoutes(app *fiber.App, jobKey fiber.Handler, jobs *services.JobService) {
	group := app.Group("/jobs", jobKey)

	run := func(name string, fn func(context.Context) error) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if err := fn(c.Context()); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"job":   name,
					"error": "job failed",
				})
			}
			return c.JSON(fiber.Map{"job": name, "status": "ok"})
		}
	}

	group.Post("/generate-missions", run("generate_missions", jobs.RunMissionGeneration))
	group.Post("/expire-missions", run("expire_missions", jobs.RunMissionExpiry))
	group.Post("/refresh-shop", run("refresh_shop", jobs.RunShopRefresh))
	group.Post("/daily-report", run("daily_report", jobs.RunDailyReport))
}
