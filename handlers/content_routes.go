package handlers

import (
	"progreso/models"
	"progreso/services"
	"progreso/utils"

	"github.com/gofiber/fiber/v2"
)

type createAreaRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Icon string `json:"icon" validate:"omitempty,max=80"`
}

type createTitledRequest struct {
	Title      string  `json:"title" validate:"required,max=200"`
	LifeAreaID *string `json:"life_area_id" validate:"omitempty,uuid"`
}

type shareRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

type goalsRequest struct {
	PersonalGoals     string `json:"personal_goals" validate:"required"`
	ProfessionalGoals string `json:"professional_goals" validate:"required"`
}

func SetupContentRoutes(app *fiber.App, auth fiber.Handler, users *services.UserService, generator *services.GeneratorService) {
	secured := app.Group("/", auth)

	secured.Get("/dashboard", func(c *fiber.Ctx) error {
		view, err := users.Dashboard(c.Locals("user_id").(string))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(view)
	})

	// Onboarding

	secured.Post("/profile", func(c *fiber.Ctx) error {
		var req services.ProfileInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		user, err := users.UpdateProfile(c.Locals("user_id").(string), req)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(user)
	})

	secured.Post("/goals", func(c *fiber.Ctx) error {
		var req goalsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		user, err := users.SetGoals(c.Locals("user_id").(string), req.PersonalGoals, req.ProfessionalGoals)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(user)
	})

	secured.Post("/onboarding/generate", func(c *fiber.Ctx) error {
		user, err := users.RunInitialSetup(c.Context(), c.Locals("user_id").(string), generator)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(user)
	})

	// Life areas

	secured.Get("/areas", func(c *fiber.Ctx) error {
		areas, err := users.ListLifeAreas(c.Locals("user_id").(string))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(areas)
	})

	secured.Post("/areas", func(c *fiber.Ctx) error {
		var req createAreaRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		area, err := users.CreateLifeArea(c.Locals("user_id").(string), req.Name, req.Icon)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(area)
	})

	// Habits

	secured.Get("/habits", func(c *fiber.Ctx) error {
		habits, err := users.ListHabits(c.Locals("user_id").(string))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(habits)
	})

	secured.Post("/habits", func(c *fiber.Ctx) error {
		var req createTitledRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		habit, err := users.CreateHabit(c.Locals("user_id").(string), req.Title, req.LifeAreaID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(habit)
	})

	// Missions

	secured.Get("/missions", func(c *fiber.Ctx) error {
		missions, err := users.ListMissions(c.Locals("user_id").(string))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(missions)
	})

	secured.Post("/missions", func(c *fiber.Ctx) error {
		var req createTitledRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		mission, err := users.CreateMission(c.Locals("user_id").(string), req.Title, req.LifeAreaID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(mission)
	})

	// Shop

	secured.Get("/shop", func(c *fiber.Ctx) error {
		user := c.Locals("user").(models.User)
		items, err := users.ListShop(user.ID)
		if err != nil {
			return errorJSON(c, err)
		}

		type shopItemView struct {
			models.ShopItem
			CostDisplay string `json:"cost_display"`
		}
		views := make([]shopItemView, len(items))
		for i, item := range items {
			views[i] = shopItemView{ShopItem: item, CostDisplay: utils.FormatCoins(item.Cost)}
		}

		return c.JSON(fiber.Map{
			"coins":         user.Coins,
			"coins_display": utils.FormatCoins(user.Coins),
			"items":         views,
		})
	})

	secured.Post("/shop/:id/buy", func(c *fiber.Ctx) error {
		snap, err := users.PurchaseShopItem(c.Locals("user_id").(string), c.Params("id"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(snap)
	})

	// Public feed

	secured.Get("/feed", func(c *fiber.Ctx) error {
		entries, err := users.Feed()
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(entries)
	})

	secured.Post("/feed", func(c *fiber.Ctx) error {
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		entry, err := users.ShareAchievement(c.Locals("user_id").(string), req.Text)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	// Assistant messages, polled by the client and marked read on delivery.

	secured.Get("/assistant/messages", func(c *fiber.Ctx) error {
		messages, err := users.ConsumeMessages(c.Locals("user_id").(string))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(messages)
	})
}
