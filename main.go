package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"progreso/cache"
	"progreso/handlers"
	"progreso/middleware"
	"progreso/models"
	"progreso/services"
	"progreso/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	logger := utils.NewLogger(os.Getenv("LOG_PATH"))
	defer logger.Sync()

	utils.InitMetrics()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.LifeArea{},
		&models.Habit{},
		&models.Mission{},
		&models.ShopItem{},
		&models.SharedAchievement{},
		&models.AssistantMessage{},
		&models.AssistantPersonality{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := seedPersonalities(db); err != nil {
		logger.Fatal("failed to seed personality catalog", zap.Error(err))
	}

	// Cache is optional: a missing redis just disables it.
	_ = cache.Init(logger)
	defer cache.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET environment variable not set")
	}
	jobKey := os.Getenv("JOB_TRIGGER_KEY")
	if jobKey == "" {
		logger.Fatal("JOB_TRIGGER_KEY environment variable not set")
	}

	zoneName := os.Getenv("MISSION_TIMEZONE")
	if zoneName == "" {
		zoneName = "Europe/Madrid"
	}
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		logger.Fatal("invalid MISSION_TIMEZONE", zap.String("zone", zoneName), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	textGen, err := services.NewTextGenerator(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"), logger)
	if err != nil {
		logger.Fatal("failed to initialize generation client", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	authService := services.NewAuthService(db, []byte(jwtSecret), logger)
	userService := services.NewUserService(db, clock, zone, logger)
	progressionService := services.NewProgressionService(db, logger)
	generatorService := services.NewGeneratorService(db, textGen, clock, zone, logger)
	jobService := services.NewJobService(db, generatorService, clock, zone, logger)

	app := fiber.New(fiber.Config{
		AppName: "progreso",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: envOr("ALLOWED_ORIGINS", "http://localhost:3000"),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Job-Key",
	}))

	userAuth := middleware.UserContextMiddleware(db, []byte(jwtSecret))
	jobAuth := middleware.JobKeyMiddleware(jobKey)

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupProgressionRoutes(app, userAuth, progressionService)
	handlers.SetupContentRoutes(app, userAuth, userService, generatorService)
	handlers.SetupJobRoutes(app, jobAuth, jobService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	sched, err := jobService.StartScheduler()
	if err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	port := envOr("PORT", "5300")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()
	logger.Info("server_running", zap.String("port", port), zap.String("zone", zoneName))

	<-ctx.Done()
	logger.Info("shutting_down")
	if err := sched.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", zap.Error(err))
	}
	if err := app.Shutdown(); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedPersonalities inserts the catalog entries that are not present yet.
func seedPersonalities(db *gorm.DB) error {
	for _, p := range models.PersonalityCatalog {
		var existing models.AssistantPersonality
		err := db.First(&existing, "name = ?", p.Name).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		seed := p
		seed.ID = uuid.NewString()
		if err := db.Create(&seed).Error; err != nil {
			return err
		}
	}
	return nil
}
