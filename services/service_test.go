package services

import (
	"context"
	"testing"
	"time"

	"progreso/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testZone stands in for the configured mission time zone without requiring
// tzdata on the test machine.
var testZone = time.FixedZone("CET", 3600)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LifeArea{},
		&models.Habit{},
		&models.Mission{},
		&models.ShopItem{},
		&models.SharedAchievement{},
		&models.AssistantMessage{},
		&models.AssistantPersonality{},
	))
	return db
}

func seedTestPersonalities(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, p := range models.PersonalityCatalog {
		seed := p
		seed.ID = uuid.NewString()
		require.NoError(t, db.Create(&seed).Error)
	}
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:                   uuid.NewString(),
		Username:             username,
		Email:                username + "@example.com",
		PasswordHash:         "x",
		Level:                1,
		CurrentXP:            0,
		XPToNextLevel:        100,
		Coins:                0,
		Health:               models.MaxHealth,
		AssistantPersonality: models.DefaultPersonalityName,
		MissionsPerDay:       3,
		HabitsToGenerate:     3,
		ShopItemsPerDay:      3,
		OnboardingStatus:     models.StatusGenerated,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func reloadUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)
	return &user
}

// fakeGen is a scripted TextGenerator. When fn is set it answers per call;
// otherwise it always returns resp/err. All prompts are recorded.
type fakeGen struct {
	resp    string
	err     error
	fn      func(prompt string, wantJSON bool) (string, error)
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, prompt string, wantJSON bool) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.fn != nil {
		return f.fn(prompt, wantJSON)
	}
	return f.resp, f.err
}

func newTestGenerator(db *gorm.DB, gen TextGenerator, clock clockwork.Clock) *GeneratorService {
	return NewGeneratorService(db, gen, clock, testZone, zap.NewNop())
}
