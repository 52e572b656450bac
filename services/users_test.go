package services

import (
	"context"
	"testing"
	"time"

	"progreso/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestUserService(db *gorm.DB) *UserService {
	return NewUserService(db, clockwork.NewRealClock(), testZone, zap.NewNop())
}

func setStatus(t *testing.T, db *gorm.DB, userID string, status models.OnboardingStatus) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).
		Update("onboarding_status", status).Error)
}

func TestOnboardingAdvancesThroughStates(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")
	setStatus(t, db, user.ID, models.StatusRegistered)

	// Goals before profile: not reachable.
	_, err := svc.SetGoals(user.ID, "leer más", "ascender")
	assert.ErrorIs(t, err, models.ErrOnboardingStep)

	updated, err := svc.UpdateProfile(user.ID, ProfileInput{
		AgeBracket: "25-34",
		FreeTime:   "medium",
		Hobbies:    "escalada, cocina",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProfiled, updated.OnboardingStatus)

	updated, err = svc.SetGoals(user.ID, "leer más", "ascender")
	require.NoError(t, err)
	assert.Equal(t, models.StatusGoalsSet, updated.OnboardingStatus)
}

func TestInitialSetupRunsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")
	setStatus(t, db, user.ID, models.StatusGoalsSet)

	gen := newTestGenerator(db, &fakeGen{resp: setupResponse}, clockwork.NewRealClock())

	updated, err := svc.RunInitialSetup(context.Background(), user.ID, gen)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerated, updated.OnboardingStatus)

	// The door is closed now.
	_, err = svc.RunInitialSetup(context.Background(), user.ID, gen)
	assert.ErrorIs(t, err, models.ErrOnboardingStep)
}

func TestInitialSetupFailureKeepsStateRetryable(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")
	setStatus(t, db, user.ID, models.StatusGoalsSet)

	gen := newTestGenerator(db, &fakeGen{err: models.ErrGeneration}, clockwork.NewRealClock())
	_, err := svc.RunInitialSetup(context.Background(), user.ID, gen)
	assert.ErrorIs(t, err, models.ErrGeneration)

	after := reloadUser(t, db, user.ID)
	assert.Equal(t, models.StatusGoalsSet, after.OnboardingStatus)
}

func TestPurchaseShopItemDeductsCoins(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")
	require.NoError(t, db.Model(user).Update("coins", 120).Error)
	item := models.ShopItem{ID: uuid.NewString(), Name: "Tarde libre", Cost: 100, UserID: user.ID}
	require.NoError(t, db.Create(&item).Error)

	snap, err := svc.PurchaseShopItem(user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Coins)

	_, err = svc.PurchaseShopItem(user.ID, item.ID)
	assert.ErrorIs(t, err, models.ErrInsufficientCoins)
	assert.Equal(t, 20, reloadUser(t, db, user.ID).Coins)
}

func TestPurchaseShopItemRejectsForeignItem(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	owner := newTestUser(t, db, "ana")
	intruder := newTestUser(t, db, "eva")
	require.NoError(t, db.Model(intruder).Update("coins", 500).Error)
	item := models.ShopItem{ID: uuid.NewString(), Name: "Tarde libre", Cost: 100, UserID: owner.ID}
	require.NoError(t, db.Create(&item).Error)

	_, err := svc.PurchaseShopItem(intruder.ID, item.ID)
	assert.ErrorIs(t, err, models.ErrNotOwner)
	assert.Equal(t, 500, reloadUser(t, db, intruder.ID).Coins)
}

func TestFeedReturnsNewestFirstWithAuthors(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	ana := newTestUser(t, db, "ana")
	eva := newTestUser(t, db, "eva")

	first, err := svc.ShareAchievement(ana.ID, "¡Subí al nivel 3!")
	require.NoError(t, err)
	require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-time.Hour)).Error)
	_, err = svc.ShareAchievement(eva.ID, "Racha de 30 días")
	require.NoError(t, err)

	entries, err := svc.Feed()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Racha de 30 días", entries[0].Text)
	assert.Equal(t, "eva", entries[0].Username)
	assert.Equal(t, "ana", entries[1].Username)
}

func TestConsumeMessagesMarksThemRead(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")

	for _, content := range []string{"uno", "dos"} {
		require.NoError(t, db.Create(&models.AssistantMessage{
			ID: uuid.NewString(), Content: content, UserID: user.ID,
		}).Error)
	}

	messages, err := svc.ConsumeMessages(user.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	// The poll is consume-once.
	messages, err = svc.ConsumeMessages(user.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDashboardReportsXPProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(db)
	user := newTestUser(t, db, "ana")
	require.NoError(t, db.Model(user).Updates(map[string]interface{}{
		"current_xp": 25, "coins": 1234567,
	}).Error)
	newTestMission(t, db, user.ID, time.Now().Add(time.Hour))

	view, err := svc.Dashboard(user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, view.XPPercent, 0.001)
	assert.Equal(t, "1.234.567", view.CoinsDisplay)
	assert.Len(t, view.UrgentMissions, 1)
}
