package services

import (
	"testing"
	"time"

	"progreso/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestHabit(t *testing.T, db *gorm.DB, userID string, xp, coins, penalty int) *models.Habit {
	t.Helper()
	habit := &models.Habit{
		ID:            uuid.NewString(),
		Title:         "Leer 20 minutos",
		XPReward:      xp,
		CoinReward:    coins,
		HealthPenalty: penalty,
		UserID:        userID,
	}
	require.NoError(t, db.Create(habit).Error)
	return habit
}

func newTestMission(t *testing.T, db *gorm.DB, userID string, due time.Time) *models.Mission {
	t.Helper()
	mission := &models.Mission{
		ID:         uuid.NewString(),
		Title:      "Ordenar el escritorio",
		XPReward:   models.MissionXPReward,
		CoinReward: models.DefaultMissionCoins,
		DueAt:      due,
		UserID:     userID,
	}
	require.NoError(t, db.Create(mission).Error)
	return mission
}

func TestCompleteHabitAppliesRewards(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	require.NoError(t, db.Model(user).Update("health", 80).Error)
	habit := newTestHabit(t, db, user.ID, 10, 5, 5)

	snap, err := svc.CompleteHabit(user.ID, habit.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, snap.CurrentXP)
	assert.Equal(t, 5, snap.Coins)
	assert.Equal(t, 81, snap.Health)
	assert.Equal(t, 1, snap.Level)

	var got models.Habit
	require.NoError(t, db.First(&got, "id = ?", habit.ID).Error)
	assert.Equal(t, 1, got.Streak)
}

func TestCompleteHabitHealthCapped(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	habit := newTestHabit(t, db, user.ID, 10, 5, 5)

	snap, err := svc.CompleteHabit(user.ID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxHealth, snap.Health)
}

func TestLevelUpCarriesOverExcessXP(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	require.NoError(t, db.Model(user).Update("current_xp", 90).Error)
	habit := newTestHabit(t, db, user.ID, 20, 0, 5)

	snap, err := svc.CompleteHabit(user.ID, habit.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, 10, snap.CurrentXP)
	assert.Equal(t, 150, snap.XPToNextLevel)
	assert.Equal(t, 1, snap.LevelsGained)
}

func TestLevelUpCrossesMultipleThresholds(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	habit := newTestHabit(t, db, user.ID, 260, 0, 5)

	// 260 XP clears level 1 (100) and level 2 (150), leaving 10.
	snap, err := svc.CompleteHabit(user.ID, habit.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Level)
	assert.Equal(t, 10, snap.CurrentXP)
	assert.Equal(t, 225, snap.XPToNextLevel)
	assert.Equal(t, 2, snap.LevelsGained)
}

func TestCompleteHabitRejectsForeignHabit(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	owner := newTestUser(t, db, "ana")
	intruder := newTestUser(t, db, "eva")
	habit := newTestHabit(t, db, owner.ID, 10, 5, 5)

	_, err := svc.CompleteHabit(intruder.ID, habit.ID)
	assert.ErrorIs(t, err, models.ErrNotOwner)

	// No mutation on either side.
	got := reloadUser(t, db, owner.ID)
	assert.Equal(t, 0, got.CurrentXP)
	var gotHabit models.Habit
	require.NoError(t, db.First(&gotHabit, "id = ?", habit.ID).Error)
	assert.Equal(t, 0, gotHabit.Streak)
}

func TestFailHabitResetsStreakAndClampsHealth(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	require.NoError(t, db.Model(user).Update("health", 7).Error)
	habit := newTestHabit(t, db, user.ID, 10, 5, 5)
	require.NoError(t, db.Model(habit).Update("streak", 9).Error)

	snap, err := svc.FailHabit(user.ID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Health)
	assert.True(t, snap.StreakLost)

	// Repeated failures bottom out at zero health and report no streak loss.
	snap, err = svc.FailHabit(user.ID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Health)
	assert.False(t, snap.StreakLost)

	snap, err = svc.FailHabit(user.ID, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Health)

	var got models.Habit
	require.NoError(t, db.First(&got, "id = ?", habit.ID).Error)
	assert.Equal(t, 0, got.Streak)
}

func TestCompleteMissionAwardsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	user := newTestUser(t, db, "ana")
	mission := newTestMission(t, db, user.ID, time.Now().Add(time.Hour))

	snap, err := svc.CompleteMission(user.ID, mission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionXPReward, snap.CurrentXP)
	assert.Equal(t, models.DefaultMissionCoins, snap.Coins)

	_, err = svc.CompleteMission(user.ID, mission.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)

	got := reloadUser(t, db, user.ID)
	assert.Equal(t, models.MissionXPReward, got.CurrentXP)
	assert.Equal(t, models.DefaultMissionCoins, got.Coins)
}

func TestCompleteMissionRejectsForeignMission(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressionService(db, zap.NewNop())
	owner := newTestUser(t, db, "ana")
	intruder := newTestUser(t, db, "eva")
	mission := newTestMission(t, db, owner.ID, time.Now().Add(time.Hour))

	_, err := svc.CompleteMission(intruder.ID, mission.ID)
	assert.ErrorIs(t, err, models.ErrNotOwner)

	var got models.Mission
	require.NoError(t, db.First(&got, "id = ?", mission.ID).Error)
	assert.False(t, got.Completed)
}
