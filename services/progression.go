package services

import (
	"errors"
	"fmt"

	"progreso/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Level-up curve: each level costs 1.5× the previous one.
const levelUpMultiplier = 1.5

// StatsSnapshot is what interactive handlers return after a progression
// event, for immediate client display.
type StatsSnapshot struct {
	Level         int  `json:"level"`
	CurrentXP     int  `json:"current_xp"`
	XPToNextLevel int  `json:"xp_to_next_level"`
	Coins         int  `json:"coins"`
	Health        int  `json:"health"`
	LevelsGained  int  `json:"levels_gained"`
	StreakLost    bool `json:"streak_lost,omitempty"`
}

// ProgressionService applies deterministic state changes to a user and a
// related habit or mission. Every operation runs as a single transaction:
// either all effects commit or none do.
type ProgressionService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewProgressionService(db *gorm.DB, logger *zap.Logger) *ProgressionService {
	return &ProgressionService{DB: db, Logger: logger}
}

// applyLevelUps rolls excess XP into new levels and returns how many levels
// were gained. A loop rather than a single check: one large reward may cross
// several thresholds, and the excess carries over instead of being discarded.
func applyLevelUps(u *models.User) int {
	gained := 0
	for u.XPToNextLevel > 0 && u.CurrentXP >= u.XPToNextLevel {
		u.CurrentXP -= u.XPToNextLevel
		u.Level++
		u.XPToNextLevel = int(float64(u.XPToNextLevel) * levelUpMultiplier)
		gained++
	}
	return gained
}

func snapshotOf(u *models.User, levelsGained int) *StatsSnapshot {
	return &StatsSnapshot{
		Level:         u.Level,
		CurrentXP:     u.CurrentXP,
		XPToNextLevel: u.XPToNextLevel,
		Coins:         u.Coins,
		Health:        u.Health,
		LevelsGained:  levelsGained,
	}
}

// CompleteHabit awards the habit's XP and coins, grows the streak, restores
// one health point, and runs the level-up check.
func (s *ProgressionService) CompleteHabit(userID, habitID string) (*StatsSnapshot, error) {
	var snap *StatsSnapshot
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var habit models.Habit
		if err := tx.First(&habit, "id = ?", habitID).Error; err != nil {
			return err
		}
		if habit.UserID != userID {
			return models.ErrNotOwner
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		user.CurrentXP += habit.XPReward
		user.Coins += habit.CoinReward
		user.Health = models.ClampHealth(user.Health + 1)
		habit.Streak++
		gained := applyLevelUps(&user)

		if err := tx.Save(&habit).Error; err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		snap = snapshotOf(&user, gained)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("habit_completed",
		zap.String("user_id", userID),
		zap.String("habit_id", habitID),
		zap.Int("level", snap.Level),
		zap.Int("levels_gained", snap.LevelsGained),
	)
	return snap, nil
}

// FailHabit resets the streak and applies the habit's health penalty,
// clamped at zero. The returned snapshot reports whether a nonzero streak
// was lost, for user-facing messaging only.
func (s *ProgressionService) FailHabit(userID, habitID string) (*StatsSnapshot, error) {
	var snap *StatsSnapshot
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var habit models.Habit
		if err := tx.First(&habit, "id = ?", habitID).Error; err != nil {
			return err
		}
		if habit.UserID != userID {
			return models.ErrNotOwner
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		streakLost := habit.Streak > 0
		habit.Streak = 0
		user.Health = models.ClampHealth(user.Health - habit.HealthPenalty)

		if err := tx.Save(&habit).Error; err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		snap = snapshotOf(&user, 0)
		snap.StreakLost = streakLost
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("habit_failed",
		zap.String("user_id", userID),
		zap.String("habit_id", habitID),
		zap.Int("health", snap.Health),
		zap.Bool("streak_lost", snap.StreakLost),
	)
	return snap, nil
}

// CompleteMission marks the mission done and awards its XP and coins. The
// mark is a conditional update on completed=false, so a concurrent expiry of
// the same mission cannot also apply: exactly one of reward or penalty wins.
func (s *ProgressionService) CompleteMission(userID, missionID string) (*StatsSnapshot, error) {
	var snap *StatsSnapshot
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var mission models.Mission
		if err := tx.First(&mission, "id = ?", missionID).Error; err != nil {
			return err
		}
		if mission.UserID != userID {
			return models.ErrNotOwner
		}

		res := tx.Model(&models.Mission{}).
			Where("id = ? AND completed = ?", missionID, false).
			Update("completed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrAlreadyCompleted
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}

		user.CurrentXP += mission.XPReward
		user.Coins += mission.CoinReward
		gained := applyLevelUps(&user)

		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		snap = snapshotOf(&user, gained)
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			return nil, err
		}
		return nil, fmt.Errorf("complete mission %s: %w", missionID, err)
	}

	s.Logger.Info("mission_completed",
		zap.String("user_id", userID),
		zap.String("mission_id", missionID),
		zap.Int("level", snap.Level),
	)
	return snap, nil
}
