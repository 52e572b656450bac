package services

import (
	"context"
	"time"

	"progreso/models"
	"progreso/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Every mission that expires costs its owner this many health points.
const ExpiredMissionPenalty = 10

// JobService runs the four daily batch operations. Each is idempotent per
// invocation and isolates per-user failures: one user's error is logged and
// skipped, never aborting the batch for the rest.
type JobService struct {
	DB        *gorm.DB
	Generator *GeneratorService
	Clock     clockwork.Clock
	Zone      *time.Location
	Logger    *zap.Logger
}

func NewJobService(db *gorm.DB, gen *GeneratorService, clock clockwork.Clock, zone *time.Location, logger *zap.Logger) *JobService {
	return &JobService{DB: db, Generator: gen, Clock: clock, Zone: zone, Logger: logger}
}

// RunMissionGeneration generates today's missions for every onboarded user
// with at least one life area.
func (s *JobService) RunMissionGeneration(ctx context.Context) error {
	var users []models.User
	if err := s.DB.Where("onboarding_status = ?", models.StatusGenerated).Find(&users).Error; err != nil {
		utils.JobRuns.WithLabelValues("generate_missions", "error").Inc()
		return err
	}

	for i := range users {
		user := &users[i]

		var areaCount int64
		if err := s.DB.Model(&models.LifeArea{}).Where("user_id = ?", user.ID).Count(&areaCount).Error; err != nil {
			s.Logger.Error("mission_generation_user_failed", zap.String("user_id", user.ID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("generate_missions").Inc()
			continue
		}
		if areaCount == 0 {
			s.Logger.Warn("mission_generation_skipped_no_areas", zap.String("user_id", user.ID))
			continue
		}

		if _, err := s.Generator.GenerateDailyMissions(ctx, user); err != nil {
			s.Logger.Error("mission_generation_user_failed", zap.String("user_id", user.ID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("generate_missions").Inc()
		}
	}

	utils.JobRuns.WithLabelValues("generate_missions", "ok").Inc()
	s.Logger.Info("mission_generation_done", zap.Int("users", len(users)))
	return nil
}

// RunMissionExpiry closes every overdue open mission, applies the fixed
// health penalty to its owner, and sends one failure notice per affected
// user. The close is a conditional update, so a mission the user completes
// mid-run is not penalized, and re-running the job finds nothing to do.
func (s *JobService) RunMissionExpiry(ctx context.Context) error {
	now := s.Clock.Now().UTC()

	var overdue []models.Mission
	if err := s.DB.Where("completed = ? AND due_at < ?", false, now).Find(&overdue).Error; err != nil {
		utils.JobRuns.WithLabelValues("expire_missions", "error").Inc()
		return err
	}

	type userMisses struct {
		titles  []string
		penalty int
	}
	missed := make(map[string]*userMisses)

	for i := range overdue {
		mission := &overdue[i]

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Mission{}).
				Where("id = ? AND completed = ?", mission.ID, false).
				Updates(map[string]interface{}{"completed": true, "expired": true})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Completed by the user between the query and now; no penalty.
				return nil
			}

			var user models.User
			if err := tx.First(&user, "id = ?", mission.UserID).Error; err != nil {
				return err
			}
			user.Health = models.ClampHealth(user.Health - ExpiredMissionPenalty)
			if err := tx.Save(&user).Error; err != nil {
				return err
			}

			m, ok := missed[mission.UserID]
			if !ok {
				m = &userMisses{}
				missed[mission.UserID] = m
			}
			m.titles = append(m.titles, mission.Title)
			m.penalty += ExpiredMissionPenalty
			utils.ExpiredMissions.Inc()
			return nil
		})
		if err != nil {
			s.Logger.Error("mission_expiry_failed",
				zap.String("mission_id", mission.ID),
				zap.String("user_id", mission.UserID),
				zap.Error(err),
			)
			utils.JobUserFailures.WithLabelValues("expire_missions").Inc()
		}
	}

	for userID, m := range missed {
		var user models.User
		if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
			s.Logger.Error("failure_notice_skipped", zap.String("user_id", userID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("expire_missions").Inc()
			continue
		}
		if err := s.Generator.GenerateFailureNotice(ctx, &user, m.titles, m.penalty); err != nil {
			// Notice is best-effort; the penalty already committed.
			s.Logger.Error("failure_notice_failed", zap.String("user_id", userID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("expire_missions").Inc()
		}
	}

	utils.JobRuns.WithLabelValues("expire_missions", "ok").Inc()
	s.Logger.Info("mission_expiry_done",
		zap.Int("overdue", len(overdue)),
		zap.Int("affected_users", len(missed)),
	)
	return nil
}

// RunShopRefresh replaces every onboarded user's shop catalog.
func (s *JobService) RunShopRefresh(ctx context.Context) error {
	var users []models.User
	if err := s.DB.Where("onboarding_status = ?", models.StatusGenerated).Find(&users).Error; err != nil {
		utils.JobRuns.WithLabelValues("refresh_shop", "error").Inc()
		return err
	}

	for i := range users {
		user := &users[i]
		if err := s.Generator.GenerateShopRefresh(ctx, user); err != nil {
			s.Logger.Error("shop_refresh_user_failed", zap.String("user_id", user.ID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("refresh_shop").Inc()
		}
	}

	utils.JobRuns.WithLabelValues("refresh_shop", "ok").Inc()
	s.Logger.Info("shop_refresh_done", zap.Int("users", len(users)))
	return nil
}

// civilDayBounds returns the UTC instants bracketing today's civil day in
// the fixed zone.
func (s *JobService) civilDayBounds() (time.Time, time.Time) {
	now := s.Clock.Now().In(s.Zone)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Zone)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

// RunDailyReport sends every user a narrative summary of today's mission
// outcomes. Counts cover missions due within today's civil day: completed
// (rewarded) versus expired (penalized).
func (s *JobService) RunDailyReport(ctx context.Context) error {
	dayStart, dayEnd := s.civilDayBounds()

	var users []models.User
	if err := s.DB.Find(&users).Error; err != nil {
		utils.JobRuns.WithLabelValues("daily_report", "error").Inc()
		return err
	}

	for i := range users {
		user := &users[i]

		var completed, failed int64
		err := s.DB.Model(&models.Mission{}).
			Where("user_id = ? AND completed = ? AND expired = ? AND due_at >= ? AND due_at < ?",
				user.ID, true, false, dayStart, dayEnd).
			Count(&completed).Error
		if err == nil {
			err = s.DB.Model(&models.Mission{}).
				Where("user_id = ? AND expired = ? AND due_at >= ? AND due_at < ?",
					user.ID, true, dayStart, dayEnd).
				Count(&failed).Error
		}
		if err != nil {
			s.Logger.Error("daily_report_user_failed", zap.String("user_id", user.ID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("daily_report").Inc()
			continue
		}

		if err := s.Generator.GenerateDailyReport(ctx, user, int(completed), int(failed)); err != nil {
			s.Logger.Error("daily_report_user_failed", zap.String("user_id", user.ID), zap.Error(err))
			utils.JobUserFailures.WithLabelValues("daily_report").Inc()
		}
	}

	utils.JobRuns.WithLabelValues("daily_report", "ok").Inc()
	s.Logger.Info("daily_report_done", zap.Int("users", len(users)))
	return nil
}
