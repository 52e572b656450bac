package services

import (
	"context"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartScheduler wires the four daily jobs into gocron at fixed civil times:
// shop refresh and mission generation in the morning, expiry right after the
// due hour, report in the evening. Returns the scheduler so main can shut it
// down.
func (s *JobService) StartScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.Zone))
	if err != nil {
		return nil, err
	}

	jobs := []struct {
		cron string
		name string
		run  func(context.Context) error
	}{
		{"0 5 * * *", "refresh_shop", s.RunShopRefresh},
		{"0 6 * * *", "generate_missions", s.RunMissionGeneration},
		{"5 18 * * *", "expire_missions", s.RunMissionExpiry},
		{"0 21 * * *", "daily_report", s.RunDailyReport},
	}

	for _, j := range jobs {
		job := j
		if _, err := sched.NewJob(
			gocron.CronJob(job.cron, false),
			gocron.NewTask(func() {
				if err := job.run(context.Background()); err != nil {
					s.Logger.Error("scheduled_job_failed", zap.String("job", job.name), zap.Error(err))
				}
			}),
		); err != nil {
			return nil, err
		}
	}

	sched.Start()
	s.Logger.Info("scheduler_started", zap.Int("jobs", len(jobs)))
	return sched, nil
}
