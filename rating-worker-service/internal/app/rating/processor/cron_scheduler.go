package processor

import (
	"context"

	"feedback/pkg/logger"
	"feedback/rating-worker-service/internal/app/rating/service"

	"github.com/robfig/cron/v3"
)

type CronScheduler struct {
	cron      *cron.Cron
	ratingSvc service.RatingServiceInterface
}

func NewCronScheduler(ratingSvc service.RatingServiceInterface) *CronScheduler {
	l := logger.Get()
	cronLogger := cron.PrintfLogger(&l)

	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &CronScheduler{
		cron:      c,
		ratingSvc: ratingSvc,
	}
}

// Start регистрирует сверку и сразу выполняет ее один раз
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: reconciling ratings")
		if err := s.ratingSvc.Reconcile(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to reconcile ratings")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	if err := s.ratingSvc.Reconcile(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial ratings reconciliation failed")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
