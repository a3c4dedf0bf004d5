package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

// CronService runs the console's background jobs: purging expired refresh
// tokens nightly and sweeping the in-process status cache. The Redis cache
// needs no sweeping; keys expire on their own.
type CronService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	memoryCache      *statuscache.MemoryCache
	log              *zap.Logger
}

// NewCronService creates a new cron service. memoryCache may be nil when the
// status cache is Redis-backed.
func NewCronService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	memoryCache *statuscache.MemoryCache,
	log *zap.Logger,
) *CronService {
	return &CronService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		memoryCache:      memoryCache,
		log:              log,
	}
}

// Start registers and starts the background jobs
func (s *CronService) Start() error {
	// Purge expired refresh tokens nightly at 03:00.
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeExpiredTokens); err != nil {
		return err
	}

	if s.memoryCache != nil {
		if _, err := s.cron.AddFunc("@every 10m", s.memoryCache.Sweep); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("background jobs started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *CronService) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		s.log.Error("expired token purge failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.log.Info("expired refresh tokens purged", zap.Int64("deleted", deleted))
	}
}
