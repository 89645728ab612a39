package scheduler

import (
	"fmt"
	"time"

	"github.com/ikkim/shopfront-backend/config"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// MaintenanceScheduler runs the periodic catalog and cart consistency jobs.
type MaintenanceScheduler struct {
	cron        *cron.Cron
	maintenance service.MaintenanceService
	cfg         config.SchedulerConfig
}

func NewMaintenanceScheduler(maintenance service.MaintenanceService, cfg config.SchedulerConfig) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		maintenance: maintenance,
		cfg:         cfg,
	}
}

// Start registers both jobs and starts the cron loop.
func (s *MaintenanceScheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"ratings_reconcile", s.cfg.RatingsReconcileSpec, s.ReconcileRatings},
		{"cart_cleanup", s.cfg.CartCleanupSpec, s.CleanupCarts},
	}

	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			logger.Error("Failed to add cron job", err, map[string]interface{}{
				"job":  job.name,
				"spec": job.spec,
			})
			return fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"ratings_reconcile": s.cfg.RatingsReconcileSpec,
		"cart_cleanup":      s.cfg.CartCleanupSpec,
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) ReconcileRatings() {
	start := time.Now()
	logger.Info("Ratings reconcile started")

	processed, err := s.maintenance.ReconcileRatings()
	if err != nil {
		logger.Error("Ratings reconcile failed", err)
		return
	}

	logger.Info("Ratings reconcile finished", map[string]interface{}{
		"products":    processed,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (s *MaintenanceScheduler) CleanupCarts() {
	start := time.Now()
	logger.Info("Cart cleanup started")

	removed, err := s.maintenance.CleanupCarts()
	if err != nil {
		logger.Error("Cart cleanup failed", err)
		return
	}

	logger.Info("Cart cleanup finished", map[string]interface{}{
		"removed_items": removed,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
}
