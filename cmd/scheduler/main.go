package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/segyhp/session-payment-engine/internal/config"
	"github.com/segyhp/session-payment-engine/internal/logging"
	"github.com/segyhp/session-payment-engine/internal/repository"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	logger.Info("starting correction scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	jobs := &correctionJobs{
		repo:          repository.NewCorrectionRepository(db),
		logger:        logger,
		retentionDays: cfg.Scheduler.CorrectionRetentionDays,
		now:           time.Now,
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.GetLocation()))

	// Schedule tasks
	if err := setupCronJobs(c, cfg, jobs); err != nil {
		logger.Error("failed to schedule jobs", "err", err)
		os.Exit(1)
	}

	// Start the scheduler
	c.Start()
	logger.Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, jobs *correctionJobs) error {
	// Summary of upstream inconsistencies seen over the last day
	if _, err := c.AddFunc(cfg.Scheduler.ReportSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		jobs.report(ctx)
	}); err != nil {
		return err
	}

	// Retention
	if _, err := c.AddFunc(cfg.Scheduler.PruneSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		jobs.prune(ctx)
	}); err != nil {
		return err
	}

	return nil
}

type correctionJobs struct {
	repo          repository.CorrectionRepository
	logger        *slog.Logger
	retentionDays int
	now           func() time.Time
}

// report logs how many remaining balances were corrected in the last 24 hours,
// per record kind.
func (j *correctionJobs) report(ctx context.Context) {
	since := j.now().Add(-24 * time.Hour)

	counts, err := j.repo.CountSince(ctx, since)
	if err != nil {
		j.logger.Error("correction report failed", "err", err)
		return
	}

	var total int64
	for _, c := range counts {
		total += c.Count
		j.logger.Info("corrections in the last 24h", "record_kind", c.RecordKind, "count", c.Count)
	}
	if total > 0 {
		j.logger.Warn("backend reported inconsistent remaining balances", "total", total)
	}
}

func (j *correctionJobs) prune(ctx context.Context) {
	before := j.now().AddDate(0, 0, -j.retentionDays)

	deleted, err := j.repo.DeleteBefore(ctx, before)
	if err != nil {
		j.logger.Error("correction pruning failed", "err", err)
		return
	}
	j.logger.Info("pruned corrections", "deleted", deleted, "before", before.Format(time.RFC3339))
}
