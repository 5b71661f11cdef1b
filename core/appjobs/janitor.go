// Package appjobs runs the background maintenance jobs of the service.
package appjobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"portfolio-admin/config"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
)

// Janitor prunes expired audit records on a cron schedule.
type Janitor struct {
	cron   *cron.Cron
	audits store.AuditStore
	cfg    config.AuditConfig
	logger *utils.Logger
}

func NewJanitor(audits store.AuditStore, cfg config.AuditConfig, logger *utils.Logger) *Janitor {
	return &Janitor{
		cron:   cron.New(),
		audits: audits,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the prune job and begins the scheduler. A retention of
// zero days disables pruning entirely.
func (j *Janitor) Start() error {
	if j.cfg.RetentionDays <= 0 {
		j.logger.Printf("janitor: audit retention disabled, nothing scheduled")
		return nil
	}
	if _, err := j.cron.AddFunc(j.cfg.PruneSchedule, j.pruneAudit); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Printf("janitor: audit prune scheduled (%s, retention %d days)", j.cfg.PruneSchedule, j.cfg.RetentionDays)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		j.logger.Errorf("janitor: timed out waiting for running job")
	}
}

func (j *Janitor) pruneAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.RetentionDays)
	removed, err := j.audits.PruneBefore(ctx, cutoff)
	if err != nil {
		j.logger.Errorf("janitor: audit prune failed: %v", err)
		return
	}
	if removed > 0 {
		j.logger.Printf("janitor: pruned %d audit records older than %s", removed, cutoff.Format(time.RFC3339))
	}
}
