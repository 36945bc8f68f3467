// Package retention purges interaction history older than the configured
// period on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"streamflow/pkg/config"
	"streamflow/pkg/logger"
	"streamflow/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult) (context.CancelFunc, error) {
	ret := eff.Config.Retention

	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	if ret.Period.Duration() <= 0 {
		return nil, fmt.Errorf("retention enabled but no period configured")
	}

	// map empty cron to default daily @02:00
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", ret.Period.Duration().String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, ret, cronExpr)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, ret config.RetentionConfig, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(ctx, ret); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce purges interactions older than the configured period in batches,
// sleeping between batches to keep write amplification low.
func RunOnce(ctx context.Context, ret config.RetentionConfig) error {
	cutoff := time.Now().UTC().Add(-ret.Period.Duration())
	total := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := store.PurgeInteractionsBefore(cutoff, ret.BatchSize, ret.DryRun)
		if err != nil {
			return err
		}
		total += n
		if n < ret.BatchSize {
			break
		}
		if ret.BatchSleepMs > 0 {
			select {
			case <-time.After(time.Duration(ret.BatchSleepMs) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	logger.Info("retention_run_complete", "purged", total, "cutoff", cutoff.Format(time.RFC3339), "dry_run", ret.DryRun)
	return nil
}
