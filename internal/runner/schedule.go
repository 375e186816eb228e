package runner

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs the digest on the given cron spec in the configured
// timezone until ctx is cancelled. A failed run is logged and the
// schedule continues.
func (r *Runner) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(r.loc))
	id, err := c.AddFunc(spec, func() {
		if err := r.Run(ctx); err != nil {
			r.logger.Error("Digest run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	r.logger.Info("Scheduler started.", "schedule", spec, "next", c.Entry(id).Next)

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("Scheduler stopped.")
	return nil
}
