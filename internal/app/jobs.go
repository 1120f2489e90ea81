package app

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// runJobs sweeps expired seat holds and retries loyalty credits until ctx is cancelled.
func (app *Application) runJobs(ctx context.Context) error {
	s, err := gocron.NewScheduler(gocron.WithLocation(app.config.Location))
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(app.config.Hold.SweepInterval),
		gocron.NewTask(func() { app.expireStaleHolds(ctx) }),
		gocron.WithName("expire-stale-holds"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(app.config.Hold.CreditRetryInterval),
		gocron.NewTask(func() { app.retryPointCredits(ctx) }),
		gocron.WithName("retry-point-credits"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.Start()
	app.logger.Info("background jobs started",
		"hold_sweep_interval", app.config.Hold.SweepInterval,
		"credit_retry_interval", app.config.Hold.CreditRetryInterval)

	<-ctx.Done()

	return s.Shutdown()
}

func (app *Application) expireStaleHolds(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := app.bookings.ExpireStaleHolds(ctx)
	if err != nil {
		app.logger.Error("expiring stale holds", "error", err)
		return
	}

	if n > 0 {
		app.logger.Info("expired stale holds", "count", n)
	}
}

func (app *Application) retryPointCredits(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := app.bookings.RetryPendingPointCredits(ctx)
	if err != nil {
		app.logger.Error("retrying point credits", "error", err)
		return
	}

	if n > 0 {
		app.logger.Info("credited pending points", "count", n)
	}
}
