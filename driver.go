package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/espwifi/esp"
	"i4.energy/across/espwifi/wifidb"
)

// Job runs on the driver goroutine with exclusive access to the client.
type Job func(ctx context.Context, c *esp.Client) error

// jobRequest carries a Job to the Loop and its result back.
type jobRequest struct {
	ctx  context.Context
	job  Job
	done chan error
}

// Driver serializes all access to an esp.Client. The client is not safe for
// concurrent use, so HTTP handlers submit jobs instead of touching it.
type Driver struct {
	client   *esp.Client
	logger   *slog.Logger
	interval time.Duration
	jobs     chan *jobRequest

	// OnStateChange is called on the driver goroutine whenever the link
	// state differs from the one seen last. It must not block.
	OnStateChange func(state esp.NetworkState)
}

func NewDriver(client *esp.Client, logger *slog.Logger, interval time.Duration) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{
		client:   client,
		logger:   logger,
		interval: interval,
		jobs:     make(chan *jobRequest),
	}
}

// Loop ticks the client and runs submitted jobs until ctx is cancelled. While
// idle it keeps ticking so status lines reported by the module are applied.
func (d *Driver) Loop(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	state := d.client.State()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-d.jobs:
			req.done <- req.job(req.ctx, d.client)
		case <-ticker.C:
			d.client.Tick()
		}

		if now := d.client.State(); now != state {
			d.logger.Info("Link state changed", "from", state, "to", now)
			if d.OnStateChange != nil {
				d.OnStateChange(now)
			}
			state = now
		}
	}
}

// Do submits job and waits for its result.
func (d *Driver) Do(ctx context.Context, job Job) error {
	req := &jobRequest{
		ctx:  ctx,
		job:  job,
		done: make(chan error, 1),
	}

	select {
	case d.jobs <- req:
	case <-ctx.Done():
		return fmt.Errorf("job cancelled before start: %w", ctx.Err())
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("job: %w", ctx.Err())
	}
}

// Run waits until the client accepts a command, issues it and waits for its
// result. A command left in flight by an earlier cancelled job is drained
// first and its result is only logged.
func Run(ctx context.Context, logger *slog.Logger, c *esp.Client, issue func() error) error {
	if !c.Ready() {
		if err := c.Wait(ctx); err != nil {
			if !c.Ready() {
				return err
			}
			logger.Debug("Discarded result of earlier command", "error", err)
		}
	}
	if err := issue(); err != nil {
		return err
	}
	return c.Wait(ctx)
}

// Setup selects the WiFi mode and re-joins the saved access point, if any.
func Setup(logger *slog.Logger, mode esp.Mode, db *wifidb.DB) Job {
	return func(ctx context.Context, c *esp.Client) error {
		if err := Run(ctx, logger, c, func() error { return c.SetMode(mode) }); err != nil {
			return fmt.Errorf("set wifi mode: %w", err)
		}
		if err := Run(ctx, logger, c, func() error { return c.ScanNetworksOptions(true) }); err != nil {
			return fmt.Errorf("set scan options: %w", err)
		}

		creds, err := db.Credentials()
		if errors.Is(err, wifidb.ErrNoCredentials) {
			logger.Info("No saved access point")
			return nil
		}
		if err != nil {
			return err
		}

		logger.Info("Joining saved access point", "ssid", creds.SSID)
		if err := Run(ctx, logger, c, func() error { return c.Connect(creds.SSID, creds.Password) }); err != nil {
			return fmt.Errorf("join %q: %w", creds.SSID, err)
		}
		return nil
	}
}
