package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"circulation/config"
	"circulation/internal/domain/lifecycle"
	"circulation/internal/usecase"

	"go.uber.org/fx"
)

// OverdueCheckerParams holds dependencies for the overdue checker, injected by Fx.
type OverdueCheckerParams struct {
	fx.In

	Lc            fx.Lifecycle
	Cfg           *config.Config
	Notifications usecase.NotificationUsecase
	Logger        *slog.Logger
}

// OverdueChecker periodically writes DUE_SOON and OVERDUE reminders.
type OverdueChecker struct {
	notifications usecase.NotificationUsecase
	interval      time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewOverdueChecker creates the job and ties it to the application lifecycle.
func NewOverdueChecker(params OverdueCheckerParams) *OverdueChecker {
	interval := time.Duration(0)
	if params.Cfg.Jobs != nil {
		interval = params.Cfg.Jobs.OverdueCheckInterval
	}
	checker := New(params.Notifications, interval, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			checker.Start()

			return nil
		},
		OnStop: func(context.Context) error {
			checker.Stop()

			return nil
		},
	})

	return checker
}

// New creates an unstarted checker. A non-positive interval means hourly.
func New(notifications usecase.NotificationUsecase, interval time.Duration, logger *slog.Logger) *OverdueChecker {
	if interval <= 0 {
		interval = time.Hour
	}

	return &OverdueChecker{
		notifications: notifications,
		interval:      interval,
		logger:        logger,
	}
}

// Start runs one scan immediately and then one per interval.
func (c *OverdueChecker) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})

	c.wg.Add(1)
	go c.run(c.stopCh)
	c.logger.Info("Overdue checker started", slog.Duration("interval", c.interval))
}

// Stop ends the loop and waits for an in-flight scan.
func (c *OverdueChecker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()

		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("Overdue checker stopped")
}

// IsRunning reports whether the loop is active.
func (c *OverdueChecker) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// RunOnce performs a single scan.
func (c *OverdueChecker) RunOnce(ctx context.Context) (*usecase.OverdueCheckResult, error) {
	return c.notifications.CheckOverdue(ctx)
}

func (c *OverdueChecker) run(stopCh <-chan struct{}) {
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	c.scan(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.scan(ctx)
		case <-stopCh:
			return
		}
	}
}

func (c *OverdueChecker) scan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	result, err := c.RunOnce(scanCtx)
	if err != nil {
		c.logger.Error("Overdue check failed", slog.Any("error", err))

		return
	}
	if result.Skipped {
		c.logger.Debug("Overdue check disabled by settings")

		return
	}

	c.logger.Info("Overdue check finished",
		slog.Int("scanned", result.Scanned),
		slog.Int("dueSoon", result.DueSoon),
		slog.Int("overdue", result.Overdue),
	)
}
