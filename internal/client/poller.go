package client

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"circulation/internal/domain/entity"
	"circulation/internal/errors"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPollJitter   = 5 * time.Second
)

// ErrInvalidPollInterval is returned when the poll interval is not positive.
var ErrInvalidPollInterval = errors.New("poll interval must be positive")

// StatusChecker is the call the poller repeats. *Session implements it.
type StatusChecker interface {
	CheckStatus(ctx context.Context) (*entity.User, error)
}

// StatusPoller calls CHECK_USER_STATUS every interval plus a random jitter
// in [0, jitter). A forced logout is noticed within interval + jitter plus
// one round trip.
type StatusPoller struct {
	checker  StatusChecker
	interval time.Duration
	jitter   time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	onStatus func(*entity.User)
}

// PollerOption configures a StatusPoller.
type PollerOption func(*StatusPoller) error

// WithInterval sets the base delay between checks.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *StatusPoller) error {
		if interval <= 0 {
			return ErrInvalidPollInterval
		}
		p.interval = interval

		return nil
	}
}

// WithJitter sets the upper bound of the random delay added to each
// interval. Zero disables jitter.
func WithJitter(jitter time.Duration) PollerOption {
	return func(p *StatusPoller) error {
		p.jitter = max(jitter, 0)

		return nil
	}
}

// WithCheckTimeout bounds a single check.
func WithCheckTimeout(timeout time.Duration) PollerOption {
	return func(p *StatusPoller) error {
		p.timeout = timeout

		return nil
	}
}

// WithLogger sets the logger for transport errors.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *StatusPoller) error {
		p.logger = logger

		return nil
	}
}

// WithStatusHandler is called after every successful check.
func WithStatusHandler(fn func(*entity.User)) PollerOption {
	return func(p *StatusPoller) error {
		p.onStatus = fn

		return nil
	}
}

// NewStatusPoller creates a poller for checker.
func NewStatusPoller(checker StatusChecker, options ...PollerOption) (*StatusPoller, error) {
	p := &StatusPoller{
		checker:  checker,
		interval: defaultPollInterval,
		jitter:   defaultPollJitter,
		logger:   slog.Default(),
	}
	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run polls until ctx ends or the server forces a logout. It returns an
// error wrapping ErrForcedLogout in the second case and nil in the first.
// Other failures are logged and polling continues.
func (p *StatusPoller) Run(ctx context.Context) error {
	timer := time.NewTimer(p.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := p.check(ctx); err != nil {
			return err
		}
		timer.Reset(p.nextDelay())
	}
}

func (p *StatusPoller) check(ctx context.Context) error {
	checkCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	user, err := p.checker.CheckStatus(checkCtx)
	switch {
	case err == nil:
		if p.onStatus != nil {
			p.onStatus(user)
		}
	case errors.Is(err, ErrForcedLogout):
		return err
	case ctx.Err() != nil:
		return nil
	default:
		p.logger.Warn("Status check failed", slog.Any("error", err))
	}

	return nil
}

func (p *StatusPoller) nextDelay() time.Duration {
	if p.jitter <= 0 {
		return p.interval
	}

	return p.interval + rand.N(p.jitter) //nolint:gosec // jitter does not need a secure source
}
