// Package jobs runs the periodic maintenance tasks on a seconds-precision
// cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"

	"github.com/nnacademy/academy-api/internal/service"
)

// Sweeper reconciles stale pending checkouts.
type Sweeper interface {
	Sweep(ctx context.Context) (service.SweepResult, error)
}

// TokenPurger deletes refresh tokens that expired before cutoff.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeSpec runs the refresh token cleanup daily at 03:30.
const PurgeSpec = "0 30 3 * * *"

const jobTimeout = 2 * time.Minute

// Manager owns the cron scheduler.
type Manager struct {
	cron      *cron.Cron
	sweeper   Sweeper
	tokens    TokenPurger
	sweepSpec string
	now       func() time.Time
}

func NewManager(sweepSpec string, sweeper Sweeper, tokens TokenPurger) *Manager {
	logger := cron.PrintfLogger(log.New("cron"))
	return &Manager{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper:   sweeper,
		tokens:    tokens,
		sweepSpec: sweepSpec,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the scheduler.  An invalid schedule
// is returned as an error and nothing is started.
func (m *Manager) Start() error {
	if m.sweeper != nil {
		if _, err := m.cron.AddFunc(m.sweepSpec, func() { m.SweepPayments(context.Background()) }); err != nil {
			return fmt.Errorf("schedule payment sweep %q: %w", m.sweepSpec, err)
		}
	}
	if m.tokens != nil {
		if _, err := m.cron.AddFunc(PurgeSpec, func() { m.PurgeTokens(context.Background()) }); err != nil {
			return fmt.Errorf("schedule token purge: %w", err)
		}
	}
	m.cron.Start()
	log.Infof("jobs: started (%d scheduled)", len(m.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) {
	select {
	case <-m.cron.Stop().Done():
		log.Infof("jobs: stopped")
	case <-ctx.Done():
		log.Warnf("jobs: stop timed out")
	}
}

// SweepPayments runs one payment sweep.
func (m *Manager) SweepPayments(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	start := m.now()
	res, err := m.sweeper.Sweep(ctx)
	if err != nil {
		log.Errorf("jobs: payment sweep: %v", err)
		return
	}
	if res.Checked > 0 {
		log.Infof("jobs: payment sweep checked=%d paid=%d expired=%d failed=%d in %s",
			res.Checked, res.Paid, res.Expired, res.Failed, m.now().Sub(start).Round(time.Millisecond))
	}
}

// PurgeTokens removes refresh tokens that expired more than a day ago.
func (m *Manager) PurgeTokens(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	n, err := m.tokens.PurgeExpired(ctx, m.now().Add(-24*time.Hour))
	if err != nil {
		log.Errorf("jobs: token purge: %v", err)
		return
	}
	log.Infof("jobs: purged %d refresh tokens", n)
}
