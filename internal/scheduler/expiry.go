package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/suteetoe/commerce-directory/prometheus"
	"go.uber.org/zap"
)

// OwnerExpirer clears the fee flag of owners whose payments lapsed before now
type OwnerExpirer interface {
	ExpireLapsedOwners(ctx context.Context, now time.Time) (int64, error)
}

// ExpirySweep keeps monthly_fee_paid in step with payment expiry dates
type ExpirySweep struct {
	owners  OwnerExpirer
	now     func() time.Time
	timeout time.Duration
	log     *zap.Logger
}

func NewExpirySweep(owners OwnerExpirer, log *zap.Logger) *ExpirySweep {
	return &ExpirySweep{owners: owners, now: time.Now, timeout: time.Minute, log: log}
}

// Run performs one sweep and returns the number of owners that lost their listing
func (s *ExpirySweep) Run(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.owners.ExpireLapsedOwners(ctx, s.now())
	if err != nil {
		s.log.Error("Expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		prometheus.ExpiredOwnersCounter.Add(float64(n))
	}
	s.log.Info("Expiry sweep completed", zap.Int64("expired_owners", n))
	return n, nil
}

// Start schedules the sweep with a cron spec such as "@every 1h" and starts
// the cron runner. Stop the returned cron to end the schedule.
func Start(spec string, sweep *ExpirySweep) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		_, _ = sweep.Run(context.Background())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
