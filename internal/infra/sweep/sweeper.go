package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"basobas/internal/app/commands"
	bookinghandlers "basobas/internal/app/handlers/booking"
)

var ErrSweeperNotConfigured = errors.New("sweep: command bus required")

// Sweeper periodically persists the pending-to-expired transition for overdue
// bookings. Reads already treat overdue pendings as expired; the sweeper makes
// that durable and emits the expiry events.
type Sweeper struct {
	Bus      commands.Bus
	Interval time.Duration
	Batch    int
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Bus == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	result, err := commands.Dispatch[bookinghandlers.ExpirePendingCommand, *bookinghandlers.ExpirePendingResult](
		ctx, s.Bus, bookinghandlers.ExpirePendingCommand{Limit: s.Batch})
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("expiry sweep failed", "error", err)
		}
		return
	}
	if result != nil && result.Expired > 0 && s.Logger != nil {
		s.Logger.Info("expiry sweep", "expired", result.Expired)
	}
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return time.Minute
}
