package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/outbox"
	"basobas/internal/app/uow"
	domainbooking "basobas/internal/domain/booking"
)

const expireBookingsKey = "booking.expire_pending"

const defaultExpireBatch = 100

type ExpirePendingCommand struct {
	Limit int
}

func (c ExpirePendingCommand) Key() string { return expireBookingsKey }

type ExpirePendingResult struct {
	Expired int `json:"expired"`
}

// ExpirePendingHandler persists the pending→expired transition for overdue
// bookings. Saves go through the conditional repository write, so a booking
// confirmed concurrently is skipped rather than clobbered.
type ExpirePendingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ExpirePendingHandler) Handle(ctx context.Context, cmd ExpirePendingCommand) (*ExpirePendingResult, error) {
	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultExpireBatch
	}
	now := h.now()

	overdue, err := unit.Bookings().ListExpiredPending(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	expired := 0
	for _, bk := range overdue {
		if err := bk.MarkExpired(now); err != nil {
			continue
		}
		if err := unit.Bookings().Save(ctx, bk); err != nil {
			if errors.Is(err, domainbooking.ErrConflict) {
				// lost the race against a confirm/cancel; leave it be
				if h.Logger != nil {
					h.Logger.Debug("expiry skipped, booking changed underneath", "booking_id", bk.ID)
				}
				continue
			}
			return nil, err
		}
		if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &bk.EventRecorder); err != nil {
			return nil, err
		}
		expired++
	}

	if err := commit(); err != nil {
		return nil, err
	}
	if expired > 0 && h.Logger != nil {
		h.Logger.Info("pending bookings expired", "count", expired)
	}
	return &ExpirePendingResult{Expired: expired}, nil
}

func (h *ExpirePendingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ExpirePendingCommand, *ExpirePendingResult] = (*ExpirePendingHandler)(nil)
