package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"basobas/internal/app/commands"
	"basobas/internal/app/middleware"
	"basobas/internal/app/outbox"
	"basobas/internal/app/uow"
	domainbooking "basobas/internal/domain/booking"
)

const decideBookingKey = "booking.decide"

// Action is the owner/guest decision applied to a booking.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
)

var ErrUnknownAction = errors.New("booking: unknown action")

type DecideBookingCommand struct {
	BookingID       string
	ActorID         string
	Action          Action
	IdempotencyKeyV string
}

func (c DecideBookingCommand) Key() string { return decideBookingKey }

func (c DecideBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c DecideBookingCommand) ResultPrototype() any { return &DecideBookingResult{} }

type DecideBookingResult struct {
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
	ListingStatus string `json:"listing_status"`
}

// DecideBookingHandler is the single transition path for bookings. Confirming
// mirrors the decision onto the listing (rented/sold) and cancelling a
// confirmed booking releases it; both writes share the unit of work.
type DecideBookingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *DecideBookingHandler) Handle(ctx context.Context, cmd DecideBookingCommand) (*DecideBookingResult, error) {
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return nil, domainbooking.ErrOwnershipConflict
	}

	unit, ctx, commit, rollback, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer rollback()

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, bk.ListingID)
	if err != nil {
		return nil, err
	}

	var party domainbooking.Party
	switch actorID {
	case string(listing.Owner):
		party = domainbooking.PartyOwner
	case bk.UserID:
		party = domainbooking.PartyUser
	default:
		return nil, domainbooking.ErrOwnershipConflict
	}

	now := h.now()
	listingTouched := false
	switch cmd.Action {
	case ActionConfirm:
		if err := bk.Confirm(party, now); err != nil {
			return nil, err
		}
		if err := listing.MarkBooked(now); err != nil {
			return nil, err
		}
		listingTouched = true
	case ActionCancel:
		wasConfirmed, err := bk.Cancel(party, now)
		if err != nil {
			return nil, err
		}
		if wasConfirmed {
			if err := listing.Release(now); err != nil {
				return nil, err
			}
			listingTouched = true
		}
	default:
		return nil, ErrUnknownAction
	}

	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}
	if listingTouched {
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &bk.EventRecorder); err != nil {
		return nil, err
	}
	if err := outbox.DrainRecorder(ctx, h.Outbox, h.Encoder, &listing.EventRecorder); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking decision applied",
			"booking_id", bk.ID, "action", cmd.Action, "actor", actorID,
			"booking_status", bk.Status, "listing_status", listing.Status)
	}

	return &DecideBookingResult{
		BookingID:     string(bk.ID),
		BookingStatus: string(bk.Status),
		ListingStatus: string(listing.Status),
	}, nil
}

func (h *DecideBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[DecideBookingCommand, *DecideBookingResult] = (*DecideBookingHandler)(nil)
var _ middleware.IdempotentCommand = DecideBookingCommand{}
