package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"basobas/internal/app/dto"
	handlersupport "basobas/internal/app/handlers/support"
	"basobas/internal/app/queries"
	"basobas/internal/app/uow"
	domainlistings "basobas/internal/domain/listings"
)

const (
	listUserBookingsKey  = "booking.list_user"
	listOwnerBookingsKey = "booking.list_owner"

	defaultOwnerListLimit = 60
	allStatusesFilter     = "all"
)

type ListUserBookingsQuery struct {
	UserID string
}

func (q ListUserBookingsQuery) Key() string { return listUserBookingsKey }

type ListUserBookingsHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListUserBookingsHandler) Handle(ctx context.Context, q ListUserBookingsQuery) (dto.BookingCollection, error) {
	userID := strings.TrimSpace(q.UserID)
	if userID == "" {
		return dto.BookingCollection{}, errors.New("user id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByUser(execCtx, userID)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	now := h.now()
	out := make([]dto.BookingView, 0, len(items))
	for _, bk := range items {
		out = append(out, dto.MapBookingView(bk, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return dto.BookingCollection{Items: out}, nil
}

func (h *ListUserBookingsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

type ListOwnerBookingsQuery struct {
	OwnerID string
	Status  string
}

func (q ListOwnerBookingsQuery) Key() string { return listOwnerBookingsKey }

type ListOwnerBookingsHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListOwnerBookingsHandler) Handle(ctx context.Context, q ListOwnerBookingsQuery) (dto.OwnerBookingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.OwnerBookingCollection{}, errors.New("owner id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OwnerBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	owned, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		Owner: domainlistings.OwnerID(ownerID),
		Limit: defaultOwnerListLimit,
	})
	if err != nil {
		return dto.OwnerBookingCollection{}, err
	}

	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	all := statusFilter == "" || statusFilter == allStatusesFilter

	now := h.now()
	items := make([]dto.OwnerBookingView, 0)
	for _, listing := range owned.Items {
		bks, err := unit.Bookings().ListByListing(execCtx, listing.ID)
		if err != nil {
			return dto.OwnerBookingCollection{}, err
		}
		for _, bk := range bks {
			if !all && string(bk.EffectiveStatus(now)) != statusFilter {
				continue
			}
			items = append(items, dto.MapOwnerBookingView(bk, listing, now))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	if h.Logger != nil {
		h.Logger.Debug("owner bookings listed", "owner_id", ownerID, "count", len(items), "status", statusFilter)
	}
	return dto.OwnerBookingCollection{Items: items}, nil
}

func (h *ListOwnerBookingsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[ListUserBookingsQuery, dto.BookingCollection] = (*ListUserBookingsHandler)(nil)
var _ queries.Handler[ListOwnerBookingsQuery, dto.OwnerBookingCollection] = (*ListOwnerBookingsHandler)(nil)
