package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "basobas/internal/domain/booking"
	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save is a conditional upsert keyed on the loaded version. A mismatch means
// another writer committed first.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConflict
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConflict
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"user_id": userID}, 0)
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"listing_id": string(listingID)}, 0)
}

func (r *BookingRepository) ActiveForUser(ctx context.Context, userID string, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"user_id":    userID,
		"listing_id": string(listingID),
		"status":     bson.M{"$in": []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}},
	}
	return r.find(ctx, filter, 0)
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":     string(domainbooking.StatusPending),
		"expires_at": bson.M{"$lte": now.UTC().UnixMilli()},
	}
	return r.find(ctx, filter, int64(limit))
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, limit int64) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	out := make([]*domainbooking.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID            string `bson:"_id"`
	ListingID     string `bson:"listing_id"`
	UserID        string `bson:"user_id"`
	DealType      string `bson:"deal_type"`
	TermStart     int64  `bson:"term_start,omitempty"`
	TermEnd       int64  `bson:"term_end,omitempty"`
	DurationDays  int    `bson:"duration_days"`
	TotalAmount   int64  `bson:"total_amount"`
	Currency      string `bson:"currency"`
	Status        string `bson:"status"`
	ExpiresAt     int64  `bson:"expires_at"`
	PaymentStatus string `bson:"payment_status"`
	PaymentRef    string `bson:"payment_ref,omitempty"`
	CreatedAt     int64  `bson:"created_at"`
	UpdatedAt     int64  `bson:"updated_at"`
	Version       int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		UserID:        b.UserID,
		DealType:      string(b.DealType),
		DurationDays:  b.DurationDays,
		TotalAmount:   b.Total.Amount,
		Currency:      b.Total.Currency,
		Status:        string(b.Status),
		ExpiresAt:     b.ExpiresAt.UnixMilli(),
		PaymentStatus: string(b.PaymentStatus),
		PaymentRef:    b.PaymentRef,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
	if !b.Term.IsZero() {
		doc.TermStart = b.Term.Start.UnixMilli()
		doc.TermEnd = b.Term.End.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		ListingID:     listings.ListingID(d.ListingID),
		UserID:        d.UserID,
		DealType:      listings.DealType(d.DealType),
		DurationDays:  d.DurationDays,
		Total:         money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		Status:        domainbooking.Status(d.Status),
		ExpiresAt:     timestampToTime(d.ExpiresAt),
		PaymentStatus: domainbooking.PaymentStatus(d.PaymentStatus),
		PaymentRef:    d.PaymentRef,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
	if d.TermStart != 0 {
		b.Term = domainbooking.Term{Start: timestampToTime(d.TermStart), End: timestampToTime(d.TermEnd)}
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
