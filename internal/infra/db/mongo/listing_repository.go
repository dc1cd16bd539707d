package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "basobas/internal/domain/booking"
	domainlistings "basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("agg_listing")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "status", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "deal_type", Value: 1}, {Key: "price_amount", Value: 1}},
	})
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
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
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{"removed": false}
	if opts.OnlyActive {
		filter["status"] = string(domainlistings.StatusActive)
	} else if len(opts.Statuses) > 0 {
		statuses := make([]string, 0, len(opts.Statuses))
		for _, s := range opts.Statuses {
			statuses = append(statuses, string(s))
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	if opts.Owner != "" {
		filter["owner"] = string(opts.Owner)
	}
	if opts.DealType != "" {
		filter["deal_type"] = string(opts.DealType)
	}
	if opts.City != "" {
		filter["address.city"] = bson.M{"$regex": "^" + opts.City + "$", "$options": "i"}
	}
	if opts.LocationQuery != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": opts.LocationQuery, "$options": "i"}},
			bson.M{"address.city": bson.M{"$regex": opts.LocationQuery, "$options": "i"}},
			bson.M{"address.country": bson.M{"$regex": opts.LocationQuery, "$options": "i"}},
		}
	}
	price := bson.M{}
	if opts.PriceMin > 0 {
		price["$gte"] = opts.PriceMin
	}
	if opts.PriceMax > 0 {
		price["$lte"] = opts.PriceMax
	}
	if len(price) > 0 {
		filter["price_amount"] = price
	}
	if opts.MinBedrooms > 0 {
		filter["bedrooms"] = bson.M{"$gte": opts.MinBedrooms}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}

	sortDoc := bson.D{{Key: "created_at", Value: -1}}
	switch opts.Sort {
	case domainlistings.SortByPriceAsc:
		sortDoc = bson.D{{Key: "price_amount", Value: 1}}
	case domainlistings.SortByPriceDesc:
		sortDoc = bson.D{{Key: "price_amount", Value: -1}}
	}

	findOpts := options.Find().
		SetSort(sortDoc).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainlistings.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return domainlistings.SearchResult{}, err
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

type addressDocument struct {
	Line1   string  `bson:"line1"`
	City    string  `bson:"city"`
	Country string  `bson:"country"`
	Lat     float64 `bson:"lat,omitempty"`
	Lon     float64 `bson:"lon,omitempty"`
}

type listingDocument struct {
	ID          string          `bson:"_id"`
	Owner       string          `bson:"owner"`
	Title       string          `bson:"title"`
	Description string          `bson:"description,omitempty"`
	DealType    string          `bson:"deal_type"`
	PriceAmount int64           `bson:"price_amount"`
	Currency    string          `bson:"currency"`
	Address     addressDocument `bson:"address"`
	Bedrooms    int             `bson:"bedrooms,omitempty"`
	Bathrooms   int             `bson:"bathrooms,omitempty"`
	AreaSqM     float64         `bson:"area_sq_m,omitempty"`
	Photos      []string        `bson:"photos,omitempty"`
	Status      string          `bson:"status"`
	AdminLocked bool            `bson:"admin_locked"`
	Removed     bool            `bson:"removed"`
	CreatedAt   int64           `bson:"created_at"`
	UpdatedAt   int64           `bson:"updated_at"`
	Version     int64           `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:          string(l.ID),
		Owner:       string(l.Owner),
		Title:       l.Title,
		Description: l.Description,
		DealType:    string(l.DealType),
		PriceAmount: l.Price.Amount,
		Currency:    l.Price.Currency,
		Address: addressDocument{
			Line1:   l.Address.Line1,
			City:    l.Address.City,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		AreaSqM:     l.AreaSqM,
		Photos:      l.Photos,
		Status:      string(l.Status),
		AdminLocked: l.AdminLocked,
		Removed:     l.Removed,
		CreatedAt:   l.CreatedAt.UnixMilli(),
		UpdatedAt:   l.UpdatedAt.UnixMilli(),
		Version:     l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Owner:       domainlistings.OwnerID(d.Owner),
		Title:       d.Title,
		Description: d.Description,
		DealType:    domainlistings.DealType(d.DealType),
		Price:       money.Money{Amount: d.PriceAmount, Currency: d.Currency},
		Address: domainlistings.Address{
			Line1:   d.Address.Line1,
			City:    d.Address.City,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		AreaSqM:     d.AreaSqM,
		Photos:      d.Photos,
		Status:      domainlistings.Status(d.Status),
		AdminLocked: d.AdminLocked,
		Removed:     d.Removed,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
