package listings

import "time"

type ListingCreated struct {
	ListingID ListingID
	Owner     OwnerID
	DealType  DealType
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingStatusChanged struct {
	ListingID ListingID
	From      Status
	To        Status
	At        time.Time
}

func (e ListingStatusChanged) EventName() string     { return "listing.status_changed" }
func (e ListingStatusChanged) AggregateID() string   { return string(e.ListingID) }
func (e ListingStatusChanged) OccurredAt() time.Time { return e.At }

type ListingLockChanged struct {
	ListingID ListingID
	Locked    bool
	At        time.Time
}

func (e ListingLockChanged) EventName() string     { return "listing.lock_changed" }
func (e ListingLockChanged) AggregateID() string   { return string(e.ListingID) }
func (e ListingLockChanged) OccurredAt() time.Time { return e.At }

type ListingUpdated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdated) EventName() string     { return "listing.updated" }
func (e ListingUpdated) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdated) OccurredAt() time.Time { return e.At }

type ListingRemoved struct {
	ListingID ListingID
	Owner     OwnerID
	At        time.Time
}

func (e ListingRemoved) EventName() string     { return "listing.removed" }
func (e ListingRemoved) AggregateID() string   { return string(e.ListingID) }
func (e ListingRemoved) OccurredAt() time.Time { return e.At }
