package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basobas/internal/domain/listings"
	"basobas/internal/domain/shared/money"
)

func TestRentTotalProRatesByDay(t *testing.T) {
	cases := []struct {
		name string
		rate int64
		days int
		want int64
	}{
		{"exactly one period", 30000, 30, 30000},
		{"thirty five days", 30000, 35, 35000},
		{"sixty days", 30000, 60, 60000},
		{"below minimum charges minimum", 30000, 10, 30000},
		{"forty five days", 90000, 45, 135000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RentTotal(money.NPR(tc.rate), tc.days)
			assert.Equal(t, tc.want, got.Amount)
			assert.Equal(t, money.DefaultCurrency, got.Currency)
		})
	}
}

func TestQuoteTotalSaleIsFlatPrice(t *testing.T) {
	listing := &listings.Listing{DealType: listings.DealSale, Price: money.NPR(7_500_000_00)}
	got := QuoteTotal(listing, Term{})
	assert.Equal(t, int64(7_500_000_00), got.Amount)
}

func TestQuoteTotalRentUsesTermDuration(t *testing.T) {
	listing := &listings.Listing{DealType: listings.DealRent, Price: money.NPR(30000)}
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	term, err := NewTerm(start, start.Add(35*24*time.Hour))
	require.NoError(t, err)

	got := QuoteTotal(listing, term)
	assert.Equal(t, int64(35000), got.Amount)
}

func TestTermDurationDaysRoundsUp(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	term, err := NewTerm(start, start.Add(30*24*time.Hour+time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 31, term.DurationDays())
}

func TestNewTermRejectsInvertedDates(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewTerm(start, start)
	assert.ErrorIs(t, err, ErrTermOrder)

	_, err = NewTerm(start, start.Add(-24*time.Hour))
	assert.ErrorIs(t, err, ErrTermOrder)
}
