// Package exchange fetches and formats currency exchange rates for the
// relay's exchange command and the rates CLI.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format the rate API expects (dd.mm.yyyy).
const DateLayout = "02.01.2006"

// DefaultCurrencies are the currency codes reported when no explicit list is
// requested.
var DefaultCurrencies = []string{"USD", "EUR"}

// RateEntry holds the buy/sell rates for a single currency on one date.
// Rates use a precise decimal type rather than floats.
type RateEntry struct {
	Currency string          `json:"currency"`
	Purchase decimal.Decimal `json:"purchaseRate"`
	Sale     decimal.Decimal `json:"saleRate"`
}

// RateSheet is one provider snapshot: all known rates for a single date.
type RateSheet struct {
	Date    string      `json:"date"`
	Entries []RateEntry `json:"exchangeRate"`
}

// Entry returns the first entry for the given currency code, or nil when the
// sheet has no data for it.
func (s *RateSheet) Entry(currency string) *RateEntry {
	for i := range s.Entries {
		if s.Entries[i].Currency == currency {
			return &s.Entries[i]
		}
	}
	return nil
}

// RateProvider supplies a rate sheet for a calendar date formatted as
// DateLayout. Implementations may be slow and may fail per call; callers
// treat each date independently.
type RateProvider interface {
	Fetch(ctx context.Context, date string) (*RateSheet, error)
}
