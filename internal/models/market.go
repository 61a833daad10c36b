package models

// Market keys understood by the feed.
const (
	MarketMoneyline = "h2h"
	MarketSpread    = "spreads"
	MarketTotals    = "totals"
)

// MarketKeys lists the selectable markets in menu order.
var MarketKeys = []string{MarketMoneyline, MarketSpread, MarketTotals}

// MarketKind classifies a market key. Keys the bot does not know map to KindUnknown.
type MarketKind int

const (
	KindUnknown MarketKind = iota
	KindMoneyline
	KindSpread
	KindTotals
)

// KindOf returns the kind for a market key.
func KindOf(key string) MarketKind {
	switch key {
	case MarketMoneyline:
		return KindMoneyline
	case MarketSpread:
		return KindSpread
	case MarketTotals:
		return KindTotals
	default:
		return KindUnknown
	}
}

func (k MarketKind) String() string {
	switch k {
	case KindMoneyline:
		return "moneyline"
	case KindSpread:
		return "spread"
	case KindTotals:
		return "totals"
	default:
		return "unknown"
	}
}

// Totals outcome names.
const (
	OutcomeOver  = "Over"
	OutcomeUnder = "Under"
)

// LineEntry is one bookmaker's quote for one outcome of the selected market, flattened out of
// the nested payload. It only lives for the duration of a single render.
type LineEntry struct {
	Book     string
	Name     string
	Price    Price
	American string
	Point    *float64
}
