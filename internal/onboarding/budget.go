package onboarding

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// BudgetTier is a predefined annual tuition range.
type BudgetTier struct {
	ID  string `json:"id"`
	Min int64  `json:"min"`
	Max int64  `json:"max"`
}

// Currency is a supported budget currency and its tiers.
type Currency struct {
	Code   string       `json:"code"`
	Symbol string       `json:"symbol"`
	Tiers  []BudgetTier `json:"tiers"`
}

// MaxBudget bounds custom entries (in major currency units).
const MaxBudget int64 = 100_000_000

var currencies = []Currency{
	{"USD", "$", []BudgetTier{
		{"low", 0, 10_000}, {"mid", 10_000, 25_000}, {"high", 25_000, 50_000}, {"premium", 50_000, 100_000},
	}},
	{"INR", "₹", []BudgetTier{
		{"low", 0, 500_000}, {"mid", 500_000, 1_500_000}, {"high", 1_500_000, 3_000_000}, {"premium", 3_000_000, 6_000_000},
	}},
	{"EUR", "€", []BudgetTier{
		{"low", 0, 5_000}, {"mid", 5_000, 15_000}, {"high", 15_000, 30_000}, {"premium", 30_000, 60_000},
	}},
	{"GBP", "£", []BudgetTier{
		{"low", 0, 10_000}, {"mid", 10_000, 20_000}, {"high", 20_000, 35_000}, {"premium", 35_000, 60_000},
	}},
}

// Currencies returns the supported currencies with their tiers.
func Currencies() []Currency { return currencies }

func lookupCurrency(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// TierBudget returns the preference for a predefined tier.
func TierBudget(code, tierID string) (*domain.BudgetPreference, error) {
	cur, ok := lookupCurrency(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	for _, t := range cur.Tiers {
		if t.ID == tierID {
			return &domain.BudgetPreference{
				CurrencyCode: cur.Code,
				Min:          t.Min,
				Max:          t.Max,
				Label:        rangeLabel(cur, t.Min, t.Max),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tierID)
}

// CustomBudget returns a user-entered preference. An inverted range is
// swapped so that Min <= Max always holds.
func CustomBudget(code string, lo, hi int64) (*domain.BudgetPreference, error) {
	cur, ok := lookupCurrency(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	if lo < 0 || hi < 0 || lo > MaxBudget || hi > MaxBudget {
		return nil, fmt.Errorf("%w: budget must be between 0 and %d", ErrInvalidBudget, MaxBudget)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return &domain.BudgetPreference{
		CurrencyCode: cur.Code,
		Min:          lo,
		Max:          hi,
		Label:        rangeLabel(cur, lo, hi),
		IsCustom:     true,
	}, nil
}

func rangeLabel(cur Currency, lo, hi int64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s%d - %s%d", cur.Symbol, lo, cur.Symbol, hi)
}
