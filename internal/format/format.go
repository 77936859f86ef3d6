// Package format renders market numbers for display.
package format

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats a USD amount with digit grouping and at least two
// fraction digits. Callers pass maxFrac 6 for sub-dollar prices, 2 otherwise.
func Currency(v float64, maxFrac int) string {
	if maxFrac < 2 {
		maxFrac = 2
	}
	return printer.Sprintf("$%v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(maxFrac),
	))
}

// Percentage renders a 24h change value; nil means the API had no data.
func Percentage(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// MarketCap renders a market cap in trillions/billions/millions, grouped
// plainly below a million.
func MarketCap(v *float64) string {
	if v == nil {
		return "N/A"
	}
	switch val := *v; {
	case val >= 1_000_000_000_000:
		return fmt.Sprintf("$%.2fT", val/1_000_000_000_000)
	case val >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", val/1_000_000_000)
	case val >= 1_000_000:
		return fmt.Sprintf("$%.2fM", val/1_000_000)
	default:
		return printer.Sprintf("$%v", number.Decimal(val, number.MaxFractionDigits(2)))
	}
}
