package annotate

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// currencySymbols covers the currencies seen across the donor catalog;
// anything else falls back to the ISO code prefix.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"KES": "KSh",
	"NGN": "₦",
	"ZAR": "R",
}

// FormatCurrency renders a funding range for display. Both bounds absent
// means the amount is unspecified; equal bounds render as a single value.
// Amounts use locale-aware grouping with zero fraction digits.
func FormatCurrency(min, max *float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}

	switch {
	case min == nil && max == nil:
		return "Amount not specified"
	case min != nil && max != nil && *min == *max:
		return formatAmount(*min, currency)
	case min != nil && max != nil:
		return fmt.Sprintf("%s - %s", formatAmount(*min, currency), formatAmount(*max, currency))
	case min != nil:
		return "From " + formatAmount(*min, currency)
	default:
		return "Up to " + formatAmount(*max, currency)
	}
}

func formatAmount(v float64, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	return symbol + currencyPrinter.Sprintf("%v", number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}
