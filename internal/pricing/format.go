package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

// Format renders an amount as a display string with the store currency,
// grouped and without decimal places (rupiah has no practical minor unit).
func Format(amount Money) string {
	return printer.Sprintf("Rp%v", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// FormatOptional renders a possibly-absent amount, returning an empty string
// when there is nothing to display.
func FormatOptional(amount *Money) string {
	if amount == nil {
		return ""
	}
	return Format(*amount)
}
