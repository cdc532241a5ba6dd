package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// Price formats an amount in dollars with thousands separators, e.g. "$1,299.00".
func Price(amount float64) string {
	if amount < 0 {
		return "-" + pricePrinter.Sprintf("$%.2f", -amount)
	}
	return pricePrinter.Sprintf("$%.2f", amount)
}
