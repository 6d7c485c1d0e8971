package model

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	displayCurrency = currency.USD
	pricePrinter    = message.NewPrinter(language.AmericanEnglish)
)

// FormatPrice renders a price for display: currency symbol, thousands
// separators and the currency's standard number of decimals.
func FormatPrice(price float64) string {
	scale, _ := currency.Standard.Rounding(displayCurrency)
	return pricePrinter.Sprintf("$%.*f", scale, price)
}
