// Package money formats dollar amounts for prompts, documents and reports.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Dollars formats v rounded to whole dollars, e.g. "$12,500".
func Dollars(v float64) string {
	if v < 0 {
		return "-$" + printer.Sprintf("%.0f", -v)
	}
	return "$" + printer.Sprintf("%.0f", v)
}

// Exact formats v with cents, e.g. "$12,500.00".
func Exact(v float64) string {
	if v < 0 {
		return "-$" + printer.Sprintf("%.2f", -v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}
