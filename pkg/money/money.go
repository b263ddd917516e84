// Package money formats whole-won amounts for customer-facing text.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Grouping is fixed to comma thousands separators regardless of host locale.
var printer = message.NewPrinter(language.English)

// Format renders amount with thousands separators, e.g. 5000 -> "5,000".
func Format(amount int) string {
	return printer.Sprintf("%d", amount)
}

// Won renders amount with the won suffix used in kiosk messages, e.g. "5,000원".
func Won(amount int) string {
	return Format(amount) + "원"
}
