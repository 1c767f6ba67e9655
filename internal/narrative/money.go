package narrative

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money renders an amount the way the economy displays it, e.g. $25,000 or -$1,500.
func Money(amount int64) string {
	if amount < 0 {
		return printer.Sprintf("-$%d", -amount)
	}
	return printer.Sprintf("$%d", amount)
}

// Signed renders a delta with an explicit sign, e.g. +$500 or -$500.
func Signed(amount int64) string {
	if amount >= 0 {
		return "+" + Money(amount)
	}
	return Money(amount)
}
