package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var coinPrinter = message.NewPrinter(language.Spanish)

// FormatCoins renders a coin amount with thousands grouping for the default
// display locale ("1234567" → "1.234.567").
func FormatCoins(amount int) string {
	return coinPrinter.Sprintf("%d", amount)
}

// FormatCoinsIn renders a coin amount for an explicit locale.
func FormatCoinsIn(tag language.Tag, amount int) string {
	return message.NewPrinter(tag).Sprintf("%d", amount)
}
