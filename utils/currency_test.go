package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatCoinsGroupsThousands(t *testing.T) {
	assert.Equal(t, "1.234.567", FormatCoins(1234567))
	assert.Equal(t, "0", FormatCoins(0))
}

func TestFormatCoinsInOtherLocales(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCoinsIn(language.English, 1234567))
}
