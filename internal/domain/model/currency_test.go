package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "lowercase is uppercased", input: "usd", expected: "USD"},
		{name: "surrounding spaces trimmed", input: "  eur ", expected: "EUR"},
		{name: "two letter code", input: "xq", expected: "XQ"},
		{name: "five letter code", input: "dogex", expected: "DOGEX"},
		{name: "empty", input: "", expectError: true},
		{name: "too short", input: "a", expectError: true},
		{name: "too long", input: "abcdef", expectError: true},
		{name: "digits rejected", input: "us1", expectError: true},
		{name: "punctuation rejected", input: "us-d", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := NormalizeCode(tc.input)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, code)
		})
	}
}

func TestNewCurrencyPair(t *testing.T) {
	pair, err := NewCurrencyPair("btc", " usd ")
	require.NoError(t, err)
	assert.Equal(t, "BTC", pair.Base)
	assert.Equal(t, "USD", pair.Quote)
	assert.Equal(t, "BTC_USD", pair.Key())
	assert.Equal(t, "BTC->USD", pair.String())

	_, err = NewCurrencyPair("", "usd")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = NewCurrencyPair("usd", "12")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestParsePairKey(t *testing.T) {
	pair, err := ParsePairKey("EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, CurrencyPair{Base: "EUR", Quote: "USD"}, pair)

	_, err = ParsePairKey("EURUSD")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	_, err = ParsePairKey("EUR_US_D")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}
