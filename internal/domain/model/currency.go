package model

import (
	"fmt"
	"strings"
)

const (
	minCodeLen = 2
	maxCodeLen = 5
)

// NormalizeCode validates a currency code (2-5 letters) and returns it
// upper-cased. The code set is open: anything a configured source emits is a
// valid currency, so validation is purely syntactic.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return "", fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidCurrency, code, minCodeLen, maxCodeLen)
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("%w: %q must contain only letters", ErrInvalidCurrency, code)
		}
	}
	return strings.ToUpper(code), nil
}

// CurrencyPair is an ordered (base, quote) combination, e.g. EUR->USD.
type CurrencyPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

func NewCurrencyPair(base, quote string) (CurrencyPair, error) {
	b, err := NormalizeCode(base)
	if err != nil {
		return CurrencyPair{}, err
	}
	q, err := NormalizeCode(quote)
	if err != nil {
		return CurrencyPair{}, err
	}
	return CurrencyPair{Base: b, Quote: q}, nil
}

// Key returns the identity key used in the journal and snapshot, "BASE_QUOTE".
func (p CurrencyPair) Key() string {
	return p.Base + "_" + p.Quote
}

func (p CurrencyPair) String() string {
	return p.Base + "->" + p.Quote
}

// ParsePairKey parses a "BASE_QUOTE" identity key back into a pair.
func ParsePairKey(key string) (CurrencyPair, error) {
	base, quote, ok := strings.Cut(key, "_")
	if !ok {
		return CurrencyPair{}, fmt.Errorf("%w: malformed pair key %q", ErrInvalidCurrency, key)
	}
	return NewCurrencyPair(base, quote)
}
