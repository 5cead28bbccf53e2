package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

var hundred = decimal.NewFromInt(100)

// AmountPolicy bounds what a single donation may be.
type AmountPolicy struct {
	Max decimal.Decimal
}

// DefaultAmountPolicy caps donations at 10,000 in the donation currency.
func DefaultAmountPolicy() AmountPolicy {
	return AmountPolicy{Max: decimal.NewFromInt(10000)}
}

// ToCents validates amount against the policy and converts it to minor units.
func (p AmountPolicy) ToCents(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if amount.GreaterThan(p.Max) {
		return 0, fmt.Errorf("%w: cannot exceed %s", ErrAmountExceedsLimit, p.Max.StringFixed(2))
	}
	if !amount.Equal(amount.Truncate(2)) {
		return 0, ErrAmountPrecision
	}
	return amount.Mul(hundred).IntPart(), nil
}

// FromCents converts minor units back to a decimal amount with two places.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// NormalizeCurrency upper-cases and validates an ISO-4217 code.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyPattern.MatchString(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}
