package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// Epsilon is the tolerance for a balanced set of entries.
var Epsilon = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Parse reads a signed amount with at most two decimal places.
func Parse(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -2 && !value.Equal(value.Round(2)) {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value.Round(2), nil
}

// ParsePositive is Parse restricted to amounts above zero.
func ParsePositive(input string) (decimal.Decimal, error) {
	value, err := Parse(input)
	if err != nil {
		return decimal.Zero, err
	}
	if !value.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return value, nil
}

// ParseRate reads a non-negative rate with up to six decimal places.
func ParseRate(input string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil || value.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	if value.Exponent() < -6 {
		return decimal.Zero, ErrTooManyDecimals
	}
	return value, nil
}

// Round rounds half away from zero to cents.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

func Format(value decimal.Decimal) string {
	return value.StringFixed(2)
}

// Percent returns value * rate / 100 rounded to cents.
func Percent(value, rate decimal.Decimal) decimal.Decimal {
	return Round(value.Mul(rate).Div(hundred))
}

// IsZero reports whether value is within Epsilon of zero.
func IsZero(value decimal.Decimal) bool {
	return value.Abs().LessThan(Epsilon)
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
