// Package money implements the fixed-precision amount type used for every
// on-chain and fiat quantity handled by the service.
package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits every Money value carries.
const Decimals = 18

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUnderflow     = errors.New("amount underflow")
)

var (
	decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	integerPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Money is an immutable non-negative amount with at most 18 fractional digits.
// The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{d: decimal.Zero}
}

// FromDecimalString parses a plain decimal string such as "12.5".
func FromDecimalString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := strings.TrimRight(s[i+1:], "0")
		if len(frac) > Decimals {
			return Money{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, Decimals)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return Money{d: d}, nil
}

// MustParse is FromDecimalString for constants and tests.
func MustParse(s string) Money {
	m, err := FromDecimalString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt returns a whole amount.
func FromInt(v int64) (Money, error) {
	if v < 0 {
		return Money{}, fmt.Errorf("%w: %d is negative", ErrInvalidAmount, v)
	}
	return Money{d: decimal.NewFromInt(v)}, nil
}

// FromSmallestUnit converts an integer amount expressed in a token's smallest
// unit (wei for 18-decimal tokens) into Money.
func FromSmallestUnit(s string, decimals int) (Money, error) {
	s = strings.TrimSpace(s)
	if !integerPattern.MatchString(s) || decimals < 0 {
		return Money{}, fmt.Errorf("%w: %q is not a smallest-unit integer", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	d = d.Shift(-int32(decimals))
	if scale(d) > Decimals {
		return Money{}, fmt.Errorf("%w: %q exceeds %d fractional digits", ErrInvalidAmount, s, Decimals)
	}
	return Money{d: d}, nil
}

// ToSmallestUnit renders the amount as an integer string in a token's smallest
// unit. It fails instead of rounding when the token cannot represent the value.
func (m Money) ToSmallestUnit(decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative token decimals", ErrInvalidAmount)
	}
	shifted := m.d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return "", fmt.Errorf("%w: %s has more precision than %d decimals", ErrInvalidAmount, m.String(), decimals)
	}
	return shifted.BigInt().String(), nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o, failing with ErrUnderflow when o is larger than m.
func (m Money) Sub(o Money) (Money, error) {
	r := m.d.Sub(o.d)
	if r.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, m.String(), o.String())
	}
	return Money{d: r}, nil
}

// SubClamped returns m - o floored at zero.
func (m Money) SubClamped(o Money) Money {
	r := m.d.Sub(o.d)
	if r.IsNegative() {
		return Zero()
	}
	return Money{d: r}
}

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if o.d.LessThan(m.d) {
		return o
	}
	return m
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool       { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) IsZero() bool             { return m.d.IsZero() }
func (m Money) IsPositive() bool         { return m.d.IsPositive() }

// ToStepped rounds down to the nearest multiple of step.
func (m Money) ToStepped(step Money) (Money, error) {
	if !step.IsPositive() {
		return Money{}, fmt.Errorf("%w: step must be positive", ErrInvalidAmount)
	}
	q, _ := m.d.QuoRem(step.d, 0)
	return Money{d: q.Mul(step.d)}, nil
}

// DivFloor divides by a positive integer, truncating to the fixed precision.
func (m Money) DivFloor(n int64) (Money, error) {
	if n <= 0 {
		return Money{}, fmt.Errorf("%w: divisor must be positive", ErrInvalidAmount)
	}
	q, _ := m.d.QuoRem(decimal.NewFromInt(n), Decimals)
	return Money{d: q}, nil
}

// String returns the exact decimal representation without trailing zeros.
func (m Money) String() string {
	return m.d.String()
}

// Sum adds all amounts.
func Sum(items ...Money) Money {
	total := Zero()
	for _, it := range items {
		total = total.Add(it)
	}
	return total
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number. Bare
// numbers are parsed from their literal text, never through float64.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}
	parsed, err := FromDecimalString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func scale(d decimal.Decimal) int {
	s := d.String()
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}
