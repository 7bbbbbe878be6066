// Money parsing and handling. Amounts are whole currency units (đồng);
// there is no fractional subunit, so all arithmetic stays in int64.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an exact amount in whole currency units.
type Money struct {
	Amount int64
}

// ParseAmount converts a user-entered amount string to whole currency units.
// Thousands separators (dot, comma, space) are tolerated: "20.000", "20,000"
// and "20000" all parse to 20000. Fractions, signs, empty and non-numeric
// input are rejected, as are non-positive results.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	var digits strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '.' || r == ',' || r == ' ':
			// grouping separator
		default:
			return 0, ErrInvalidAmount
		}
	}
	if digits.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func (m Money) Validate() error {
	if m.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

// Mul scales the amount by a member count.
func (m Money) Mul(n int) Money {
	return Money{Amount: m.Amount * int64(n)}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// MarshalJSON renders money as a bare integer so report DTOs carry plain
// numeric amounts on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Amount, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Amount = v
	return nil
}
