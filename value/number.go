package value

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is an arbitrary-precision decimal stored as its source text.
// Integer-shaped text round-trips exactly, including integers wider than
// 64 bits.
type Number string

func (Number) Kind() Kind { return KindNumber }

// Int64 creates a Number from an integer.
func Int64(i int64) Number {
	return Number(decimal.NewFromInt(i).String())
}

// Float creates a Number from a float. Non-finite floats cannot be
// represented and return an error.
func Float(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("cannot represent non-finite number %v", f)
	}
	return Number(decimal.NewFromFloat(f).String()), nil
}

// FromDecimal creates a Number from a decimal.
func FromDecimal(d decimal.Decimal) Number {
	return Number(d.String())
}

// Decimal parses the number into a decimal.
func (n Number) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(n))
}

// Int returns the number as an int64 if it is integer-valued and fits.
func (n Number) Int() (int64, bool) {
	d, err := n.Decimal()
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return 0, false
	}
	return bi.Int64(), true
}

// Float64 returns the closest float64 approximation.
func (n Number) Float64() (float64, bool) {
	d, err := n.Decimal()
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// canonical returns the wire form: integer-shaped and plain decimal text
// passes through untouched, exponent notation is normalized so integers
// never render with a fraction or exponent.
func (n Number) canonical() (string, error) {
	s := string(n)
	if s == "" {
		return "", fmt.Errorf("empty number")
	}
	if !strings.ContainsAny(s, "eE") {
		if _, err := decimal.NewFromString(s); err != nil {
			return "", err
		}
		return s, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}
