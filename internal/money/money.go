package money

import (
	"fmt"
	"math"
)

// Amount is a fixed-point monetary value in thousandths of the currency unit.
// The currency in play has three decimal places, so 1.500 is Amount(1500).
// Arithmetic on Amount never touches floating point except at the JSON/display
// boundary.
type Amount int64

// FromFloat converts a float (e.g. a client-supplied price) to an Amount,
// rounding to the nearest thousandth.
func FromFloat(f float64) Amount {
	return Amount(math.Round(f * 1000))
}

// Float returns the amount as a float for display serialization.
func (a Amount) Float() float64 {
	return float64(a) / 1000
}

// MulInt multiplies the amount by an integer quantity.
func (a Amount) MulInt(n int) Amount {
	return a * Amount(n)
}

// Percent returns pct% of the amount, rounded to the nearest thousandth.
// pct is expressed as 0-100, not 0-1.
func (a Amount) Percent(pct float64) Amount {
	return Amount(math.Round(float64(a) * pct / 100))
}

// Min returns the smaller of two amounts.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

func (a Amount) String() string {
	// a/1000 truncates to 0 for -999..-1, losing the sign
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%03d", sign, a/1000, a%1000)
}