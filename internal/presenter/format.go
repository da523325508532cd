package presenter

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Absent is shown for a missing or null value
const Absent = "-"

// formatter renders values for one language
type formatter struct {
	printer *message.Printer
}

func newFormatter(tag language.Tag) formatter {
	return formatter{printer: message.NewPrinter(tag)}
}

// number renders grouped digits with at most three fraction digits
func (f formatter) number(v *float64) string {
	if v == nil {
		return Absent
	}
	rounded, err := strconv.ParseFloat(toFixed(*v, 3), 64)
	if err != nil {
		rounded = *v
	}
	return f.printer.Sprint(number.Decimal(rounded, number.MaxFractionDigits(3)))
}

// fixed renders exactly n decimals without grouping
func fixed(v *float64, n int) string {
	if v == nil {
		return Absent
	}
	return toFixed(*v, n)
}

// fraction renders a 0-1 ratio as a percentage with one decimal
func fraction(v *float64) string {
	if v == nil {
		return Absent
	}
	return toFixed(*v*100, 1) + "%"
}

// percent renders a value that is already on the 0-100 scale
func percent(v *float64) string {
	if v == nil {
		return Absent
	}
	return toFixed(*v, 1) + "%"
}

// shortest renders the shortest decimal that round-trips
func shortest(v *float64) string {
	if v == nil {
		return Absent
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// exactDigits covers the full decimal expansion of any float64
const exactDigits = 1100

// toFixed renders v with n decimals, rounding the exact binary value half away
// from zero. A tie such as 1.125 at two decimals becomes 1.13.
func toFixed(v float64, n int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', n, 64)
	}

	negative := v < 0
	exact := new(big.Float).SetFloat64(math.Abs(v)).Text('f', exactDigits)
	whole, frac, _ := strings.Cut(exact, ".")

	digits := []byte(whole + frac[:n])
	if frac[n] >= '5' {
		i := len(digits) - 1
		for ; i >= 0 && digits[i] == '9'; i-- {
			digits[i] = '0'
		}
		if i < 0 {
			digits = append([]byte{'1'}, digits...)
		} else {
			digits[i]++
		}
	}

	out := string(digits)
	if n > 0 {
		out = out[:len(out)-n] + "." + out[len(out)-n:]
	}
	if negative {
		out = "-" + out
	}
	return out
}

func text(s *string) string {
	if s == nil {
		return Absent
	}
	return *s
}

// at returns the value at index i, or nil when the sequence is too short
func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}
