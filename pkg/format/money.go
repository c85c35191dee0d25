// Package format renders budgeting data as markdown for tool results.
//
// Amounts enter as integer milliunits (1000 = one currency unit) and leave as
// dollar strings such as "$1,234.56" or "-$42.50". All helpers are pure.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Dollars formats milliunits as a US dollar string with thousands separators.
// Sub-cent remainders are rounded half away from zero.
func Dollars(milliunits int64) string {
	neg := milliunits < 0
	abs := uint64(milliunits)
	if neg {
		abs = uint64(-(milliunits + 1)) + 1
	}
	cents := (abs + 5) / 10

	var b strings.Builder
	if neg && cents > 0 {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	b.WriteString(groupThousands(cents / 100))
	b.WriteByte('.')
	frac := cents % 100
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatUint(frac, 10))
	return b.String()
}

// Milliunits converts a dollar amount to milliunits, rounding half away from
// zero: 12.3455 -> 12346, -12.3455 -> -12346.
func Milliunits(dollars float64) int64 {
	return int64(math.Round(dollars * 1000))
}

func groupThousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// DateString formats t as YYYY-MM-DD in UTC.
func DateString(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
