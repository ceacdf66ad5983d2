package board

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.French)

// NormalizeNumber cleans an order or return number typed by an operator:
// uppercase, keep only [A-Z0-9-], add the dash after a 4-char non-numeric
// prefix and cap dashed values at 9 chars.
func NormalizeNumber(raw string) string {
	var b strings.Builder
	for _, r := range upper.String(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) == 4 && !strings.Contains(clean, "-") && !allDigits(clean) {
		return clean + "-"
	}
	if strings.Contains(clean, "-") && len(clean) > 9 {
		return clean[:9]
	}
	return clean
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

// DayMonth formats t as "DD/MM" in loc.
func DayMonth(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02/01")
}
