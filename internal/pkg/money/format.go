// internal/pkg/money/format.go
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupeeSymbol = "₹"

// ToRupees converts paise to a decimal rupee amount.
func ToRupees(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

// FromRupees converts a rupee amount to paise, rounding half away from zero.
func FromRupees(rupees decimal.Decimal) int64 {
	return rupees.Shift(2).Round(0).IntPart()
}

// Format renders paise as an en-IN currency string, e.g. 100000000 -> "₹10,00,000.00".
func Format(paise int64) string {
	s := ToRupees(paise).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	out := rupeeSymbol + groupIndian(intPart) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// groupIndian places the first separator after three digits and every two digits after that.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
