package terminal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxChargeAmount caps a single terminal charge.
var maxChargeAmount = decimal.RequireFromString("99999.99")

// AmountBuffer is the operator-entered charge amount as keyed digits.
// It enforces the entry rules rather than validating after the fact: a
// keypress that would produce an invalid amount is rejected and the
// buffer is unchanged.
type AmountBuffer struct {
	digits string
}

// Press applies one keypad key ("0"-"9" or "."). It reports whether the
// key was accepted.
func (b *AmountBuffer) Press(key string) bool {
	switch {
	case key == ".":
		if strings.Contains(b.digits, ".") {
			return false
		}
		if b.digits == "" {
			b.digits = "0."
		} else {
			b.digits += "."
		}
		return true
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		candidate := b.digits + key
		if b.digits == "0" {
			// "0" then "5" means 5, not 05.
			candidate = key
		}
		if dot := strings.Index(candidate, "."); dot >= 0 && len(candidate)-dot-1 > 2 {
			return false
		}
		value, err := decimal.NewFromString(candidate)
		if err != nil || value.GreaterThan(maxChargeAmount) {
			return false
		}
		b.digits = candidate
		return true
	default:
		return false
	}
}

// Backspace removes the last keyed character.
func (b *AmountBuffer) Backspace() {
	if len(b.digits) > 0 {
		b.digits = b.digits[:len(b.digits)-1]
	}
}

// Clear empties the buffer.
func (b *AmountBuffer) Clear() {
	b.digits = ""
}

// String returns the raw entry, e.g. "12.5".
func (b *AmountBuffer) String() string {
	return b.digits
}

// Empty reports whether anything has been keyed.
func (b *AmountBuffer) Empty() bool {
	return b.digits == ""
}

// Amount parses the buffer. ok is false unless the entry is a positive
// parseable number; the Charge control stays disabled otherwise.
func (b *AmountBuffer) Amount() (decimal.Decimal, bool) {
	if b.digits == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(strings.TrimSuffix(b.digits, "."))
	if err != nil || !value.IsPositive() {
		return decimal.Zero, false
	}
	return value, true
}
