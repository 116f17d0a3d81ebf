package terminal

import "testing"

func press(t *testing.T, b *AmountBuffer, keys ...string) {
	t.Helper()
	for _, k := range keys {
		b.Press(k)
	}
}

func TestAmountBufferBasicEntry(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "1", "2", ".", "5", "0")
	if got := b.String(); got != "12.50" {
		t.Errorf("expected 12.50, got %q", got)
	}
	amount, ok := b.Amount()
	if !ok {
		t.Fatal("expected a chargeable amount")
	}
	if amount.StringFixed(2) != "12.50" {
		t.Errorf("expected amount 12.50, got %s", amount.StringFixed(2))
	}
}

func TestAmountBufferLeadingZeroReplaced(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "0", "5")
	if got := b.String(); got != "5" {
		t.Errorf("0 then 5 should read 5, got %q", got)
	}
}

func TestAmountBufferSingleDecimalPoint(t *testing.T) {
	var b AmountBuffer
	if !b.Press(".") {
		t.Fatal("first decimal point should be accepted")
	}
	if b.String() != "0." {
		t.Errorf("leading decimal should read 0., got %q", b.String())
	}
	if b.Press(".") {
		t.Error("second decimal point should be rejected")
	}
}

func TestAmountBufferTwoFractionDigits(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "5", ".", "0", "0")
	if b.Press("1") {
		t.Error("third fraction digit should be rejected")
	}
	if got := b.String(); got != "5.00" {
		t.Errorf("buffer should be unchanged at 5.00, got %q", got)
	}
}

func TestAmountBufferMaxCharge(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "9", "9", "9", "9", "9")
	if b.Press("9") {
		t.Error("999999 exceeds the charge cap and should be rejected")
	}
	press(t, &b, ".", "9", "9")
	if got := b.String(); got != "99999.99" {
		t.Errorf("expected 99999.99, got %q", got)
	}
}

func TestAmountBufferRejectsNonKeypad(t *testing.T) {
	var b AmountBuffer
	for _, k := range []string{"a", "-", "", "12", " "} {
		if b.Press(k) {
			t.Errorf("key %q should be rejected", k)
		}
	}
}

func TestAmountBufferBackspace(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "7", ".", "5")
	b.Backspace()
	b.Backspace()
	if got := b.String(); got != "7" {
		t.Errorf("expected 7 after two backspaces, got %q", got)
	}
	b.Backspace()
	if !b.Empty() {
		t.Error("buffer should be empty")
	}
	b.Backspace() // no-op on empty
}

func TestAmountBufferTrailingDot(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "4", ".")
	amount, ok := b.Amount()
	if !ok {
		t.Fatal("4. should still parse as 4")
	}
	if amount.StringFixed(2) != "4.00" {
		t.Errorf("expected 4.00, got %s", amount.StringFixed(2))
	}
}

func TestAmountBufferZeroNotChargeable(t *testing.T) {
	var b AmountBuffer
	press(t, &b, "0")
	if _, ok := b.Amount(); ok {
		t.Error("a zero amount should not be chargeable")
	}
}
