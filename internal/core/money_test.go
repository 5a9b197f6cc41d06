package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"0.01", 1, true},
		{"1000", 100000, true},
		{" 5.50 ", 550, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3.00", 0, false},
		{"+3.00", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"1.234", 0, false}, // more than two fractional digits
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			m, err := ParseAmount(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error, got %s", m)
			}
			if tc.ok && m.Cents() != tc.cents {
				t.Fatalf("cents = %d, want %d", m.Cents(), tc.cents)
			}
		})
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 is the classic binary float trap.
	sum := FromCents(10).Add(FromCents(20))
	if sum.String() != "0.30" {
		t.Fatalf("0.10 + 0.20 = %s, want 0.30", sum)
	}
	if sum.Cents() != 30 {
		t.Fatalf("cents = %d, want 30", sum.Cents())
	}
}

func TestMoneyComparisons(t *testing.T) {
	a, b := FromCents(100), FromCents(250)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering broken")
	}
	if !a.IsPositive() || a.IsNegative() || a.IsZero() {
		t.Error("sign predicates broken for positive value")
	}
	if neg := a.Sub(b); !neg.IsNegative() {
		t.Error("1.00 - 2.50 should be negative")
	}
	if !FromCents(0).IsZero() {
		t.Error("zero cents should be zero")
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := FromCents(12345)
	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"123.45"` {
		t.Fatalf("marshal = %s, want \"123.45\"", b)
	}
	var back Money
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(m) {
		t.Fatalf("round trip = %s, want %s", back, m)
	}
}
