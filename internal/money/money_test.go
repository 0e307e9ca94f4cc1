package money

import "testing"

func TestDollars(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{950, "$950"},
		{12500, "$12,500"},
		{1234567.6, "$1,234,568"},
		{-500, "-$500"},
	}
	for _, tt := range tests {
		if got := Dollars(tt.in); got != tt.want {
			t.Errorf("Dollars(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExact(t *testing.T) {
	if got := Exact(30000); got != "$30,000.00" {
		t.Errorf("Exact(30000) = %q", got)
	}
	if got := Exact(-12.5); got != "-$12.50" {
		t.Errorf("Exact(-12.5) = %q", got)
	}
}
