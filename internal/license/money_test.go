package license

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"not-a-number", 0},
		{"100.5", 100.5},
		{"0.00", 0},
		{"19.99", 19.99},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(90); got != "90.00" {
		t.Errorf("FormatAmount(90) = %q, want 90.00", got)
	}
	if got := FormatAmount(0); got != "0.00" {
		t.Errorf("FormatAmount(0) = %q, want 0.00", got)
	}
	if got := FormatAmount(19.999); got != "20.00" {
		t.Errorf("FormatAmount(19.999) = %q, want 20.00", got)
	}
}
