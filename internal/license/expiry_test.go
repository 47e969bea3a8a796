package license

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeExpiry(t *testing.T) {
	t.Run("permanente has no expiry", func(t *testing.T) {
		if got := ComputeExpiry("permanente", 30, date(2025, time.August, 18)); got != nil {
			t.Errorf("expected nil expiry for permanente, got %v", got)
		}
	})

	t.Run("trial adds trial days", func(t *testing.T) {
		got := ComputeExpiry("trial", 14, date(2025, time.August, 18))
		want := date(2025, time.September, 1)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("trial defaults to 30 days when length is zero", func(t *testing.T) {
		got := ComputeExpiry("trial", 0, date(2025, time.August, 18))
		want := date(2025, time.September, 17)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("monthly runs through the day before next month", func(t *testing.T) {
		got := ComputeExpiry("abbonamento_mensile", 30, date(2025, time.August, 18))
		want := date(2025, time.September, 17)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("annual runs through the day before next year", func(t *testing.T) {
		got := ComputeExpiry("abbonamento_annuale", 30, date(2025, time.August, 18))
		want := date(2026, time.August, 17)
		if got == nil || !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("legacy aliases match canonical types", func(t *testing.T) {
		anchor := date(2025, time.March, 10)
		for _, pair := range [][2]string{
			{"mensile", "abbonamento_mensile"},
			{"annuale", "abbonamento_annuale"},
		} {
			legacy := ComputeExpiry(pair[0], 30, anchor)
			canonical := ComputeExpiry(pair[1], 30, anchor)
			if legacy == nil || canonical == nil || !legacy.Equal(*canonical) {
				t.Errorf("%s and %s diverge: %v vs %v", pair[0], pair[1], legacy, canonical)
			}
		}
	})

	t.Run("unrecognized type has no expiry", func(t *testing.T) {
		if got := ComputeExpiry("lifetime", 30, date(2025, time.August, 18)); got != nil {
			t.Errorf("expected nil for unrecognized type, got %v", got)
		}
	})
}

// Month-end and leap-year behavior is pinned: the month/year add clamps to
// the last day of the target month before the minus-one-day adjustment.
func TestComputeExpiryCalendarEdges(t *testing.T) {
	cases := []struct {
		name        string
		licenseType string
		anchor      time.Time
		want        time.Time
	}{
		{"monthly jan 31 clamps into february", "abbonamento_mensile", date(2025, time.January, 31), date(2025, time.February, 27)},
		{"monthly jan 31 leap year", "abbonamento_mensile", date(2024, time.January, 31), date(2024, time.February, 28)},
		{"monthly aug 31 clamps into september", "abbonamento_mensile", date(2025, time.August, 31), date(2025, time.September, 29)},
		{"monthly dec crosses year boundary", "abbonamento_mensile", date(2025, time.December, 15), date(2026, time.January, 14)},
		{"annual feb 29 into non-leap year", "abbonamento_annuale", date(2024, time.February, 29), date(2025, time.February, 27)},
		{"annual plain date", "annuale", date(2025, time.June, 1), date(2026, time.May, 31)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeExpiry(tc.licenseType, 30, tc.anchor)
			if got == nil {
				t.Fatalf("expected %v, got nil", tc.want)
			}
			if !got.Equal(tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

// Every recognized type, legacy aliases included, must produce a
// deterministic result without panicking, for any anchor.
func TestComputeExpiryTotality(t *testing.T) {
	anchors := []time.Time{
		date(2024, time.February, 29),
		date(2025, time.January, 1),
		date(2025, time.December, 31),
		time.Date(2025, time.July, 4, 23, 59, 59, 0, time.UTC),
	}

	for _, lt := range ValidTypes() {
		for _, anchor := range anchors {
			first := ComputeExpiry(string(lt), 30, anchor)
			second := ComputeExpiry(string(lt), 30, anchor)
			switch {
			case first == nil && second == nil:
				// permanente: consistently no expiry
			case first == nil || second == nil || !first.Equal(*second):
				t.Errorf("%s at %v not deterministic: %v vs %v", lt, anchor, first, second)
			}
		}
	}
}

func TestKeyGeneration(t *testing.T) {
	t.Run("generated keys match the documented format", func(t *testing.T) {
		for _, lt := range ValidTypes() {
			key := GenerateKey(lt)
			if !IsValidKeyFormat(key) {
				t.Errorf("generated key %q does not match format", key)
			}
		}
	})

	t.Run("normalization uppercases and trims", func(t *testing.T) {
		if got := NormalizeKey("  men-abcd-efgh-jkmn "); got != "MEN-ABCD-EFGH-JKMN" {
			t.Errorf("unexpected normalized key %q", got)
		}
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		for _, bad := range []string{"", "MEN-ABCD", "MENABCDEFGHJKMN", "MEN-ABCD-EFGH-JKM"} {
			if IsValidKeyFormat(bad) {
				t.Errorf("expected %q to be rejected", bad)
			}
		}
	})
}
