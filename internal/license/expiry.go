package license

import "time"

// ComputeExpiry maps a license type and an anchor date to the license's
// expiry date. It returns nil for permanent licenses and for unrecognized
// types ("no expiry"). Subscription periods run through the day before the
// same date next month/year, so a monthly license bought on the 18th expires
// on the 17th of the following month; this keeps the renewal date itself
// outside the paid period and avoids double-billing it.
//
// The same rule set is used by license activation and by the automatic
// renewal scheduler, which always anchors to "today" rather than the old
// expiry date.
func ComputeExpiry(licenseType string, trialDays int, anchor time.Time) *time.Time {
	switch Type(licenseType) {
	case TypePermanente:
		return nil
	case TypeTrial:
		if trialDays <= 0 {
			trialDays = DefaultTrialDays
		}
		d := anchor.AddDate(0, 0, trialDays)
		return &d
	case TypeAbbonamentoMensile, TypeMensile:
		d := addCalendarMonths(anchor, 1).AddDate(0, 0, -1)
		return &d
	case TypeAbbonamentoAnnuale, TypeAnnuale:
		d := addCalendarMonths(anchor, 12).AddDate(0, 0, -1)
		return &d
	default:
		return nil
	}
}

// addCalendarMonths advances t by the given number of calendar months,
// clamping to the last day of the target month instead of letting the date
// normalize into the next one (Jan 31 + 1 month is Feb 28/29, not Mar 2/3;
// Feb 29 + 12 months is Feb 28).
func addCalendarMonths(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) - 1 + months
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysInMonth(year, time.Month(month+1)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month+1), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
