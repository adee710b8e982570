package dateutil

import (
	"testing"
	"time"
)

func fixedNow(t *testing.T, value string) {
	t.Helper()
	fixed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad fixture time: %v", err)
	}
	orig := timeNow
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = orig })
}

func TestCalculateAge(t *testing.T) {
	fixedNow(t, "2026-08-28T10:30:00Z")

	tests := []struct {
		birth  string
		years  int
		months int
		days   int
	}{
		{"1990-05-10", 36, 3, 18},
		{"2026-06-28", 0, 2, 0},
		{"2026-08-28", 0, 0, 0},
		{"2026-08-27", 0, 0, 1},
		{"2025-08-29", 0, 11, 30},
		{"2000-01-01", 26, 7, 27},
	}
	for _, tc := range tests {
		age := CalculateAge(tc.birth)
		if age == nil {
			t.Fatalf("CalculateAge(%q) = nil, want value", tc.birth)
		}
		if age.Years != tc.years || age.Months != tc.months || age.Days != tc.days {
			t.Errorf("CalculateAge(%q) = %+v, want {%d %d %d}",
				tc.birth, *age, tc.years, tc.months, tc.days)
		}
	}
}

func TestCalculateAge_Reconstruction(t *testing.T) {
	fixedNow(t, "2026-08-28T00:00:00Z")
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	births := []string{
		"1954-02-28", "1980-12-31", "1999-08-28", "2010-03-01", "2025-09-15",
	}
	for _, b := range births {
		age := CalculateAge(b)
		if age == nil {
			t.Fatalf("CalculateAge(%q) = nil", b)
		}
		birth, _ := time.Parse("2006-01-02", b)
		rebuilt := birth.AddDate(age.Years, 0, 0).AddDate(0, age.Months, 0).AddDate(0, 0, age.Days)
		if !rebuilt.Equal(today) {
			t.Errorf("birth %s + %+v = %s, want %s", b, *age, rebuilt.Format("2006-01-02"), today.Format("2006-01-02"))
		}
	}
}

func TestCalculateAge_Invalid(t *testing.T) {
	fixedNow(t, "2026-08-28T10:30:00Z")

	invalid := []string{
		"",
		"1990/05/10",
		"10-05-1990",
		"1990-5-1",
		"1990-13-01",
		"1990-02-30",
		"not-a-date",
		"1990-05-10T00:00:00Z",
		"2027-01-01", // future
	}
	for _, in := range invalid {
		if age := CalculateAge(in); age != nil {
			t.Errorf("CalculateAge(%q) = %+v, want nil", in, *age)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	res := FormatDate(d)
	if res.Error != nil {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	if res.FormattedResult != "15/03/2025" {
		t.Errorf("got %q, want 15/03/2025", res.FormattedResult)
	}

	res = FormatDateTime(d)
	if res.FormattedResult != "15/03/2025 10:00" {
		t.Errorf("got %q, want 15/03/2025 10:00", res.FormattedResult)
	}
}

func TestFormatDate_StringInputs(t *testing.T) {
	res := FormatDate("2025-03-15")
	if res.Error != nil || res.FormattedResult != "15/03/2025" {
		t.Errorf("ISO date: got %+v", res)
	}

	res = FormatDateTime("2025-03-15T10:30:00Z")
	if res.Error != nil || res.FormattedResult != "15/03/2025 10:30" {
		t.Errorf("RFC3339: got %+v", res)
	}
}

func TestFormatDate_RoundTrip(t *testing.T) {
	d := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	res := FormatDate(d)
	if res.Error != nil {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	parsed, err := time.Parse(DateFormat, res.FormattedResult)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("round trip: got %s, want %s", parsed, d)
	}
}

func TestFormatDate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		title   string
		message string
	}{
		{"nil", nil, TitleFormatError, MsgNullOrUndefined},
		{"empty string", "", TitleParseError, MsgEmptyOrInvalid},
		{"whitespace", "   ", TitleParseError, MsgEmptyOrInvalid},
		{"garbage", "not-a-date", TitleParseError, MsgInvalidFormat},
		{"wrong type", struct{}{}, TitleParseError, MsgInvalidFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := FormatDate(tc.input)
			if res.Error == nil {
				t.Fatalf("expected error, got %q", res.FormattedResult)
			}
			if res.Error.Title != tc.title || res.Error.Message != tc.message {
				t.Errorf("got %+v, want {%s %s}", *res.Error, tc.title, tc.message)
			}
			if res.FormattedResult != "" {
				t.Errorf("formatted result should be empty on error, got %q", res.FormattedResult)
			}
		})
	}
}

func TestFormatDate_EpochMillis(t *testing.T) {
	ms := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	res := FormatDate(ms)
	if res.Error != nil || res.FormattedResult != "15/03/2025" {
		t.Errorf("epoch millis: got %+v", res)
	}
}
