// Package dateutil provides calendar age calculation and display date
// formatting for clinical timestamps.
package dateutil

import (
	"regexp"
	"strings"
	"time"
)

// Display formats used across the chart views.
const (
	DateFormat     = "02/01/2006"
	DateTimeFormat = "02/01/2006 15:04"
)

// Error titles and messages surfaced by the formatting helpers.
const (
	TitleParseError  = "Date Parse Error"
	TitleFormatError = "Date Format Error"

	MsgEmptyOrInvalid  = "Date string is empty or invalid"
	MsgInvalidFormat   = "Invalid date format"
	MsgNullOrUndefined = "Date is null or undefined"
)

// Age is a calendar age split into whole years, months and days.
type Age struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

var birthDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// timeNow is swapped out in tests for deterministic "today".
var timeNow = time.Now

// CalculateAge computes the age for a birth date string in yyyy-mm-dd form.
// Any malformed string, impossible calendar date or future date yields nil.
// The month and day components chain off the previous coarser anchor, so the
// triple reconstructs today exactly: birth + years + months + days == today.
func CalculateAge(dateString string) *Age {
	if !birthDatePattern.MatchString(dateString) {
		return nil
	}
	birth, err := time.Parse("2006-01-02", dateString)
	if err != nil {
		// Syntactically valid but not a real calendar date (month 13, Feb 30).
		return nil
	}

	now := timeNow().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if birth.After(today) {
		return nil
	}

	years := today.Year() - birth.Year()
	if birth.AddDate(years, 0, 0).After(today) {
		years--
	}
	lastBirthday := birth.AddDate(years, 0, 0)

	months := (today.Year()-lastBirthday.Year())*12 + int(today.Month()) - int(lastBirthday.Month())
	if lastBirthday.AddDate(0, months, 0).After(today) {
		months--
	}
	lastMonth := lastBirthday.AddDate(0, months, 0)

	days := int(today.Sub(lastMonth).Hours() / 24)

	return &Age{Years: years, Months: months, Days: days}
}

// FormatError describes a date formatting failure for display.
type FormatError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FormatResult carries either a formatted string or a FormatError.
type FormatResult struct {
	FormattedResult string       `json:"formattedResult"`
	Error           *FormatError `json:"error,omitempty"`
}

// isoLayouts are the accepted ISO input shapes, longest first.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatGeneric(date any, layout string) FormatResult {
	if date == nil {
		return FormatResult{Error: &FormatError{Title: TitleFormatError, Message: MsgNullOrUndefined}}
	}

	var t time.Time
	switch d := date.(type) {
	case time.Time:
		t = d
	case string:
		if strings.TrimSpace(d) == "" {
			return FormatResult{Error: &FormatError{Title: TitleParseError, Message: MsgEmptyOrInvalid}}
		}
		parsed, ok := parseISO(d)
		if !ok {
			return FormatResult{Error: &FormatError{Title: TitleParseError, Message: MsgInvalidFormat}}
		}
		t = parsed
	case int:
		t = time.UnixMilli(int64(d)).UTC()
	case int64:
		t = time.UnixMilli(d).UTC()
	case float64:
		t = time.UnixMilli(int64(d)).UTC()
	default:
		return FormatResult{Error: &FormatError{Title: TitleParseError, Message: MsgInvalidFormat}}
	}

	return FormatResult{FormattedResult: t.Format(layout)}
}

// FormatDate renders a date as dd/MM/yyyy. Accepts a time.Time, a millisecond
// epoch number or an ISO date string.
func FormatDate(date any) FormatResult {
	return formatGeneric(date, DateFormat)
}

// FormatDateTime renders a date as dd/MM/yyyy HH:mm with the same input
// contract as FormatDate.
func FormatDateTime(date any) FormatResult {
	return formatGeneric(date, DateTimeFormat)
}
