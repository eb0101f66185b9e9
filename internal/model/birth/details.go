package birth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is the accepted textual date format, DD/MM/YYYY.
	DateLayout = "02/01/2006"
	// TimeLayout is the accepted textual time format, 24-hour HH:MM.
	TimeLayout = "15:04"

	isoDateLayout = "2006-01-02"
	clockLayout   = "15:04:05"
)

var (
	ErrInvalidDate = errors.New("invalid date, expected DD/MM/YYYY")
	ErrInvalidTime = errors.New("invalid time, expected HH:MM")

	datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Coordinates is a resolved latitude/longitude pair. The zero value doubles as
// the "place not found" sentinel.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether c is the (0, 0) sentinel.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Date is a calendar day without a time zone.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(isoDateLayout)
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String renders the clock as HH:MM:SS.
func (c Clock) String() string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(clockLayout)
}

// Details holds everything collected about one subject.
type Details struct {
	Name        string      `json:"name"`
	Date        Date        `json:"dob"`
	Time        Clock       `json:"tob"`
	Place       string      `json:"place"`
	Coordinates Coordinates `json:"coordinates"`
}

// ParseDate parses DD/MM/YYYY with zero-padded day and month.
func ParseDate(raw string) (Date, error) {
	value := strings.TrimSpace(raw)
	if !datePattern.MatchString(value) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseTime parses a zero-padded 24-hour HH:MM between 00:00 and 23:59.
func ParseTime(raw string) (Clock, error) {
	value := strings.TrimSpace(raw)
	if !timePattern.MatchString(value) {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}

	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}
