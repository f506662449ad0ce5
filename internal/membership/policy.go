package membership

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Policy holds the business constants behind trial computation.
type Policy struct {
	// Location is the zone in which signup and "today" are turned into
	// calendar dates.
	Location *time.Location
	// CutoffMonth and CutoffDay name the calendar day on which Full and
	// Associate trials end (the first occurrence strictly after signup).
	CutoffMonth time.Month
	CutoffDay   int
	// StudentTrialMonths is the length of the Student trial.
	StudentTrialMonths int
}

// DefaultPolicy ends Full/Associate trials on September 1 and gives
// students twelve months, evaluated in UTC.
func DefaultPolicy() Policy {
	return Policy{
		Location:           time.UTC,
		CutoffMonth:        time.September,
		CutoffDay:          1,
		StudentTrialMonths: 12,
	}
}

var ErrInvalidPolicy = errors.New("invalid membership policy")

func (p Policy) Validate() error {
	if p.CutoffMonth < time.January || p.CutoffMonth > time.December {
		return fmt.Errorf("%w: cutoff month %d", ErrInvalidPolicy, p.CutoffMonth)
	}
	if p.CutoffDay < 1 || p.CutoffDay > maxCutoffDay(p.CutoffMonth) {
		return fmt.Errorf("%w: cutoff day %d for %s", ErrInvalidPolicy, p.CutoffDay, p.CutoffMonth)
	}
	if p.StudentTrialMonths < 0 {
		return fmt.Errorf("%w: student trial months %d", ErrInvalidPolicy, p.StudentTrialMonths)
	}
	return nil
}

// ParseCutoff parses an "MM-DD" cutoff such as "09-01".
func ParseCutoff(s string) (time.Month, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: cutoff %q is not MM-DD", ErrInvalidPolicy, s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cutoff month %q", ErrInvalidPolicy, parts[0])
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: cutoff day %q", ErrInvalidPolicy, parts[1])
	}
	month := time.Month(m)
	if month < time.January || month > time.December || d < 1 || d > maxCutoffDay(month) {
		return 0, 0, fmt.Errorf("%w: cutoff %q out of range", ErrInvalidPolicy, s)
	}
	return month, d, nil
}

// maxCutoffDay excludes Feb 29 so the cutoff exists every year.
func maxCutoffDay(m time.Month) int {
	if m == time.February {
		return 28
	}
	return time.Date(2001, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
