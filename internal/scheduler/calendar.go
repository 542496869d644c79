package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// FirstTeachingWeekday is the weekday every semester window must start on.
const FirstTeachingWeekday = time.Monday

const daysPerWeek = 7

// Configuration errors. Generate wraps them in a validation *appErrors.Error, so
// callers can test with errors.Is and still map the result onto HTTP.
var (
	ErrNoClassrooms    = errors.New("no classrooms supplied")
	ErrNoTeachers      = errors.New("no teachers supplied")
	ErrNoSlotTemplates = errors.New("no slot templates supplied")
	ErrMisalignedStart = errors.New("semester start date is not the first teaching weekday")
	ErrInvalidWindow   = errors.New("semester window is invalid")
	ErrInvalidSlot     = errors.New("slot template is invalid")
)

func configError(sentinel error, message string) error {
	return appErrors.Wrap(sentinel, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// periodBounds is the wall-clock table of a 10-period day: 1-5 morning, 6-10 afternoon.
var periodBounds = [...][2]string{
	{"07:00", "07:45"},
	{"07:50", "08:35"},
	{"08:50", "09:35"},
	{"09:40", "10:25"},
	{"10:30", "11:15"},
	{"13:00", "13:45"},
	{"13:50", "14:35"},
	{"14:50", "15:35"},
	{"15:40", "16:25"},
	{"16:30", "17:15"},
}

// PeriodsPerDay is the number of periods in the fixed daily table.
const PeriodsPerDay = len(periodBounds)

// PeriodTime returns the wall-clock bounds of a 1-based period. Out-of-range input
// yields ("00:00", "00:00").
func PeriodTime(period int) (start, end string) {
	if period < 1 || period > PeriodsPerDay {
		return "00:00", "00:00"
	}
	bounds := periodBounds[period-1]
	return bounds[0], bounds[1]
}

// SlotCount returns the semester-wide slot and week totals for a window.
func SlotCount(window SemesterWindow, slotsPerWeek int) (totalSlots, totalWeeks int, err error) {
	if window.StartDate.IsZero() {
		return 0, 0, configError(ErrInvalidWindow, "semester start date is required")
	}
	if window.StartDate.Weekday() != FirstTeachingWeekday {
		return 0, 0, configError(ErrMisalignedStart, fmt.Sprintf("semester start date %s is a %s, expected %s",
			window.StartDate.Format(dateLayout), window.StartDate.Weekday(), FirstTeachingWeekday))
	}
	if !window.EndDate.IsZero() && window.EndDate.Before(window.StartDate) {
		return 0, 0, configError(ErrInvalidWindow, "semester end date is before its start date")
	}
	switch {
	case window.WeekCount > 0:
		totalWeeks = window.WeekCount
	case window.EndDate.IsZero():
		return 0, 0, configError(ErrInvalidWindow, "semester end date or week count is required")
	default:
		days := calendarDays(window.StartDate, window.EndDate) + 1
		totalWeeks = (days + daysPerWeek - 1) / daysPerWeek
	}
	if slotsPerWeek < 0 {
		slotsPerWeek = 0
	}
	return totalWeeks * slotsPerWeek, totalWeeks, nil
}

// ResolveDate maps a (week, weekday) pair onto the calendar. Weeks and weekdays are
// 1-based; Monday is weekday 1.
func ResolveDate(week, weekday int, semesterStart time.Time) time.Time {
	offset := (week-1)*daysPerWeek + (weekday - 1)
	return dateOnly(semesterStart).AddDate(0, 0, offset)
}

// WeekLabel is the display label of a week number.
func WeekLabel(week int) string {
	return "Week " + strconv.Itoa(week)
}

const dateLayout = "2006-01-02"

// calendarDays counts whole days from start to end by their calendar dates, so a
// DST transition in the window's location cannot shorten the range.
func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var weekdayNames = [...]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

var weekdayAliases = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
	"thu 2": 1, "thu 3": 2, "thu 4": 3, "thu 5": 4, "thu 6": 5, "thu 7": 6,
	"thu hai": 1, "thu ba": 2, "thu tu": 3, "thu nam": 4, "thu sau": 5, "thu bay": 6,
	"t2": 1, "t3": 2, "t4": 3, "t5": 4, "t6": 5, "t7": 6, "cn": 7, "chu nhat": 7,
}

// WeekdayName returns the upper-case English name of a 1-based weekday, or "" when out of range.
func WeekdayName(weekday int) string {
	if weekday < 1 || weekday > len(weekdayNames) {
		return ""
	}
	return weekdayNames[weekday-1]
}

// ParseWeekday accepts 1-7, English names or abbreviations, and Vietnamese labels
// ("Thứ 2", "T2", "Chủ nhật"). Unknown input yields 0.
func ParseWeekday(label string) int {
	key := Normalize(label)
	if key == "" {
		return 0
	}
	if n, err := strconv.Atoi(key); err == nil {
		if n >= 1 && n <= daysPerWeek {
			return n
		}
		return 0
	}
	for i, name := range weekdayNames {
		if key == strings.ToLower(name) {
			return i + 1
		}
	}
	return weekdayAliases[key]
}
