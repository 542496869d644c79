package scheduler

import (
	"errors"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSlotCountFromDates(t *testing.T) {
	slots, weeks, err := SlotCount(SemesterWindow{StartDate: day("2025-09-01"), EndDate: day("2025-09-14")}, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, weeks)
	assert.Equal(t, 100, slots)

	_, weeks, err = SlotCount(SemesterWindow{StartDate: day("2025-09-01"), EndDate: day("2025-09-10")}, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, weeks)

	_, weeks, err = SlotCount(SemesterWindow{StartDate: day("2025-09-01"), EndDate: day("2025-09-01")}, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, weeks)
}

func TestSlotCountAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, loc)
	end := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)

	slots, weeks, err := SlotCount(SemesterWindow{StartDate: start, EndDate: end}, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, weeks)
	assert.Equal(t, 20, slots)
}

func TestSlotCountWeekCountWins(t *testing.T) {
	slots, weeks, err := SlotCount(SemesterWindow{StartDate: day("2025-09-01"), EndDate: day("2025-09-14"), WeekCount: 3}, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, weeks)
	assert.Equal(t, 30, slots)

	_, weeks, err = SlotCount(SemesterWindow{StartDate: day("2025-09-01"), WeekCount: 18}, 10)
	require.NoError(t, err)
	assert.Equal(t, 18, weeks)
}

func TestSlotCountValidation(t *testing.T) {
	cases := []struct {
		name     string
		window   SemesterWindow
		sentinel error
	}{
		{name: "missing start", window: SemesterWindow{EndDate: day("2025-09-14")}, sentinel: ErrInvalidWindow},
		{name: "tuesday start", window: SemesterWindow{StartDate: day("2025-09-02"), EndDate: day("2025-09-14")}, sentinel: ErrMisalignedStart},
		{name: "end before start", window: SemesterWindow{StartDate: day("2025-09-08"), EndDate: day("2025-09-01")}, sentinel: ErrInvalidWindow},
		{name: "no end and no week count", window: SemesterWindow{StartDate: day("2025-09-01")}, sentinel: ErrInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := SlotCount(tc.window, 10)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel))
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.Status)
		})
	}
}

func TestResolveDate(t *testing.T) {
	start := day("2025-09-01")
	assert.Equal(t, day("2025-09-01"), ResolveDate(1, 1, start))
	assert.Equal(t, day("2025-09-07"), ResolveDate(1, 7, start))
	assert.Equal(t, day("2025-09-10"), ResolveDate(2, 3, start))
	assert.Equal(t, day("2025-12-29"), ResolveDate(18, 1, start))
	assert.Equal(t, day("2025-09-01"), ResolveDate(1, 1, start.Add(9*time.Hour)))
}

func TestWeekLabel(t *testing.T) {
	assert.Equal(t, "Week 1", WeekLabel(1))
	assert.Equal(t, "Week 12", WeekLabel(12))
}

func TestPeriodTime(t *testing.T) {
	start, end := PeriodTime(1)
	assert.Equal(t, "07:00", start)
	assert.Equal(t, "07:45", end)

	start, end = PeriodTime(6)
	assert.Equal(t, "13:00", start)
	assert.Equal(t, "13:45", end)

	start, end = PeriodTime(PeriodsPerDay)
	assert.Equal(t, "16:30", start)
	assert.Equal(t, "17:15", end)

	for _, p := range []int{0, -1, PeriodsPerDay + 1} {
		start, end = PeriodTime(p)
		assert.Equal(t, "00:00", start)
		assert.Equal(t, "00:00", end)
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]int{
		"1":        1,
		"7":        7,
		"MONDAY":   1,
		"friday":   5,
		"Sat":      6,
		"Thứ 2":    1,
		"thu 7":    6,
		"Thứ Hai":  1,
		"Thứ Năm":  4,
		"T4":       3,
		"Chủ nhật": 7,
		"CN":       7,
		"8":        0,
		"0":        0,
		"someday":  0,
		"":         0,
	}
	for label, expected := range cases {
		assert.Equal(t, expected, ParseWeekday(label), "label %q", label)
	}
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "MONDAY", WeekdayName(1))
	assert.Equal(t, "SUNDAY", WeekdayName(7))
	assert.Equal(t, "", WeekdayName(0))
	assert.Equal(t, "", WeekdayName(8))
	for i := 1; i <= 7; i++ {
		assert.Equal(t, i, ParseWeekday(WeekdayName(i)))
	}
}
