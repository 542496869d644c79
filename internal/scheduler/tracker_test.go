package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCommitBlocksSlot(t *testing.T) {
	tracker := NewTracker([]Teacher{{ID: "t1", WeeklyCapacity: 3}, {ID: "t2", WeeklyCapacity: 1}})

	assert.True(t, tracker.TeacherAvailable("t1", "mon-1"))
	tracker.Commit("t1", "r1", "c1", "mon-1")

	assert.False(t, tracker.TeacherAvailable("t1", "mon-1"))
	assert.False(t, tracker.RoomAvailable("r1", "mon-1"))
	assert.False(t, tracker.ClassAvailable("c1", "mon-1"))
	assert.True(t, tracker.TeacherAvailable("t1", "mon-2"))
	assert.True(t, tracker.RoomAvailable("r2", "mon-1"))
	assert.True(t, tracker.ClassAvailable("c2", "mon-1"))
	assert.Equal(t, 1, tracker.Used("t1"))
	assert.Equal(t, 2, tracker.Remaining("t1"))
}

func TestTrackerWeeklyCapacity(t *testing.T) {
	tracker := NewTracker([]Teacher{{ID: "t1", WeeklyCapacity: 1}, {ID: "t0", WeeklyCapacity: 0}, {ID: "tn", WeeklyCapacity: -2}})

	tracker.Commit("t1", "r1", "c1", "mon-1")
	assert.False(t, tracker.HasCapacity("t1"))
	assert.False(t, tracker.TeacherAvailable("t1", "mon-2"))
	assert.False(t, tracker.HasCapacity("t0"))
	assert.False(t, tracker.HasCapacity("tn"))
	assert.Equal(t, 0, tracker.Remaining("tn"))
	assert.False(t, tracker.HasCapacity("unknown"))
}

func TestTrackerResetWeek(t *testing.T) {
	tracker := NewTracker([]Teacher{{ID: "t1", WeeklyCapacity: 1}})
	tracker.Commit("t1", "r1", "c1", "mon-1")

	tracker.ResetWeek()

	assert.True(t, tracker.TeacherAvailable("t1", "mon-1"))
	assert.True(t, tracker.RoomAvailable("r1", "mon-1"))
	assert.True(t, tracker.ClassAvailable("c1", "mon-1"))
	assert.Equal(t, 0, tracker.Used("t1"))
	assert.Equal(t, 1, tracker.Remaining("t1"))
}
