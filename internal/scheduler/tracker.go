package scheduler

type slotResource struct {
	slot string
	id   string
}

// Tracker records which teachers, rooms and classes are committed to each slot
// template within the week being processed, and how many sessions each teacher has
// been given that week.
type Tracker struct {
	capacity map[string]int
	teachers map[slotResource]struct{}
	rooms    map[slotResource]struct{}
	classes  map[slotResource]struct{}
	weekly   map[string]int
}

// NewTracker builds a tracker using each teacher's weekly capacity.
func NewTracker(teachers []Teacher) *Tracker {
	capacity := make(map[string]int, len(teachers))
	for _, t := range teachers {
		capacity[t.ID] = t.WeeklyCapacity
	}
	t := &Tracker{capacity: capacity}
	t.ResetWeek()
	return t
}

// ResetWeek clears slot commitments and weekly usage counters.
func (t *Tracker) ResetWeek() {
	t.teachers = make(map[slotResource]struct{})
	t.rooms = make(map[slotResource]struct{})
	t.classes = make(map[slotResource]struct{})
	t.weekly = make(map[string]int, len(t.capacity))
}

// HasCapacity reports whether the teacher may take another session this week.
func (t *Tracker) HasCapacity(teacherID string) bool {
	return t.Remaining(teacherID) > 0
}

// Remaining returns the teacher's unused weekly capacity.
func (t *Tracker) Remaining(teacherID string) int {
	left := t.capacity[teacherID] - t.weekly[teacherID]
	if left < 0 {
		return 0
	}
	return left
}

// Used returns the sessions assigned to the teacher in the current week.
func (t *Tracker) Used(teacherID string) int {
	return t.weekly[teacherID]
}

// TeacherAvailable reports whether the teacher is free in the slot and has capacity left.
func (t *Tracker) TeacherAvailable(teacherID, slotID string) bool {
	if _, busy := t.teachers[slotResource{slot: slotID, id: teacherID}]; busy {
		return false
	}
	return t.HasCapacity(teacherID)
}

// RoomAvailable reports whether the room is free in the slot.
func (t *Tracker) RoomAvailable(roomID, slotID string) bool {
	_, busy := t.rooms[slotResource{slot: slotID, id: roomID}]
	return !busy
}

// ClassAvailable reports whether the class is free in the slot.
func (t *Tracker) ClassAvailable(classID, slotID string) bool {
	_, busy := t.classes[slotResource{slot: slotID, id: classID}]
	return !busy
}

// Commit marks teacher, room and class as used in the slot and counts the session
// against the teacher's weekly capacity.
func (t *Tracker) Commit(teacherID, roomID, classID, slotID string) {
	t.teachers[slotResource{slot: slotID, id: teacherID}] = struct{}{}
	t.rooms[slotResource{slot: slotID, id: roomID}] = struct{}{}
	t.classes[slotResource{slot: slotID, id: classID}] = struct{}{}
	t.weekly[teacherID]++
}
