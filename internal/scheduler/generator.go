package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// DefaultIDNamespace seeds deterministic schedule entry identifiers.
var DefaultIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sma-timetable-api/schedule-entries"))

// Options tunes a generation run.
type Options struct {
	// AcademicYear restricts the run to classes of that year. Empty schedules every
	// class; the window's academic year is informational only.
	AcademicYear string
	// PaceWeekly caps every class-subject at its weekly requirement in any one week.
	PaceWeekly  bool
	IDNamespace uuid.UUID
	Logger      *zap.Logger
}

// classNeed is the RemainingNeed of one class.
type classNeed struct {
	class     Class
	subjects  []string
	weekly    map[string]int
	required  map[string]int
	remaining map[string]int
	scheduled map[string]int
	thisWeek  map[string]int
}

func (n *classNeed) outstanding(pace bool) []string {
	open := make([]string, 0, len(n.subjects))
	for _, id := range n.subjects {
		if n.remaining[id] <= 0 {
			continue
		}
		if pace && n.thisWeek[id] >= n.weekly[id] {
			continue
		}
		open = append(open, id)
	}
	sort.SliceStable(open, func(i, j int) bool {
		ri, rj := n.remaining[open[i]], n.remaining[open[j]]
		if ri == rj {
			return open[i] < open[j]
		}
		return ri > rj
	})
	return open
}

// AllocationState holds every piece of mutable bookkeeping for one run.
type AllocationState struct {
	needs   []*classNeed
	tracker *Tracker
	matcher *Matcher
}

// NewAllocationState builds the remaining-need table for classes over totalWeeks.
// Grade requirements apply first; a requirement keyed by the class id overrides the
// grade value for that subject.
func NewAllocationState(classes []Class, curriculum []CurriculumRequirement, teachers []Teacher, totalWeeks int) *AllocationState {
	state := &AllocationState{
		needs:   make([]*classNeed, 0, len(classes)),
		tracker: NewTracker(teachers),
		matcher: NewMatcher(),
	}
	for _, class := range classes {
		need := &classNeed{
			class:     class,
			weekly:    make(map[string]int),
			required:  make(map[string]int),
			remaining: make(map[string]int),
			scheduled: make(map[string]int),
			thisWeek:  make(map[string]int),
		}
		seen := make(map[string]bool)
		apply := func(key string) {
			for _, req := range curriculum {
				if req.GradeOrCurriculumID != key || req.SubjectID == "" {
					continue
				}
				if !seen[req.SubjectID] {
					seen[req.SubjectID] = true
					need.subjects = append(need.subjects, req.SubjectID)
				}
				need.weekly[req.SubjectID] = req.SessionsPerWeek
			}
		}
		apply(class.Grade)
		if class.ID != class.Grade {
			apply(class.ID)
		}
		subjects := need.subjects[:0]
		for _, id := range need.subjects {
			if need.weekly[id] <= 0 {
				delete(need.weekly, id)
				continue
			}
			subjects = append(subjects, id)
			need.required[id] = need.weekly[id] * totalWeeks
			need.remaining[id] = need.required[id]
		}
		need.subjects = subjects
		state.needs = append(state.needs, need)
	}
	return state
}

func (s *AllocationState) startWeek() {
	s.tracker.ResetWeek()
	for _, need := range s.needs {
		need.thisWeek = make(map[string]int)
	}
}

// Remaining returns the sessions still needed for a class-subject pair.
func (s *AllocationState) Remaining(classID, subjectID string) int {
	for _, need := range s.needs {
		if need.class.ID == classID {
			return need.remaining[subjectID]
		}
	}
	return 0
}

func validateSnapshot(snapshot Snapshot) error {
	if len(snapshot.Classrooms) == 0 {
		return configError(ErrNoClassrooms, "at least one classroom is required")
	}
	if len(snapshot.Teachers) == 0 {
		return configError(ErrNoTeachers, "at least one teacher is required")
	}
	if len(snapshot.Slots) == 0 {
		return configError(ErrNoSlotTemplates, "at least one slot template is required")
	}
	for _, slot := range snapshot.Slots {
		if slot.ID == "" || slot.Weekday < 1 || slot.Weekday > daysPerWeek {
			return configError(ErrInvalidSlot, fmt.Sprintf("slot template %q has invalid weekday %d", slot.ID, slot.Weekday))
		}
	}
	return nil
}

func orderedSlots(slots []SlotTemplate) []SlotTemplate {
	ordered := make([]SlotTemplate, len(slots))
	copy(ordered, slots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Weekday != ordered[j].Weekday {
			return ordered[i].Weekday < ordered[j].Weekday
		}
		if ordered[i].Period != ordered[j].Period {
			return ordered[i].Period < ordered[j].Period
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func filterClasses(classes []Class, academicYear string) []Class {
	if academicYear == "" {
		return classes
	}
	filtered := make([]Class, 0, len(classes))
	for _, c := range classes {
		if c.AcademicYear == academicYear {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Generate allocates teaching sessions for every class across the semester window.
// Configuration problems abort the run before any entry is produced; unmet quotas are
// reported as warnings next to the partial schedule. The context is checked at each
// week boundary.
func Generate(ctx context.Context, snapshot Snapshot, opts Options) (*Result, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	slots := orderedSlots(snapshot.Slots)
	totalSlots, totalWeeks, err := SlotCount(snapshot.Window, len(slots))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	namespace := opts.IDNamespace
	if namespace == uuid.Nil {
		namespace = DefaultIDNamespace
	}
	subjectNames := make(map[string]string, len(snapshot.Subjects))
	for _, subject := range snapshot.Subjects {
		subjectNames[subject.ID] = subject.Name
	}
	nameOf := func(subjectID string) string {
		if name := subjectNames[subjectID]; name != "" {
			return name
		}
		return subjectID
	}

	window := snapshot.Window
	lastDay := dateOnly(window.EndDate)
	classes := filterClasses(snapshot.Classes, opts.AcademicYear)
	state := NewAllocationState(classes, snapshot.Curriculum, snapshot.Teachers, totalWeeks)
	tracker := state.tracker

	result := &Result{
		Entries:    []ScheduleEntry{},
		Warnings:   []string{},
		Shortfalls: []Shortfall{},
		Stats:      Stats{TotalWeeks: totalWeeks, TotalSlots: totalSlots},
	}

	for week := 1; week <= totalWeeks; week++ {
		if err := ctx.Err(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status,
				fmt.Sprintf("timetable generation stopped before week %d", week))
		}
		state.startWeek()

		for _, slot := range slots {
			date := ResolveDate(week, slot.Weekday, window.StartDate)
			if !window.EndDate.IsZero() && date.After(lastDay) {
				result.Stats.SlotsSkipped++
				continue
			}

			teachers := make([]Teacher, 0, len(snapshot.Teachers))
			for _, t := range snapshot.Teachers {
				if tracker.HasCapacity(t.ID) {
					teachers = append(teachers, t)
				}
			}
			rooms := make([]Classroom, 0, len(snapshot.Classrooms))
			for _, r := range snapshot.Classrooms {
				if tracker.RoomAvailable(r.ID, slot.ID) {
					rooms = append(rooms, r)
				}
			}
			if len(teachers) == 0 {
				continue
			}

			for _, need := range state.needs {
				if !tracker.ClassAvailable(need.class.ID, slot.ID) {
					continue
				}
				room, ok := firstFreeRoom(tracker, rooms, slot.ID)
				if !ok {
					// rooms are only ever consumed within a slot
					break
				}
				for _, subjectID := range need.outstanding(opts.PaceWeekly) {
					subjectName := nameOf(subjectID)
					ranked, specialist := state.matcher.RankCandidates(teachers, subjectName, func(t Teacher) int {
						return tracker.Remaining(t.ID)
					})
					teacher, found := firstAvailableTeacher(tracker, ranked, slot.ID)
					if !found {
						continue
					}

					tracker.Commit(teacher.ID, room.ID, need.class.ID, slot.ID)
					need.remaining[subjectID]--
					need.scheduled[subjectID]++
					need.thisWeek[subjectID]++
					if !specialist {
						result.Stats.FallbackAssignments++
						logger.Debug("no specialist available, assigned generalist",
							zap.String("class_id", need.class.ID),
							zap.String("subject_id", subjectID),
							zap.String("teacher_id", teacher.ID),
							zap.Int("week", week),
							zap.String("slot_id", slot.ID))
					}

					start, end := slot.StartTime, slot.EndTime
					if start == "" || end == "" {
						start, end = PeriodTime(slot.Period)
					}
					key := fmt.Sprintf("%s|%d|%s|%s", window.ID, week, slot.ID, need.class.ID)
					result.Entries = append(result.Entries, ScheduleEntry{
						ID:               uuid.NewSHA1(namespace, []byte(key)).String(),
						SemesterID:       window.ID,
						SemesterNumber:   window.Number,
						ClassID:          need.class.ID,
						SubjectID:        subjectID,
						TeacherID:        teacher.ID,
						ClassroomID:      room.ID,
						SlotTemplateID:   slot.ID,
						WeekNumber:       week,
						SessionDate:      date,
						SessionWeekLabel: WeekLabel(week),
						Topic:            fmt.Sprintf("%s - session %d", subjectName, need.scheduled[subjectID]),
						Weekday:          slot.Weekday,
						Period:           slot.Period,
						StartTime:        start,
						EndTime:          end,
					})
					break
				}
			}
		}
	}

	for _, need := range state.needs {
		for _, subjectID := range need.subjects {
			missing := need.remaining[subjectID]
			if missing <= 0 {
				continue
			}
			shortfall := Shortfall{
				ClassID:     need.class.ID,
				ClassName:   need.class.Name,
				SubjectID:   subjectID,
				SubjectName: nameOf(subjectID),
				Required:    need.required[subjectID],
				Scheduled:   need.scheduled[subjectID],
				Missing:     missing,
			}
			result.Shortfalls = append(result.Shortfalls, shortfall)
			result.Warnings = append(result.Warnings, shortfall.String())
			logger.Info("timetable shortfall",
				zap.String("class_id", shortfall.ClassID),
				zap.String("subject_id", shortfall.SubjectID),
				zap.Int("missing", shortfall.Missing))
		}
	}
	return result, nil
}

// String renders the shortfall as a human-readable warning.
func (s Shortfall) String() string {
	return fmt.Sprintf("class %s: subject %s has %d unscheduled session(s) (%d/%d)",
		s.ClassName, s.SubjectName, s.Missing, s.Scheduled, s.Required)
}

func firstFreeRoom(tracker *Tracker, rooms []Classroom, slotID string) (Classroom, bool) {
	for _, r := range rooms {
		if tracker.RoomAvailable(r.ID, slotID) {
			return r, true
		}
	}
	return Classroom{}, false
}

func firstAvailableTeacher(tracker *Tracker, ranked []Teacher, slotID string) (Teacher, bool) {
	for _, t := range ranked {
		if tracker.TeacherAvailable(t.ID, slotID) {
			return t, true
		}
	}
	return Teacher{}, false
}
