package scheduler

import "time"

// Class is a teaching group that receives sessions.
type Class struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Grade        string `json:"grade"`
	AcademicYear string `json:"academicYear"`
	BatchID      string `json:"batchId"`
}

// Subject is a curriculum subject.
type Subject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CurriculumRequirement states how many sessions per week a subject needs for a grade
// (or for a single class when GradeOrCurriculumID holds a class id).
type CurriculumRequirement struct {
	GradeOrCurriculumID string `json:"gradeOrCurriculumId"`
	SubjectID           string `json:"subjectId"`
	SessionsPerWeek     int    `json:"sessionsPerWeek"`
}

// Teacher is an allocatable instructor.
type Teacher struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	WeeklyCapacity int    `json:"weeklyCapacity"`
}

// Classroom is an interchangeable room resource. Capacity is informational only.
type Classroom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// SlotTemplate is a recurring (weekday, period) cell of the weekly grid.
type SlotTemplate struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	Period    int    `json:"period"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SemesterWindow bounds a generation run in calendar time.
type SemesterWindow struct {
	ID           string    `json:"id"`
	Number       int       `json:"number"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	WeekCount    int       `json:"weekCount"`
	AcademicYear string    `json:"academicYear"`
}

// Snapshot is the immutable input of a generation run.
type Snapshot struct {
	Window     SemesterWindow          `json:"window"`
	Classes    []Class                 `json:"classes"`
	Subjects   []Subject               `json:"subjects"`
	Curriculum []CurriculumRequirement `json:"curriculum"`
	Teachers   []Teacher               `json:"teachers"`
	Classrooms []Classroom             `json:"classrooms"`
	Slots      []SlotTemplate          `json:"slots"`
}

// ScheduleEntry is one generated teaching session.
type ScheduleEntry struct {
	ID               string    `json:"id"`
	SemesterID       string    `json:"semesterId"`
	SemesterNumber   int       `json:"semesterNumber"`
	ClassID          string    `json:"classId"`
	SubjectID        string    `json:"subjectId"`
	TeacherID        string    `json:"teacherId"`
	ClassroomID      string    `json:"classroomId"`
	SlotTemplateID   string    `json:"slotTemplateId"`
	WeekNumber       int       `json:"weekNumber"`
	SessionDate      time.Time `json:"sessionDate"`
	SessionWeekLabel string    `json:"sessionWeekLabel"`
	Topic            string    `json:"topic"`
	Weekday          int       `json:"weekday,omitempty"`
	Period           int       `json:"period,omitempty"`
	StartTime        string    `json:"startTime,omitempty"`
	EndTime          string    `json:"endTime,omitempty"`
}

// Shortfall describes a class-subject pair that could not be fully scheduled.
type Shortfall struct {
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Required    int    `json:"required"`
	Scheduled   int    `json:"scheduled"`
	Missing     int    `json:"missing"`
}

// Stats summarises a generation run.
type Stats struct {
	TotalWeeks          int `json:"totalWeeks"`
	TotalSlots          int `json:"totalSlots"`
	SlotsSkipped        int `json:"slotsSkipped"`
	FallbackAssignments int `json:"fallbackAssignments"`
}

// Result is the output of Generate.
type Result struct {
	Entries    []ScheduleEntry `json:"entries"`
	Warnings   []string        `json:"warnings"`
	Shortfalls []Shortfall     `json:"shortfalls"`
	Stats      Stats           `json:"stats"`
}
