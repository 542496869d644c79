package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryListByAcademicYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "grade", "academic_year", "batch_id"}).
		AddRow("c1", "10A1", "10", "2025/2026", nil).
		AddRow("c2", "10A2", "10", "2025/2026", "batch-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, grade, academic_year, batch_id FROM classes WHERE academic_year = $1 ORDER BY grade ASC, name ASC, id ASC")).
		WithArgs("2025/2026").
		WillReturnRows(rows)

	classes, err := repo.ListByAcademicYear(context.Background(), "2025/2026")
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Nil(t, classes[0].BatchID)
	require.NotNil(t, classes[1].BatchID)
	assert.Equal(t, "batch-1", *classes[1].BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListAllYears(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, grade, academic_year, batch_id FROM classes ORDER BY grade ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade", "academic_year", "batch_id"}))

	classes, err := repo.ListByAcademicYear(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, classes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "expertise", "weekly_capacity", "active"}).
		AddRow("t1", "Nguyễn Văn A", "Thạc sĩ Toán", 18, true).
		AddRow("t2", "Trần Thị B", nil, nil, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE active = TRUE")).WillReturnRows(rows)

	teachers, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	require.NotNil(t, teachers[0].WeeklyCapacity)
	assert.Equal(t, 18, *teachers[0].WeeklyCapacity)
	assert.Nil(t, teachers[1].Expertise)
	assert.Nil(t, teachers[1].WeeklyCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectClassroomSlotCurriculumRepositories(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, category FROM subjects")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "category"}).AddRow("s1", "MAT", "Toán", "core"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity FROM classrooms")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).AddRow("r1", "P101", 40))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day_of_week, period, start_time, end_time FROM slot_templates")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "day_of_week", "period", "start_time", "end_time"}).AddRow("sl1", "Thứ 2", 1, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT grade, subject_id, sessions_per_week FROM curriculum_requirements")).
		WillReturnRows(sqlmock.NewRows([]string{"grade", "subject_id", "sessions_per_week"}).AddRow("10", "s1", 4))

	subjects, err := NewSubjectRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Toán", subjects[0].Name)

	rooms, err := NewClassroomRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, rooms[0].Capacity)

	slots, err := NewSlotTemplateRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Thứ 2", slots[0].DayOfWeek)
	assert.Nil(t, slots[0].StartTime)

	reqs, err := NewCurriculumRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, reqs[0].SessionsPerWeek)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "number", "academic_year", "start_date", "end_date", "week_count", "is_active"}).
		AddRow("term-1", "HK1", 1, "2025/2026", start, nil, 18, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM terms WHERE id = $1")).WithArgs("term-1").WillReturnRows(rows)

	term, err := repo.FindByID(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 18, term.WeekCount)
	assert.Nil(t, term.EndDate)
	assert.True(t, start.Equal(term.StartDate))

	mock.ExpectQuery(regexp.QuoteMeta("FROM terms WHERE id = $1")).WithArgs("missing").WillReturnError(errors.New("boom"))
	_, err = repo.FindByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
