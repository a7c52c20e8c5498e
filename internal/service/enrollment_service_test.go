package service

import (
	"context"
	"testing"
	"time"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureEnrollmentIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newEnrollment(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	created, err := svc.EnsureEnrollment(ctx, student.ID, class.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureEnrollment(ctx, student.ID, class.ID)
	require.NoError(t, err)
	assert.False(t, created)

	assert.EqualValues(t, 1, countRows(t, db, &model.Enrollment{}))
}

func TestFanOutYearCrossProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newEnrollment(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createStudent(t, db, "ninth-a", 9)
	createStudent(t, db, "ninth-b", 9)
	createStudent(t, db, "tenth", 10)
	createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	createClass(t, db, teacher, "Geometry", 9, time.Now().Add(24*time.Hour))

	count, err := svc.FanOutYear(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 4, countRows(t, db, &model.Enrollment{}))

	// The tenth grader has no classes yet.
	count, err = svc.FanOutYear(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFanOutYearRerunCreatesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := newEnrollment(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createStudent(t, db, "student", 9)
	createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	count, err := svc.FanOutYear(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.FanOutYear(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.EqualValues(t, 1, countRows(t, db, &model.Enrollment{}))
}

func TestEnrollStudentInYearCoversExistingClasses(t *testing.T) {
	db := newTestDB(t)
	svc := newEnrollment(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	createClass(t, db, teacher, "History", 10, time.Now().Add(24*time.Hour))
	student := createStudent(t, db, "student", 9)

	count, err := svc.EnrollStudentInYear(ctx, student.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var enrollment model.Enrollment
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&enrollment).Error)

	// Only the year-9 class, not the year-10 one.
	assert.EqualValues(t, 1, countRows(t, db, &model.Enrollment{}))
}
