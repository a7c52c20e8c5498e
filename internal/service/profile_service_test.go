package service

import (
	"context"
	"testing"
	"time"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdateEnrollsIntoExistingClasses(t *testing.T) {
	db := newTestDB(t)
	svc := newProfiles(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	// The student signs up without a year and fills it in later.
	student := createUser(t, db, "student", model.RoleStudent, true, nil)

	resp, err := svc.Update(ctx, student.ID, dto.UpdateProfileRequest{StudentYear: intPtr(9)})
	require.NoError(t, err)
	require.NotNil(t, resp.StudentYear)
	assert.Equal(t, 9, *resp.StudentYear)

	var enrollment model.Enrollment
	require.NoError(t, db.Where("student_id = ? AND class_id = ?", student.ID, class.ID).First(&enrollment).Error)
}

func TestProfileUpdateRerunCreatesNoDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := newProfiles(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	student := createUser(t, db, "student", model.RoleStudent, true, nil)

	_, err := svc.Update(ctx, student.ID, dto.UpdateProfileRequest{StudentYear: intPtr(9)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, student.ID, dto.UpdateProfileRequest{StudentYear: intPtr(9)})
	require.NoError(t, err)

	assert.EqualValues(t, 1, countRows(t, db, &model.Enrollment{}))
}

func TestProfileGet(t *testing.T) {
	db := newTestDB(t)
	svc := newProfiles(db)
	ctx := context.Background()

	student := createStudent(t, db, "student", 9)

	resp, err := svc.Get(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "student", resp.Username)
	require.NotNil(t, resp.StudentYear)
	assert.Equal(t, 9, *resp.StudentYear)
}
