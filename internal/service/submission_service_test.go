package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/earlypass/classpass-api/internal/dto"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submissionFile(name string) dto.SubmissionFile {
	return dto.SubmissionFile{
		Reader:   strings.NewReader("answer"),
		FileName: name,
	}
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	_, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "")
	assert.ErrorIs(t, err, apperror.ErrNotEnrolled)
	assert.EqualValues(t, 0, countRows(t, db, &model.Submission{}))
	assert.Empty(t, store.uploads)
}

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, student, class)

	resp, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "first try")
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "homework.pdf", resp.FileName)
	assert.Equal(t, "first try", resp.Feedback)
	require.Len(t, store.uploads, 1)
	assert.Contains(t, store.uploads[0], class.ID.String())
	assert.Contains(t, store.uploads[0], student.ID.String())
}

func TestResubmitOverwritesAndResetsToPending(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, student, class)

	first, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("v1.pdf"), "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, teacher.ID, first.ID, model.StatusApproved)
	require.NoError(t, err)

	second, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("v2.pdf"), "revised")
	require.NoError(t, err)

	// One row per (student, class); the approval is gone.
	assert.EqualValues(t, 1, countRows(t, db, &model.Submission{}))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "pending", second.Status)
	assert.Equal(t, "v2.pdf", second.FileName)
	assert.Equal(t, "revised", second.Feedback)
}

func TestSubmitAfterDeadlineFails(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(-time.Hour))
	enroll(t, db, student, class)

	_, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "")
	assert.ErrorIs(t, err, apperror.ErrDeadlinePassed)
	assert.Empty(t, store.uploads)
}

func TestSubmitRejectsDisallowedExtension(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, student, class)

	_, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("malware.exe"), "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, store.uploads)
}

func TestTeacherCannotSubmit(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	_, err := svc.Submit(ctx, teacher.ID, class.ID, submissionFile("notes.pdf"), "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDecideForbiddenForUnrelatedTeacher(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	other := createTeacher(t, db, "other")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, student, class)

	sub, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, other.ID, sub.ID, model.StatusApproved)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	var stored model.Submission
	require.NoError(t, db.Where("id = ?", sub.ID).First(&stored).Error)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestDecideByStaffAfterDeadline(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	admin := createUser(t, db, "admin", model.RoleAdmin, true, nil)
	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(time.Hour))
	enroll(t, db, student, class)

	sub, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "")
	require.NoError(t, err)

	// A passed deadline blocks submits, never decisions.
	require.NoError(t, db.Model(&model.Class{}).Where("id = ?", class.ID).
		Update("deadline", time.Now().Add(-time.Hour)).Error)

	resp, err := svc.Decide(ctx, admin.ID, sub.ID, model.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
}

func TestDecideRejectsInvalidOutcome(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	class := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, student, class)

	sub, err := svc.Submit(ctx, student.ID, class.ID, submissionFile("homework.pdf"), "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, teacher.ID, sub.ID, model.StatusPending)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestListScopedByRole(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}
	svc := newSubmission(db, store)
	ctx := context.Background()

	admin := createUser(t, db, "admin", model.RoleAdmin, true, nil)
	teacher := createTeacher(t, db, "teacher")
	other := createTeacher(t, db, "other")
	studentA := createStudent(t, db, "alice", 9)
	studentB := createStudent(t, db, "bob", 9)

	classA := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	classB := createClass(t, db, other, "History", 9, time.Now().Add(24*time.Hour))
	enroll(t, db, studentA, classA)
	enroll(t, db, studentB, classB)

	_, err := svc.Submit(ctx, studentA.ID, classA.ID, submissionFile("a.pdf"), "")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, studentB.ID, classB.ID, submissionFile("b.pdf"), "")
	require.NoError(t, err)

	all, err := svc.List(ctx, admin.ID, dto.SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, teacher.ID, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a.pdf", mine[0].FileName)

	own, err := svc.List(ctx, studentB.ID, dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "b.pdf", own[0].FileName)
}
