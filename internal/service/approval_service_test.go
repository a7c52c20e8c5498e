package service

import (
	"context"
	"testing"
	"time"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// createApplication mirrors the signup path: the applicant starts as an
// inactive student until an admin approves.
func createApplication(t *testing.T, db *gorm.DB, username string) (*model.User, *model.TeacherApplication) {
	t.Helper()

	user := createUser(t, db, username, model.RoleStudent, false, nil)
	app := model.TeacherApplication{
		UserID:      user.ID,
		IsTeacher:   true,
		CourseNames: []string{"Algebra"},
		Years:       []int{9},
		Status:      model.StatusPending,
	}
	require.NoError(t, db.Create(&app).Error)
	return user, &app
}

func createProposal(t *testing.T, db *gorm.DB, teacher *model.User, name string, year int, deadline time.Time) *model.ProposedClass {
	t.Helper()

	proposal := model.ProposedClass{
		TeacherID: teacher.ID,
		Name:      name,
		Year:      year,
		Deadline:  deadline,
		Status:    model.StatusPending,
	}
	require.NoError(t, db.Create(&proposal).Error)
	return &proposal
}

func TestApproveApplicationActivatesTeacher(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	applicant, app := createApplication(t, db, "applicant")

	resp, err := svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Application.Status)
	require.NotNil(t, resp.Application.DecidedAt)

	// Classes only materialize through proposals.
	assert.Empty(t, resp.CreatedClasses)
	assert.EqualValues(t, 0, countRows(t, db, &model.Class{}))

	var user model.User
	require.NoError(t, db.Preload("Role").Where("id = ?", applicant.ID).First(&user).Error)
	assert.True(t, user.IsActive)
	assert.Equal(t, model.RoleTeacher, user.Role.Name)
}

func TestApproveApplicationIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	_, app := createApplication(t, db, "applicant")

	first, err := svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)

	second, err := svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, second.Application.DecidedAt)
	assert.WithinDuration(t, *first.Application.DecidedAt, *second.Application.DecidedAt, time.Millisecond)
}

func TestApproveApplicationRepairsDemotedTeacher(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	applicant, app := createApplication(t, db, "applicant")

	_, err := svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)

	// Simulate a manual deactivation, then re-approve to repair.
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", applicant.ID).Update("is_active", false).Error)

	_, err = svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)

	var user model.User
	require.NoError(t, db.Where("id = ?", applicant.ID).First(&user).Error)
	assert.True(t, user.IsActive)
}

func TestRejectApplicationIsTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	applicant, app := createApplication(t, db, "applicant")

	resp, err := svc.RejectApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	require.NotNil(t, resp.DecidedAt)

	var user model.User
	require.NoError(t, db.Where("id = ?", applicant.ID).First(&user).Error)
	assert.False(t, user.IsActive)

	// Decided rows cannot move again.
	_, err = svc.RejectApplication(ctx, app.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = svc.ApproveApplication(ctx, app.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestApproveProposalMaterializesAndEnrolls(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	student := createStudent(t, db, "student", 9)
	deadline := time.Now().Add(14 * 24 * time.Hour)
	proposal := createProposal(t, db, teacher, "Algebra", 9, deadline)

	resp, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", resp.Name)
	assert.Equal(t, teacher.Username, resp.TeacherName)

	var stored model.ProposedClass
	require.NoError(t, db.Where("id = ?", proposal.ID).First(&stored).Error)
	assert.Equal(t, model.StatusApproved, stored.Status)
	require.NotNil(t, stored.DecidedAt)

	// The pre-existing year-9 student was fanned in.
	var enrollment model.Enrollment
	require.NoError(t, db.Where("student_id = ? AND class_id = ?", student.ID, resp.ID).First(&enrollment).Error)
}

func TestApproveProposalRefreshesExistingClass(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	existing := createClass(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	newDeadline := time.Now().Add(21 * 24 * time.Hour)
	proposal := createProposal(t, db, teacher, "Algebra", 9, newDeadline)
	require.NoError(t, db.Model(proposal).Update("description", "updated syllabus").Error)

	resp, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)

	// Same class row, refreshed from the proposal.
	assert.Equal(t, existing.ID, resp.ID)
	assert.EqualValues(t, 1, countRows(t, db, &model.Class{}))

	var class model.Class
	require.NoError(t, db.Where("id = ?", existing.ID).First(&class).Error)
	assert.Equal(t, "updated syllabus", class.Description)
	assert.WithinDuration(t, newDeadline, class.Deadline, time.Second)
}

func TestApproveProposalRepairsMissingClass(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createStudent(t, db, "student", 9)
	proposal := createProposal(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	first, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)

	var decided model.ProposedClass
	require.NoError(t, db.Where("id = ?", proposal.ID).First(&decided).Error)
	firstDecidedAt := *decided.DecidedAt

	// The class row goes missing; re-approving an approved proposal only
	// re-runs the materialization.
	require.NoError(t, db.Delete(&model.Class{}, "id = ?", first.ID).Error)

	second, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", second.Name)
	assert.EqualValues(t, 1, countRows(t, db, &model.Class{}))

	require.NoError(t, db.Where("id = ?", proposal.ID).First(&decided).Error)
	assert.WithinDuration(t, firstDecidedAt, *decided.DecidedAt, time.Millisecond)
}

func TestApproveProposalAfterRejectFails(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	proposal := createProposal(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	_, err := svc.RejectProposal(ctx, proposal.ID)
	require.NoError(t, err)

	_, err = svc.ApproveProposal(ctx, proposal.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.EqualValues(t, 0, countRows(t, db, &model.Class{}))
}

func TestApproveProposalDuplicateOfApprovedConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	first := createProposal(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	_, err := svc.ApproveProposal(ctx, first.ID)
	require.NoError(t, err)

	// A second pending proposal for the same (teacher, name, year) may
	// exist, but approving it collides with the already-approved one.
	second := createProposal(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))
	_, err = svc.ApproveProposal(ctx, second.ID)
	assert.ErrorIs(t, err, apperror.ErrDuplicateEntity)

	var stored model.ProposedClass
	require.NoError(t, db.Where("id = ?", second.ID).First(&stored).Error)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestApproveProposalAppliesDefaultDeadline(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	proposal := createProposal(t, db, teacher, "Algebra", 9, time.Time{})

	resp, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), resp.Deadline, time.Minute)
}

func TestRepairProposalsRecreatesMissingState(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	teacher := createTeacher(t, db, "teacher")
	createStudent(t, db, "student", 9)
	proposal := createProposal(t, db, teacher, "Algebra", 9, time.Now().Add(24*time.Hour))

	class, err := svc.ApproveProposal(ctx, proposal.ID)
	require.NoError(t, err)
	require.NoError(t, db.Delete(&model.Class{}, "id = ?", class.ID).Error)

	stats, err := svc.RepairProposals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Proposals)
	assert.Equal(t, 1, stats.Classes)
	assert.Equal(t, 1, stats.Enrollments)
	assert.EqualValues(t, 1, countRows(t, db, &model.Class{}))
}

func TestRepairTeachersReactivates(t *testing.T) {
	db := newTestDB(t)
	svc := newApproval(db)
	ctx := context.Background()

	applicant, app := createApplication(t, db, "applicant")
	_, err := svc.ApproveApplication(ctx, app.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.User{}).Where("id = ?", applicant.ID).Update("is_active", false).Error)

	fixed, err := svc.RepairTeachers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	var user model.User
	require.NoError(t, db.Where("id = ?", applicant.ID).First(&user).Error)
	assert.True(t, user.IsActive)
}
