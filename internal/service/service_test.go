package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test, migrated and seeded
// with the default roles.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Profile{},
		&model.Class{},
		&model.Enrollment{},
		&model.TeacherApplication{},
		&model.ProposedClass{},
		&model.Submission{},
	))

	roles := []model.Role{
		{Name: model.RoleAdmin},
		{Name: model.RoleTeacher},
		{Name: model.RoleStudent},
	}
	for _, role := range roles {
		require.NoError(t, db.Create(&role).Error)
	}

	return db
}

func findRole(t *testing.T, db *gorm.DB, name string) model.Role {
	t.Helper()
	var role model.Role
	require.NoError(t, db.Where("name = ?", name).First(&role).Error)
	return role
}

func createUser(t *testing.T, db *gorm.DB, username, roleName string, active bool, studentYear *int) *model.User {
	t.Helper()

	role := findRole(t, db, roleName)
	user := model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		RoleID:       &role.ID,
		IsActive:     active,
	}
	require.NoError(t, db.Create(&user).Error)
	user.Role = role

	profile := model.Profile{UserID: user.ID, StudentYear: studentYear}
	require.NoError(t, db.Create(&profile).Error)
	user.Profile = &profile

	return &user
}

func createStudent(t *testing.T, db *gorm.DB, username string, year int) *model.User {
	t.Helper()
	return createUser(t, db, username, model.RoleStudent, true, &year)
}

func createTeacher(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	return createUser(t, db, username, model.RoleTeacher, true, nil)
}

func createClass(t *testing.T, db *gorm.DB, teacher *model.User, name string, year int, deadline time.Time) *model.Class {
	t.Helper()

	class := model.Class{
		Name:      name,
		TeacherID: teacher.ID,
		Year:      year,
		Deadline:  deadline,
	}
	require.NoError(t, db.Create(&class).Error)
	class.Teacher = *teacher
	return &class
}

func enroll(t *testing.T, db *gorm.DB, student *model.User, class *model.Class) {
	t.Helper()
	created, err := repository.NewEnrollmentRepository(db).EnsureEnrollment(context.Background(), student.ID, class.ID)
	require.NoError(t, err)
	require.True(t, created)
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(value).Count(&count).Error)
	return count
}

// fakeStorage stands in for the Cloudinary file store.
type fakeStorage struct {
	uploads []string
}

func (f *fakeStorage) Upload(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if r != nil {
		_, _ = io.Copy(io.Discard, r)
	}
	ref := "https://files.local/" + folder + "/" + fileName
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error {
	return nil
}

// fakeNotifier records admin notifications.
type fakeNotifier struct {
	applications []uuid.UUID
}

func (f *fakeNotifier) NotifyTeacherApplication(_ context.Context, _ *model.User, app *model.TeacherApplication) {
	f.applications = append(f.applications, app.ID)
}

func newEnrollment(db *gorm.DB) EnrollmentService {
	return NewEnrollmentService(repository.NewEnrollmentRepository(db), repository.NewClassRepository(db))
}

func newApproval(db *gorm.DB) ApprovalService {
	return NewApprovalService(repository.NewApplicationRepository(db), repository.NewProposalRepository(db), 30)
}

func newSubmission(db *gorm.DB, store *fakeStorage) SubmissionService {
	return NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewClassRepository(db),
		repository.NewUserRepository(db),
		store,
	)
}

func newClasses(db *gorm.DB) ClassService {
	return NewClassService(
		repository.NewClassRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewProposalRepository(db),
		repository.NewUserRepository(db),
		nil,
		time.Second,
	)
}

func newAuth(db *gorm.DB, notifier AdminNotifier) AuthService {
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewApplicationRepository(db),
		newEnrollment(db),
		notifier,
		"test-secret",
		time.Hour,
	)
}

func newProfiles(db *gorm.DB) ProfileService {
	return NewProfileService(repository.NewUserRepository(db), newEnrollment(db))
}
