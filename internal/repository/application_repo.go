package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.TeacherApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error)
	FindAll(ctx context.Context, status model.Status) ([]*model.TeacherApplication, error)
	// Approve runs the whole approval as one transaction: status stamp,
	// teacher role assignment and account activation commit or roll back
	// together. Calling it on an already-approved row repairs the role and
	// activation without touching decided_at.
	Approve(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error)
	Reject(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error)
	// RepairApproved re-ensures role and activation for every approved
	// application. Returns the number of users fixed.
	RepairApproved(ctx context.Context) (int, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.TeacherApplication) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error) {
	var app model.TeacherApplication
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		Where("id = ?", id).
		First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (r *applicationRepository) FindAll(ctx context.Context, status model.Status) ([]*model.TeacherApplication, error) {
	query := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role")

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var apps []*model.TeacherApplication
	if err := query.Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) Approve(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error) {
	var app model.TeacherApplication

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").Preload("User.Role").
			Where("id = ?", id).First(&app).Error; err != nil {
			return translate(err)
		}

		switch app.Status {
		case model.StatusRejected:
			return fmt.Errorf("%w: application already rejected", apperror.ErrInvalidInput)
		case model.StatusPending:
			now := time.Now()
			if err := tx.Model(&app).
				Updates(map[string]interface{}{"status": model.StatusApproved, "decided_at": now}).Error; err != nil {
				return err
			}
			app.Status = model.StatusApproved
			app.DecidedAt = &now
		}

		// Role assignment and activation run on every call so a re-approve
		// repairs a user whose role or activation went missing.
		return ensureTeacherAccess(tx, &app.User)
	})
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) Reject(ctx context.Context, id uuid.UUID) (*model.TeacherApplication, error) {
	var app model.TeacherApplication

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").Where("id = ?", id).First(&app).Error; err != nil {
			return translate(err)
		}

		if app.Status != model.StatusPending {
			return fmt.Errorf("%w: application already decided", apperror.ErrInvalidInput)
		}

		now := time.Now()
		if err := tx.Model(&app).
			Updates(map[string]interface{}{"status": model.StatusRejected, "decided_at": now}).Error; err != nil {
			return err
		}
		app.Status = model.StatusRejected
		app.DecidedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) RepairApproved(ctx context.Context) (int, error) {
	fixed := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var apps []*model.TeacherApplication
		if err := tx.Preload("User").Preload("User.Role").
			Where("status = ?", model.StatusApproved).
			Find(&apps).Error; err != nil {
			return err
		}

		for _, app := range apps {
			user := app.User
			wasBroken := !user.IsActive || !user.IsTeacher()
			if err := ensureTeacherAccess(tx, &user); err != nil {
				return err
			}
			if wasBroken {
				fixed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return fixed, nil
}

// ensureTeacherAccess assigns the teacher role and activates the account.
// Idempotent; used both by first approval and by repair paths.
func ensureTeacherAccess(tx *gorm.DB, user *model.User) error {
	var role model.Role
	if err := tx.Where("name = ?", model.RoleTeacher).First(&role).Error; err != nil {
		return translate(err)
	}

	updates := map[string]interface{}{}
	if user.RoleID == nil || *user.RoleID != role.ID {
		updates["role_id"] = role.ID
	}
	if !user.IsActive {
		updates["is_active"] = true
	}
	if len(updates) == 0 {
		return nil
	}

	if err := tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return err
	}

	user.RoleID = &role.ID
	user.Role = role
	user.IsActive = true
	return nil
}
