package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/pkg/mailer"
	"github.com/redis/go-redis/v9"
)

const adminNotificationChannel = "admin_notifications"

// AdminNotifier signals administrators about transitions that need their
// attention. Delivery is best effort: every failure is logged and swallowed
// so a notification problem can never abort the triggering operation.
type AdminNotifier interface {
	NotifyTeacherApplication(ctx context.Context, user *model.User, app *model.TeacherApplication)
}

type adminNotifier struct {
	mail        mailer.Mailer
	redisClient *redis.Client
	adminEmail  string
}

func NewAdminNotifier(mail mailer.Mailer, redisClient *redis.Client, adminEmail string) AdminNotifier {
	return &adminNotifier{
		mail:        mail,
		redisClient: redisClient,
		adminEmail:  adminEmail,
	}
}

func (n *adminNotifier) NotifyTeacherApplication(ctx context.Context, user *model.User, app *model.TeacherApplication) {
	subject := "New teacher application submitted"

	courses := strings.Join(app.CourseNames, ", ")
	if courses == "" {
		courses = "(none)"
	}
	years := make([]string, 0, len(app.Years))
	for _, y := range app.Years {
		years = append(years, fmt.Sprintf("%d", y))
	}
	yearList := strings.Join(years, ", ")
	if yearList == "" {
		yearList = "(none)"
	}

	body := fmt.Sprintf(
		"User: %s (id=%s)\nCourses: %s\nYears: %s\n\nReview pending applications:\n/api/admin/applications?status=pending\n",
		user.Username, user.ID, courses, yearList,
	)

	if n.adminEmail == "" {
		// No admin address configured; nothing to mail.
		log.Printf("[notifier] no admin email configured, skipping mail for application %s", app.ID)
	} else if n.mail != nil {
		if err := n.mail.Send(ctx, subject, body); err != nil {
			log.Printf("[notifier] failed to mail admins: %v", err)
		}
	}

	if n.redisClient != nil {
		payload, err := json.Marshal(map[string]interface{}{
			"type":           "teacher_application.created",
			"application_id": app.ID,
			"user_id":        user.ID,
			"username":       user.Username,
		})
		if err == nil {
			if err := n.redisClient.Publish(ctx, adminNotificationChannel, payload).Err(); err != nil {
				log.Printf("[notifier] failed to publish to redis: %v", err)
			}
		}
	}
}
