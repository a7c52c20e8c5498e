package main

import (
	"log"
	"strings"

	"github.com/earlypass/classpass-api/internal/config"
	"github.com/earlypass/classpass-api/internal/handler"
	"github.com/earlypass/classpass-api/internal/middleware"
	"github.com/earlypass/classpass-api/internal/model"
	"github.com/earlypass/classpass-api/internal/repository"
	"github.com/earlypass/classpass-api/internal/service"
	"github.com/earlypass/classpass-api/pkg/database"
	"github.com/earlypass/classpass-api/pkg/mailer"
	"github.com/earlypass/classpass-api/pkg/storage"
	"github.com/earlypass/classpass-api/pkg/validator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	fileStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder)
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	var mail mailer.Mailer
	if cfg.SendgridAPIKey != "" {
		mail = mailer.NewSendgridMailer(cfg.SendgridAPIKey, cfg.FromEmail, cfg.AdminEmail, cfg.AppName)
	} else {
		mail = mailer.NewConsoleMailer()
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollRepo := repository.NewEnrollmentRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	propRepo := repository.NewProposalRepository(db)
	subRepo := repository.NewSubmissionRepository(db)

	notifier := service.NewAdminNotifier(mail, redisClient, cfg.AdminEmail)
	enrollmentService := service.NewEnrollmentService(enrollRepo, classRepo)
	approvalService := service.NewApprovalService(appRepo, propRepo, cfg.DefaultDeadlineDays)
	authService := service.NewAuthService(userRepo, appRepo, enrollmentService, notifier, cfg.JWTSecret, cfg.TokenTTL)
	profileService := service.NewProfileService(userRepo, enrollmentService)
	classService := service.NewClassService(classRepo, enrollRepo, subRepo, propRepo, userRepo, redisClient, cfg.RateLimitPropose)
	submissionService := service.NewSubmissionService(subRepo, enrollRepo, classRepo, userRepo, fileStorage)

	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	classHandler := handler.NewClassHandler(classService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	adminHandler := handler.NewAdminHandler(approvalService)

	validator.RegisterCustomValidations()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/classes", classHandler.ListClasses)
		api.GET("/classes/:id/roster", classHandler.Roster)

		proposals := api.Group("/proposals")
		proposals.Use(authMiddleware.RequireTeacher())
		{
			proposals.POST("", classHandler.ProposeClass)
			proposals.GET("/mine", classHandler.MyProposals)
		}

		api.GET("/submissions", submissionHandler.ListSubmissions)
		api.POST("/submissions", submissionHandler.CreateSubmission)
		api.POST("/submissions/:id/approve", submissionHandler.ApproveSubmission)
		api.POST("/submissions/:id/reject", submissionHandler.RejectSubmission)

		profile := api.Group("/profile")
		{
			profile.GET("/me", profileHandler.GetCurrentProfile)
			profile.PUT("", profileHandler.UpdateProfile)
		}

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.GET("/applications", adminHandler.ListApplications)
			admin.POST("/applications/:id/approve", adminHandler.ApproveApplication)
			admin.POST("/applications/:id/reject", adminHandler.RejectApplication)
			admin.GET("/proposals", adminHandler.ListProposals)
			admin.POST("/proposals/:id/approve", adminHandler.ApproveProposal)
			admin.POST("/proposals/:id/reject", adminHandler.RejectProposal)
			admin.POST("/repair/proposals", adminHandler.RepairProposals)
			admin.POST("/repair/teachers", adminHandler.RepairTeachers)
		}
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Profile{},
		&model.Class{},
		&model.Enrollment{},
		&model.TeacherApplication{},
		&model.ProposedClass{},
		&model.Submission{},
	)
}

func seedRoles(db *gorm.DB) error {
	defaultRoles := []model.Role{
		{Name: model.RoleAdmin, Description: "School staff"},
		{Name: model.RoleTeacher, Description: "Approved teacher"},
		{Name: model.RoleStudent, Description: "Student"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&model.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var adminRole model.Role
	if err := db.Where("name = ?", model.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@classpass.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := "admin123"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := model.User{
		Username:     "admin",
		Email:        "admin@classpass.local",
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
		IsActive:     true,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded")
	log.Println("   Email: admin@classpass.local")
	log.Println("   Password: admin123")

	return nil
}
