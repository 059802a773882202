package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-queue-server/internal/config"
	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/handlers"
	"clinic-queue-server/internal/middleware"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/queue"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, queueService *queue.Service, notifier events.Notifier) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	patientHandler := handlers.NewPatientHandler(db, queueService)
	doctorHandler := handlers.NewDoctorHandler(db, queueService)
	adminHandler := handlers.NewAdminHandler(db, queueService, notifier)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register/patient", authHandler.RegisterPatient)
			authRoutes.POST("/register/doctor", authHandler.RegisterDoctor)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		private.GET("/auth/profile", authHandler.GetProfile)

		// Doctor directory, open to any logged-in user
		private.GET("/doctors", patientHandler.SearchDoctors)

		// Notifications, open to any logged-in user
		private.GET("/notifications", patientHandler.GetNotifications)
		private.PATCH("/notifications/:id/read", patientHandler.MarkNotificationRead)

		// Patient routes
		patientRoutes := private.Group("/patient")
		patientRoutes.Use(middleware.RoleAuthMiddleware(models.RolePatient))
		{
			patientRoutes.POST("/appointments", patientHandler.BookVisit)
			patientRoutes.POST("/appointments/qr", patientHandler.QRBookVisit)
			patientRoutes.POST("/appointments/video", patientHandler.BookVideo)
			patientRoutes.GET("/appointments", patientHandler.GetAppointments)
			patientRoutes.GET("/appointments/upcoming", patientHandler.GetUpcomingAppointments)
			patientRoutes.PATCH("/appointments/:id/cancel", patientHandler.CancelAppointment)
			patientRoutes.GET("/appointments/:id/token", patientHandler.GetTokenStatus)
			patientRoutes.GET("/dashboard", patientHandler.GetDashboard)
			patientRoutes.POST("/family-members", patientHandler.AddFamilyMember)
			patientRoutes.GET("/family-members", patientHandler.GetFamilyMembers)
		}

		// Doctor routes, including the desk-side manual booking surface
		doctorRoutes := private.Group("/doctor")
		doctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
		{
			doctorRoutes.GET("/profile", doctorHandler.GetProfile)
			doctorRoutes.PUT("/profile", doctorHandler.UpdateProfile)
			doctorRoutes.PATCH("/availability", doctorHandler.SetAvailability)
			doctorRoutes.GET("/requests", doctorHandler.GetIncomingRequests)
			doctorRoutes.PATCH("/appointments/:id/respond", doctorHandler.Respond)
			doctorRoutes.GET("/queue", doctorHandler.GetTodayQueue)
			doctorRoutes.POST("/queue/call-next", doctorHandler.CallNext)
			doctorRoutes.PATCH("/appointments/:id/start", doctorHandler.StartAppointment)
			doctorRoutes.PATCH("/appointments/:id/complete", doctorHandler.CompleteAppointment)
			doctorRoutes.POST("/appointments/:id/summary", doctorHandler.AddVisitSummary)
			doctorRoutes.POST("/appointments/manual", doctorHandler.ManualBooking)
			doctorRoutes.GET("/appointments", doctorHandler.GetAppointmentHistory)
			doctorRoutes.GET("/dashboard", doctorHandler.GetDashboard)
		}

		// Admin routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/doctors", adminHandler.GetDoctors)
			adminRoutes.PATCH("/doctors/:id/review", adminHandler.ReviewDoctor)
			adminRoutes.GET("/appointments", adminHandler.GetAppointments)
			adminRoutes.PATCH("/appointments/:id/cancel", adminHandler.ForceCancelAppointment)
			adminRoutes.GET("/users", adminHandler.GetUsers)
			adminRoutes.PATCH("/users/:id/active", adminHandler.SetUserActive)
			adminRoutes.GET("/dashboard", adminHandler.GetDashboard)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
