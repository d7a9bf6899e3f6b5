package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/controllers"
	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/middleware"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	studentController *controllers.StudentController,
	classroomController *controllers.ClassroomController,
	sessionController *controllers.SessionController,
	healthController *controllers.HealthController,
	eventsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/ping", healthController.Ping)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", healthController.Health)

	staff := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleModerator)
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.GET("/check-admin", authController.CheckAdmin)
		auth.GET("/system-status", authController.SystemStatus)
		auth.POST("/initialize-system", authController.InitializeSystem)
		auth.POST("/master-unlock", authController.MasterUnlock)
		auth.POST("/request-password-creation", authController.RequestPasswordCreation)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authProtected := authenticated.Group("/auth")
	{
		authProtected.GET("/profile", authController.GetProfile)
		authProtected.POST("/create-user-by-role", authController.CreateUserByRole)
		authProtected.PUT("/users/:id/password", userController.ChangePassword)
		authProtected.GET("/moderators", userController.ListModerators)
		authProtected.GET("/teachers", userController.ListTeachers)
		authProtected.GET("/users", staff, userController.ListUsers)

		admin := authProtected.Group("")
		admin.Use(adminOnly)
		{
			admin.POST("/create-user", authController.CreateUser)
			admin.PATCH("/users/:id", userController.UpdateRole)
			admin.DELETE("/users/:id", userController.DeleteUser)
			admin.GET("/pending-password-requests", authController.PendingPasswordRequests)
			admin.POST("/approve-password-request/:id", authController.ApprovePasswordRequest)
			admin.POST("/reject-password-request/:id", authController.RejectPasswordRequest)
			admin.POST("/notification-settings", authController.SaveNotificationSetting)
			admin.GET("/notification-settings", authController.NotificationSettings)
		}
	}

	students := authenticated.Group("/students")
	{
		students.GET("", studentController.ListStudents)
		students.GET("/stats", studentController.GetStats)
		students.GET("/unassigned", studentController.ListUnassigned)
		students.GET("/teacher/:teacherId", studentController.ListByTeacher)
		students.GET("/:id", studentController.GetStudent)

		studentsStaff := students.Group("")
		studentsStaff.Use(staff)
		{
			studentsStaff.POST("", studentController.CreateStudent)
			studentsStaff.PATCH("/:id", studentController.UpdateStudent)
			studentsStaff.DELETE("/:id", studentController.DeleteStudent)
			studentsStaff.POST("/:id/assign-teacher", studentController.AssignTeacher)
			studentsStaff.DELETE("/:id/unassign-teacher", studentController.UnassignTeacher)
		}
	}

	classrooms := authenticated.Group("/classrooms")
	{
		classrooms.GET("", classroomController.ListClassrooms)
		classrooms.GET("/stats/overview", classroomController.GetStats)
		classrooms.GET("/usage-reports", classroomController.ListUsageReports)
		classrooms.POST("/report-usage", classroomController.ReportUsage)
		classrooms.PUT("/usage-reports/:id/end", classroomController.EndUsage)
		classrooms.GET("/:id", classroomController.GetClassroom)

		classroomsStaff := classrooms.Group("")
		classroomsStaff.Use(staff)
		{
			classroomsStaff.POST("", classroomController.CreateClassroom)
			classroomsStaff.PUT("/:id", classroomController.UpdateClassroom)
			classroomsStaff.DELETE("/:id", classroomController.DeleteClassroom)
		}
	}

	sessions := authenticated.Group("/sessions")
	{
		sessions.GET("", sessionController.ListSessions)
		sessions.GET("/stats", sessionController.GetStats)
		sessions.GET("/pending-confirmation", sessionController.PendingConfirmation)
		sessions.GET("/with-notes", sessionController.WithNotes)
		sessions.GET("/teacher/:teacherId", sessionController.ListByTeacher)
		sessions.GET("/:id", sessionController.GetSession)
		// Ownership is checked by the service
		sessions.POST("/:id/confirm", sessionController.ConfirmSession)

		sessionsStaff := sessions.Group("")
		sessionsStaff.Use(staff)
		{
			sessionsStaff.POST("", sessionController.CreateSession)
			sessionsStaff.PUT("/:id", sessionController.UpdateSession)
			sessionsStaff.DELETE("/:id", sessionController.DeleteSession)
		}
	}

	authenticated.GET("/ws/events",
		authMiddleware.RoleRequired(models.RoleAdmin, models.RoleModerator, models.RoleTeacher),
		eventsHandler.HandleConnection,
	)
}
