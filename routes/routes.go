package routes

import (
	"tutorhub_go/controllers"
	"tutorhub_go/middleware"
	"tutorhub_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	healthController := &controllers.HealthController{}
	authController := &controllers.AuthController{}
	dashboardController := &controllers.DashboardController{}
	studentController := &controllers.StudentController{}
	assistantController := &controllers.AssistantController{}
	groupController := &controllers.GroupController{}
	attendanceController := &controllers.AttendanceController{}
	paymentController := &controllers.PaymentController{}
	planController := &controllers.PlanController{}
	subscriptionController := &controllers.SubscriptionController{}
	adminTeacherController := &controllers.AdminTeacherController{}
	upgradeRequestController := &controllers.UpgradeRequestController{}
	feedbackController := &controllers.FeedbackController{}
	centerController := &controllers.CenterController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	wsController := controllers.NewWebSocketController(wsHub)

	app.Get("/health", healthController.GetHealthStatus)

	// WebSocket endpoint: ws://<host>/ws?token=JWT
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())

	api := app.Group("/api")

	// Public routes (no authentication required)
	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Post("/auth/logout", authController.Logout)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile", authController.UpdateProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/profile/avatar", authController.UploadAvatar)

	// The dashboard stays reachable for pending accounts; it reports the
	// approval and subscription state itself.
	protected.Get("/dashboard", dashboardController.GetDashboard)

	protected.Get("/plans", planController.GetPlans)
	protected.Get("/subscription", subscriptionController.GetMySubscription)

	// Everything below requires an approved account
	approved := protected.Group("/", middleware.RequireApproved())

	students := approved.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Get("/:id", studentController.GetStudent)
	students.Post("/", studentController.CreateStudent)
	students.Put("/:id", studentController.UpdateStudent)
	students.Delete("/:id", studentController.DeleteStudent)

	assistants := approved.Group("/assistants")
	assistants.Get("/", assistantController.GetAssistants)
	assistants.Post("/", assistantController.CreateAssistant)
	assistants.Delete("/:id", assistantController.DeleteAssistant)

	groups := approved.Group("/groups")
	groups.Get("/", groupController.GetGroups)
	groups.Get("/:id", groupController.GetGroup)
	groups.Post("/", groupController.CreateGroup)
	groups.Put("/:id", groupController.UpdateGroup)
	groups.Delete("/:id", groupController.DeleteGroup)
	groups.Post("/:id/special-sessions", groupController.AddSpecialSession)
	groups.Delete("/:id/special-sessions/:sessionId", groupController.DeleteSpecialSession)

	attendance := approved.Group("/attendance")
	attendance.Get("/", attendanceController.GetAttendance)
	attendance.Post("/", attendanceController.MarkAttendance)

	payments := approved.Group("/payments")
	payments.Get("/", paymentController.GetPayments)
	payments.Put("/", paymentController.UpdatePayments)
	payments.Post("/generate", paymentController.GeneratePayments)
	payments.Get("/export", paymentController.ExportPayments)
	payments.Post("/:id/receipt", paymentController.UploadReceipt)

	feedback := approved.Group("/feedback")
	feedback.Get("/", feedbackController.GetMyFeedback)
	feedback.Post("/", feedbackController.CreateFeedback)
	feedback.Put("/:id", feedbackController.UpdateFeedback)
	feedback.Delete("/:id", feedbackController.DeleteFeedback)

	upgrades := approved.Group("/upgrade-requests")
	upgrades.Get("/", upgradeRequestController.GetMyUpgradeRequests)
	upgrades.Post("/", upgradeRequestController.CreateUpgradeRequest)

	centers := approved.Group("/centers")
	centers.Post("/", centerController.CreateCenter)
	centers.Get("/mine", centerController.GetMyCenter)
	centers.Get("/mine/members", centerController.GetMembers)
	centers.Post("/mine/members", centerController.AddMember)
	centers.Delete("/mine/members/:id", centerController.RemoveMember)

	notificationsGroup := protected.Group("/notifications")
	notificationsGroup.Get("/", notificationController.GetNotifications)
	notificationsGroup.Get("/unread-count", notificationController.GetUnreadCount)
	notificationsGroup.Put("/:id/read", notificationController.MarkRead)
	notificationsGroup.Put("/read-all", notificationController.MarkAllRead)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireAdmin())

	admin.Get("/teachers/pending", adminTeacherController.GetPendingTeachers)
	admin.Post("/teachers/:id/approve", adminTeacherController.ApproveTeacher)
	admin.Post("/teachers/:id/reject", adminTeacherController.RejectTeacher)

	admin.Post("/plans", planController.CreatePlan)
	admin.Put("/plans/:id", planController.UpdatePlan)
	admin.Delete("/plans/:id", planController.DeletePlan)

	admin.Get("/subscriptions", subscriptionController.GetSubscriptions)
	admin.Post("/subscriptions", subscriptionController.AssignSubscription)
	admin.Post("/subscriptions/:id/deactivate", subscriptionController.DeactivateSubscription)

	admin.Get("/upgrade-requests", upgradeRequestController.GetUpgradeRequests)
	admin.Post("/upgrade-requests/:id/approve", upgradeRequestController.ApproveUpgradeRequest)
	admin.Post("/upgrade-requests/:id/reject", upgradeRequestController.RejectUpgradeRequest)

	admin.Get("/feedback", feedbackController.GetAllFeedback)
	admin.Put("/feedback/:id", feedbackController.ReplyFeedback)

	admin.Get("/logs", logController.GetActivityLogs)
	admin.Get("/logs/archives", logController.GetLogArchives)
	admin.Get("/ws/stats", wsController.GetWebSocketStats)
}
