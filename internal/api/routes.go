package api

import (
	"net/http"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	catalogService service.CatalogService,
	workoutService service.WorkoutService,
	executionService service.ExecutionService,
	reportService service.ReportService,
) {

	authHandler := NewAuthHandler(authService)
	catalogHandler := NewCatalogHandler(catalogService)
	workoutHandler := NewWorkoutHandler(workoutService)
	executionHandler := NewExecutionHandler(executionService)
	reportHandler := NewReportHandler(reportService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Teacher Routes ---
		teacherGroup := protected.Group("/teacher")
		teacherGroup.Use(RoleMiddleware(domain.RoleTeacher))
		{
			// Student roster
			// POST /api/v1/teacher/students
			teacherGroup.POST("/students", workoutHandler.AddStudentByEmail)
			// GET /api/v1/teacher/students
			teacherGroup.GET("/students", workoutHandler.GetManagedStudents)

			// Catalog lists (equipment, series, repetitions, training-types)
			teacherGroup.POST("/catalog/:kind", catalogHandler.CreateItem)
			teacherGroup.GET("/catalog/:kind", catalogHandler.GetItems)
			teacherGroup.PUT("/catalog/:kind/:itemId", catalogHandler.UpdateItem)
			teacherGroup.DELETE("/catalog/:kind/:itemId", catalogHandler.DeleteItem)

			// Workout composition
			teacherGroup.POST("/workouts", workoutHandler.CreateWorkout)
			teacherGroup.GET("/workouts", workoutHandler.GetTeacherWorkouts)
			teacherGroup.PUT("/workouts/:workoutId", workoutHandler.UpdateWorkout)
			teacherGroup.DELETE("/workouts/:workoutId", workoutHandler.DeleteWorkout)

			// Reports and exports
			teacherGroup.GET("/reports/workouts", reportHandler.GetTeacherReport)
			teacherGroup.GET("/reports/students", reportHandler.GetStudentSummary)
			teacherGroup.POST("/reports/workouts/export", reportHandler.ExportReport)
			teacherGroup.POST("/reports/students/export", reportHandler.ExportStudentSummary)
			teacherGroup.GET("/reports/exports", reportHandler.ListExports)
		}

		// --- Student Routes ---
		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			// GET /api/v1/student/workouts
			studentGroup.GET("/workouts", workoutHandler.GetStudentWorkouts)

			// Execution transitions
			studentGroup.POST("/workouts/:workoutId/start", executionHandler.StartWorkout)
			studentGroup.POST("/workouts/:workoutId/revert", executionHandler.RevertWorkout)
			studentGroup.POST("/workouts/:workoutId/complete", executionHandler.CompleteWorkout)

			// GET /api/v1/student/reports/workouts
			studentGroup.GET("/reports/workouts", reportHandler.GetStudentReport)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			// GET /api/v1/admin/stats
			adminGroup.GET("/stats", reportHandler.GetPlatformStats)
		}
	}
}
