package api

import (
	"errors"
	"net/http"

	"fitcoach/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExecutionHandler serves the student's workout execution transitions.
type ExecutionHandler struct {
	executionService service.ExecutionService
}

// NewExecutionHandler creates a new ExecutionHandler.
func NewExecutionHandler(executionService service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

// --- DTOs ---

type RevertRequest struct {
	Confirmed bool `json:"confirmed"`
}

// --- Handler Methods ---

// StartWorkout godoc
// @Summary Start a workout
// @Description Moves the workout from Not Started to In Progress and stamps the start time.
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 200 {object} WorkoutTimeResponse "New execution state"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (workout belongs to another student)"
// @Failure 404 {object} gin.H "No execution-state record for this workout"
// @Failure 409 {object} gin.H "Conflict (wrong status, or another workout already in progress)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /student/workouts/{workoutId}/start [post]
func (h *ExecutionHandler) StartWorkout(c *gin.Context) {
	workoutID, studentID, ok := executionIDs(c)
	if !ok {
		return
	}

	wt, err := h.executionService.Start(c.Request.Context(), workoutID, studentID)
	if err != nil {
		respondExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutTimeToResponse(wt))
}

// RevertWorkout godoc
// @Summary Revert a started workout
// @Description Moves the workout from In Progress back to Not Started, discarding elapsed time. Requires confirmed=true.
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param revert body RevertRequest true "Confirmation"
// @Success 200 {object} WorkoutTimeResponse "New execution state"
// @Failure 400 {object} gin.H "Invalid input or missing confirmation"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (workout belongs to another student)"
// @Failure 404 {object} gin.H "No execution-state record for this workout"
// @Failure 409 {object} gin.H "Conflict (workout is not in progress)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /student/workouts/{workoutId}/revert [post]
func (h *ExecutionHandler) RevertWorkout(c *gin.Context) {
	workoutID, studentID, ok := executionIDs(c)
	if !ok {
		return
	}

	var req RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	wt, err := h.executionService.Revert(c.Request.Context(), workoutID, studentID, req.Confirmed)
	if err != nil {
		respondExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutTimeToResponse(wt))
}

// CompleteWorkout godoc
// @Summary Complete a workout
// @Description Moves the workout from In Progress to Completed and stamps the completion time.
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 200 {object} WorkoutTimeResponse "New execution state"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (workout belongs to another student)"
// @Failure 404 {object} gin.H "No execution-state record for this workout"
// @Failure 409 {object} gin.H "Conflict (workout is not in progress)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /student/workouts/{workoutId}/complete [post]
func (h *ExecutionHandler) CompleteWorkout(c *gin.Context) {
	workoutID, studentID, ok := executionIDs(c)
	if !ok {
		return
	}

	wt, err := h.executionService.Complete(c.Request.Context(), workoutID, studentID)
	if err != nil {
		respondExecutionError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutTimeToResponse(wt))
}

// executionIDs pulls the workout ID from the URL and the student ID from
// the token. On failure it writes the error response and returns ok=false.
func executionIDs(c *gin.Context) (workoutID, studentID primitive.ObjectID, ok bool) {
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format in URL.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	studentID, ok = userObjectIDFromContext(c)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return workoutID, studentID, true
}

// respondExecutionError maps execution service errors to HTTP status codes.
func respondExecutionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimeRecordMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotWorkoutStudent):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrActiveWorkoutExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrRevertNotConfirmed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStoreTimeout):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to update workout status.")
	}
}
