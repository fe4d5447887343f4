package api

import (
	"errors"
	"net/http"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler serves student roster management and workout composition
// for teachers, plus the student's own workout list.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type AddStudentRequest struct {
	StudentEmail string `json:"studentEmail" binding:"required,email"`
}

type WorkoutEntryRequest struct {
	EquipmentID  string `json:"equipmentId" binding:"required"`
	SeriesID     string `json:"seriesId" binding:"required"`
	RepetitionID string `json:"repetitionId" binding:"required"`
}

type WorkoutRequest struct {
	StudentID      string                `json:"studentId"` // Required on create, ignored on update
	TrainingTypeID string                `json:"trainingTypeId" binding:"required"`
	Description    string                `json:"description"`
	Entries        []WorkoutEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

type WorkoutEntryResponse struct {
	EquipmentID  string `json:"equipmentId"`
	SeriesID     string `json:"seriesId"`
	RepetitionID string `json:"repetitionId"`
}

type WorkoutResponse struct {
	ID             string                 `json:"id"`
	StudentID      string                 `json:"studentId"`
	TrainingTypeID string                 `json:"trainingTypeId"`
	Description    string                 `json:"description,omitempty"`
	Entries        []WorkoutEntryResponse `json:"entries"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

type WorkoutTimeResponse struct {
	Status      domain.WorkoutStatus `json:"status"`
	StatusLabel string               `json:"statusLabel"`
	StartedAt   *time.Time           `json:"startedAt,omitempty"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

// WorkoutDetailResponse is a workout with execution state and display names
// joined in.
type WorkoutDetailResponse struct {
	Workout          WorkoutResponse       `json:"workout"`
	Time             *WorkoutTimeResponse  `json:"time,omitempty"`
	StudentName      string                `json:"studentName"`
	TrainingTypeName string                `json:"trainingTypeName"`
	Entries          []service.EntryDetail `json:"entryDetails"`
}

// MapWorkoutToResponse converts a domain Workout to its DTO.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	entries := make([]WorkoutEntryResponse, len(w.Entries))
	for i, e := range w.Entries {
		entries[i] = WorkoutEntryResponse{
			EquipmentID:  e.EquipmentID.Hex(),
			SeriesID:     e.SeriesID.Hex(),
			RepetitionID: e.RepetitionID.Hex(),
		}
	}
	return WorkoutResponse{
		ID:             w.ID.Hex(),
		StudentID:      w.StudentID.Hex(),
		TrainingTypeID: w.TrainingTypeID.Hex(),
		Description:    w.Description,
		Entries:        entries,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// MapWorkoutTimeToResponse converts a domain WorkoutTime to its DTO.
func MapWorkoutTimeToResponse(wt *domain.WorkoutTime) *WorkoutTimeResponse {
	if wt == nil {
		return nil
	}
	return &WorkoutTimeResponse{
		Status:      wt.Status,
		StatusLabel: wt.Status.Label(),
		StartedAt:   wt.StartedAt,
		CompletedAt: wt.CompletedAt,
	}
}

func mapWorkoutDetails(details []service.WorkoutDetail) []WorkoutDetailResponse {
	resp := make([]WorkoutDetailResponse, 0, len(details))
	for i := range details {
		d := &details[i]
		resp = append(resp, WorkoutDetailResponse{
			Workout:          MapWorkoutToResponse(&d.Workout),
			Time:             MapWorkoutTimeToResponse(d.Time),
			StudentName:      d.StudentName,
			TrainingTypeName: d.TrainingTypeName,
			Entries:          d.Entries,
		})
	}
	return resp
}

func parseEntries(reqEntries []WorkoutEntryRequest) ([]domain.WorkoutEntry, error) {
	entries := make([]domain.WorkoutEntry, len(reqEntries))
	for i, e := range reqEntries {
		equipmentID, err := primitive.ObjectIDFromHex(e.EquipmentID)
		if err != nil {
			return nil, errors.New("invalid equipment ID format")
		}
		seriesID, err := primitive.ObjectIDFromHex(e.SeriesID)
		if err != nil {
			return nil, errors.New("invalid series ID format")
		}
		repetitionID, err := primitive.ObjectIDFromHex(e.RepetitionID)
		if err != nil {
			return nil, errors.New("invalid repetition ID format")
		}
		entries[i] = domain.WorkoutEntry{
			EquipmentID:  equipmentID,
			SeriesID:     seriesID,
			RepetitionID: repetitionID,
		}
	}
	return entries, nil
}

// --- Student Roster Handlers ---

// AddStudentByEmail godoc
// @Summary Add a student to the teacher's roster by email
// @Description Associates an existing student user with the authenticated teacher.
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentRequest body AddStudentRequest true "Student's email"
// @Success 200 {object} UserResponse "Student successfully associated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (user is not a student, or already assigned elsewhere)"
// @Failure 404 {object} gin.H "Student not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/students [post]
func (h *WorkoutHandler) AddStudentByEmail(c *gin.Context) {
	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	student, err := h.workoutService.AddStudentByEmail(c.Request.Context(), teacherID, req.StudentEmail)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrStudentNotRole) || errors.Is(err, service.ErrStudentAlreadyAssigned) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add student.")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(student))
}

// GetManagedStudents godoc
// @Summary Get the teacher's managed students
// @Description Retrieves the list of students assigned to the authenticated teacher.
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse "List of managed students"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/students [get]
func (h *WorkoutHandler) GetManagedStudents(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	students, err := h.workoutService.GetManagedStudents(c.Request.Context(), teacherID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve managed students.")
		return
	}

	resp := make([]UserResponse, 0, len(students))
	for i := range students {
		resp = append(resp, MapUserToResponse(&students[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// --- Workout Composition Handlers ---

// CreateWorkout godoc
// @Summary Create a workout for a student
// @Description Composes a workout from catalog items and creates its paired execution-state record.
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body WorkoutRequest true "Workout definition"
// @Success 201 {object} WorkoutResponse "Workout created"
// @Failure 400 {object} gin.H "Invalid input (unknown catalog item, wrong kind, empty entries)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (student not managed by this teacher)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	studentID, err := primitive.ObjectIDFromHex(req.StudentID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid student ID format.")
		return
	}
	trainingTypeID, err := primitive.ObjectIDFromHex(req.TrainingTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training type ID format.")
		return
	}
	entries, err := parseEntries(req.Entries)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), teacherID, studentID, trainingTypeID, req.Description, entries)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrStudentNotFound) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create workout.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// UpdateWorkout godoc
// @Summary Edit a workout
// @Description Updates a workout's description, training type and entries. Rejected once execution has started.
// @Tags Teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Param workout body WorkoutRequest true "New workout definition"
// @Success 200 {object} WorkoutResponse "Workout updated"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (owned by another teacher)"
// @Failure 404 {object} gin.H "Workout not found"
// @Failure 409 {object} gin.H "Conflict (workout already started)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/workouts/{workoutId} [put]
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format in URL.")
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	trainingTypeID, err := primitive.ObjectIDFromHex(req.TrainingTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid training type ID format.")
		return
	}
	entries, err := parseEntries(req.Entries)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), teacherID, workoutID, trainingTypeID, req.Description, entries)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrWorkoutAccessDenied) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else if errors.Is(err, service.ErrWorkoutLocked) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrStudentNotManaged) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update workout.")
		}
		return
	}

	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// DeleteWorkout godoc
// @Summary Delete a workout
// @Description Removes a workout and its execution-state record.
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Workout ID"
// @Success 204 "Workout deleted"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Workout not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/workouts/{workoutId} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format in URL.")
		return
	}

	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	err = h.workoutService.DeleteWorkout(c.Request.Context(), teacherID, workoutID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete workout.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Workout Viewing Handlers ---

// GetTeacherWorkouts godoc
// @Summary Get the teacher's workouts
// @Description Retrieves all workouts created by the teacher, with execution state joined in.
// @Tags Teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutDetailResponse "Workouts"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/workouts [get]
func (h *WorkoutHandler) GetTeacherWorkouts(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	details, err := h.workoutService.GetWorkoutsForTeacher(c.Request.Context(), teacherID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, mapWorkoutDetails(details))
}

// GetStudentWorkouts godoc
// @Summary Get the student's assigned workouts
// @Description Retrieves the authenticated student's workouts with execution state joined in.
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutDetailResponse "Workouts"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /student/workouts [get]
func (h *WorkoutHandler) GetStudentWorkouts(c *gin.Context) {
	studentID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	details, err := h.workoutService.GetWorkoutsForStudent(c.Request.Context(), studentID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, mapWorkoutDetails(details))
}
