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

// ReportHandler serves the workout reports, per-student aggregates, CSV
// exports and the admin platform statistics.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// --- DTOs ---

type ExportEntryResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	RowCount  int       `json:"rowCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// reportFilterFromQuery parses the optional report query parameters:
// studentId, trainingTypeId, status, from, to (dates as 2006-01-02) and tz
// (IANA name, defaults to the server's local zone).
func reportFilterFromQuery(c *gin.Context) (service.ReportFilter, error) {
	var filter service.ReportFilter

	if s := c.Query("studentId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, errors.New("invalid studentId format")
		}
		filter.StudentID = &id
	}
	if s := c.Query("trainingTypeId"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return filter, errors.New("invalid trainingTypeId format")
		}
		filter.TrainingTypeID = &id
	}
	if s := c.Query("status"); s != "" {
		status := domain.WorkoutStatus(s)
		if !domain.ValidWorkoutStatus(status) {
			return filter, errors.New("invalid status value")
		}
		filter.Status = &status
	}

	loc := time.Local
	if s := c.Query("tz"); s != "" {
		parsed, err := time.LoadLocation(s)
		if err != nil {
			return filter, errors.New("invalid tz value")
		}
		loc = parsed
	}
	filter.Location = loc

	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			return filter, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		filter.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			return filter, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		filter.To = &t
	}
	return filter, nil
}

// --- Handler Methods ---

// GetTeacherReport godoc
// @Summary Workout report for the teacher
// @Description One row per workout with status, timestamps and duration. Supports studentId, trainingTypeId, status, from, to and tz query filters.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.WorkoutRow "Report rows"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/reports/workouts [get]
func (h *ReportHandler) GetTeacherReport(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.reportService.WorkoutReportForTeacher(c.Request.Context(), teacherID, filter)
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetStudentReport godoc
// @Summary Workout report for the student
// @Description The student's own workouts, one row each. Supports trainingTypeId, status, from, to and tz query filters.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.WorkoutRow "Report rows"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /student/reports/workouts [get]
func (h *ReportHandler) GetStudentReport(c *gin.Context) {
	studentID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.reportService.WorkoutReportForStudent(c.Request.Context(), studentID, filter)
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetStudentSummary godoc
// @Summary Per-student aggregate report
// @Description Counts by status and mean completed duration per student. Students with no matching workouts are omitted.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.StudentSummaryRow "Summary rows"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/reports/students [get]
func (h *ReportHandler) GetStudentSummary(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.reportService.StudentSummary(c.Request.Context(), teacherID, filter)
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ExportReport godoc
// @Summary Export the workout report as CSV
// @Description Renders the filtered report to CSV, stores it, and returns a time-limited download URL.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.ExportResult "Export created"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/reports/workouts/export [post]
func (h *ReportHandler) ExportReport(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reportService.ExportWorkoutReport(c.Request.Context(), teacherID, filter)
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ExportStudentSummary godoc
// @Summary Export the per-student summary as CSV
// @Description Renders the filtered per-student aggregate to CSV, stores it, and returns a time-limited download URL.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.ExportResult "Export created"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/reports/students/export [post]
func (h *ReportHandler) ExportStudentSummary(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.reportService.ExportStudentSummary(c.Request.Context(), teacherID, filter)
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListExports godoc
// @Summary List the teacher's report exports
// @Description Returns the export history, newest first.
// @Tags Report
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ExportEntryResponse "Exports"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /teacher/reports/exports [get]
func (h *ReportHandler) ListExports(c *gin.Context) {
	teacherID, ok := userObjectIDFromContext(c)
	if !ok {
		return
	}

	exports, err := h.reportService.ListExports(c.Request.Context(), teacherID)
	if err != nil {
		respondReportError(c, err)
		return
	}

	resp := make([]ExportEntryResponse, 0, len(exports))
	for _, e := range exports {
		resp = append(resp, ExportEntryResponse{
			ID:        e.ID.Hex(),
			FileName:  e.FileName,
			RowCount:  e.RowCount,
			CreatedAt: e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetPlatformStats godoc
// @Summary Platform statistics
// @Description Aggregate user and workout counters for administrators.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PlatformStats "Counters"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not an admin)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /admin/stats [get]
func (h *ReportHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.reportService.PlatformStats(c.Request.Context())
	if err != nil {
		respondReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondReportError maps report service errors to HTTP status codes.
func respondReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreTimeout):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrExportRenderFailed), errors.Is(err, service.ErrExportUploadFailed):
		abortWithError(c, http.StatusInternalServerError, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to build report.")
	}
}
