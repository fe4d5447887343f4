package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/export"
	"fitcoach/training-app/internal/repository"
	"fitcoach/training-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExportRenderFailed = errors.New("failed to render report export")
	ErrExportUploadFailed = errors.New("failed to upload report export")
)

// Display value for a duration that cannot be derived. A zero duration is
// a real value (started and completed in the same second) and is rendered
// as 00:00:00, never as this.
const durationNotAvailable = "N/A"

const (
	reportTimestampLayout = "2006-01-02 15:04:05"
	reportDateLayout      = "2006-01-02"
)

// ReportFilter narrows report output. Nil fields are ignored. From/To
// bound the workout's assignment date (its creation timestamp) by calendar
// date in Location, inclusive on both ends.
type ReportFilter struct {
	StudentID      *primitive.ObjectID
	TrainingTypeID *primitive.ObjectID
	Status         *domain.WorkoutStatus
	From           *time.Time
	To             *time.Time
	Location       *time.Location // Viewer's calendar; defaults to time.Local
}

// WorkoutRow is one row of the row-per-workout report, formatted for
// display or export.
type WorkoutRow struct {
	WorkoutID    string               `json:"workoutId"`
	StudentName  string               `json:"studentName"`
	TrainingType string               `json:"trainingType"`
	Status       domain.WorkoutStatus `json:"status"`
	StatusLabel  string               `json:"statusLabel"`
	StartedAt    string               `json:"startedAt"`
	CompletedAt  string               `json:"completedAt"`
	Duration     string               `json:"duration"`   // HH:MM:SS or N/A
	AssignedOn   string               `json:"assignedOn"` // Workout creation date
}

// StudentSummaryRow is one row of the per-student aggregate report.
type StudentSummaryRow struct {
	StudentID       string `json:"studentId"`
	StudentName     string `json:"studentName"`
	NotStarted      int    `json:"notStarted"`
	InProgress      int    `json:"inProgress"`
	Completed       int    `json:"completed"`
	AverageDuration string `json:"averageDuration"` // HH:MM:SS or N/A
}

// PlatformStats holds the aggregate counters shown to administrators.
type PlatformStats struct {
	Teachers           int64 `json:"teachers"`
	Students           int64 `json:"students"`
	Admins             int64 `json:"admins"`
	Workouts           int64 `json:"workouts"`
	WorkoutsNotStarted int64 `json:"workoutsNotStarted"`
	WorkoutsInProgress int64 `json:"workoutsInProgress"`
	WorkoutsCompleted  int64 `json:"workoutsCompleted"`
}

// ExportResult points at a rendered report file in object storage.
type ExportResult struct {
	FileName    string `json:"fileName"`
	RowCount    int    `json:"rowCount"`
	DownloadURL string `json:"downloadUrl"`
}

// ReportService is the report aggregator: it joins workouts, their
// execution-state records and the catalog into display rows, and renders
// exports of them.
type ReportService interface {
	WorkoutReportForTeacher(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) ([]WorkoutRow, error)
	WorkoutReportForStudent(ctx context.Context, studentID primitive.ObjectID, filter ReportFilter) ([]WorkoutRow, error)
	StudentSummary(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) ([]StudentSummaryRow, error)
	PlatformStats(ctx context.Context) (*PlatformStats, error)
	ExportWorkoutReport(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) (*ExportResult, error)
	ExportStudentSummary(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) (*ExportResult, error)
	ListExports(ctx context.Context, teacherID primitive.ObjectID) ([]domain.ReportExport, error)
}

// reportService implements the ReportService interface.
type reportService struct {
	userRepo    repository.UserRepository
	catalogRepo repository.CatalogRepository
	workoutRepo repository.WorkoutRepository
	timeRepo    repository.WorkoutTimeRepository
	exportRepo  repository.ExportRepository
	fileStorage storage.FileStorage
	opTimeout   time.Duration
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	userRepo repository.UserRepository,
	catalogRepo repository.CatalogRepository,
	workoutRepo repository.WorkoutRepository,
	timeRepo repository.WorkoutTimeRepository,
	exportRepo repository.ExportRepository,
	fileStorage storage.FileStorage,
	opTimeout time.Duration,
) ReportService {
	return &reportService{
		userRepo:    userRepo,
		catalogRepo: catalogRepo,
		workoutRepo: workoutRepo,
		timeRepo:    timeRepo,
		exportRepo:  exportRepo,
		fileStorage: fileStorage,
		opTimeout:   opTimeout,
	}
}

// WorkoutReportForTeacher builds the row-per-workout report over a
// teacher's workouts.
func (s *reportService) WorkoutReportForTeacher(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) ([]WorkoutRow, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	repoFilter := repository.WorkoutFilter{
		TeacherID:      &teacherID,
		StudentID:      filter.StudentID,
		TrainingTypeID: filter.TrainingTypeID,
	}
	return s.buildWorkoutRows(ctx, repoFilter, filter)
}

// WorkoutReportForStudent builds the same report scoped to one student's
// own workouts.
func (s *reportService) WorkoutReportForStudent(ctx context.Context, studentID primitive.ObjectID, filter ReportFilter) ([]WorkoutRow, error) {
	if studentID == primitive.NilObjectID {
		return nil, errors.New("student ID is required")
	}
	repoFilter := repository.WorkoutFilter{
		StudentID:      &studentID,
		TrainingTypeID: filter.TrainingTypeID,
	}
	return s.buildWorkoutRows(ctx, repoFilter, filter)
}

func (s *reportService) buildWorkoutRows(ctx context.Context, repoFilter repository.WorkoutFilter, filter ReportFilter) ([]WorkoutRow, error) {
	loc := filter.location()

	workouts, err := s.findWorkouts(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	// Date filtering happens on calendar dates in the viewer's location,
	// inclusive on both ends.
	filtered := workouts[:0]
	for _, w := range workouts {
		if inDateRange(w.CreatedAt, filter.From, filter.To, loc) {
			filtered = append(filtered, w)
		}
	}
	workouts = filtered
	if len(workouts) == 0 {
		return []WorkoutRow{}, nil
	}

	timeByWorkout, err := s.timesByWorkout(ctx, workouts)
	if err != nil {
		return nil, err
	}
	studentNames, catalogNames, err := s.displayNames(ctx, workouts)
	if err != nil {
		return nil, err
	}

	rows := make([]WorkoutRow, 0, len(workouts))
	for _, w := range workouts {
		wt, hasTime := timeByWorkout[w.ID]

		if filter.Status != nil {
			if !hasTime || wt.Status != *filter.Status {
				continue
			}
		}

		row := WorkoutRow{
			WorkoutID:    w.ID.Hex(),
			StudentName:  lookupName(studentNames, w.StudentID),
			TrainingType: lookupName(catalogNames, w.TrainingTypeID),
			StartedAt:    durationNotAvailable,
			CompletedAt:  durationNotAvailable,
			Duration:     durationNotAvailable,
			AssignedOn:   w.CreatedAt.In(loc).Format(reportDateLayout),
		}
		if hasTime {
			row.Status = wt.Status
			row.StatusLabel = wt.Status.Label()
			if wt.StartedAt != nil {
				row.StartedAt = wt.StartedAt.In(loc).Format(reportTimestampLayout)
			}
			if wt.CompletedAt != nil {
				row.CompletedAt = wt.CompletedAt.In(loc).Format(reportTimestampLayout)
			}
			if d, ok := wt.Duration(); ok {
				row.Duration = formatDuration(d)
			}
		} else {
			// Pairing invariant broken; degrade the row, don't fail the report.
			row.StatusLabel = displayNotAvailable
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// StudentSummary builds the per-student aggregate report for a teacher:
// counts by status and the mean duration of completed workouts. Students
// with zero matching workouts are omitted.
func (s *reportService) StudentSummary(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) ([]StudentSummaryRow, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	loc := filter.location()

	workouts, err := s.findWorkouts(ctx, repository.WorkoutFilter{
		TeacherID: &teacherID,
		StudentID: filter.StudentID,
	})
	if err != nil {
		return nil, err
	}

	filtered := workouts[:0]
	for _, w := range workouts {
		if inDateRange(w.CreatedAt, filter.From, filter.To, loc) {
			filtered = append(filtered, w)
		}
	}
	workouts = filtered
	if len(workouts) == 0 {
		return []StudentSummaryRow{}, nil
	}

	timeByWorkout, err := s.timesByWorkout(ctx, workouts)
	if err != nil {
		return nil, err
	}

	type acc struct {
		notStarted, inProgress, completed int
		durationSum                       time.Duration
		durationCount                     int
	}
	accs := make(map[primitive.ObjectID]*acc)
	// Student order follows first appearance in the (stable) workout order.
	order := make([]primitive.ObjectID, 0)
	studentIDSet := make(map[primitive.ObjectID]struct{})

	for _, w := range workouts {
		wt, ok := timeByWorkout[w.ID]
		if !ok {
			// No execution state to aggregate for this workout.
			continue
		}
		a := accs[w.StudentID]
		if a == nil {
			a = &acc{}
			accs[w.StudentID] = a
			order = append(order, w.StudentID)
			studentIDSet[w.StudentID] = struct{}{}
		}
		switch wt.Status {
		case domain.StatusNotStarted:
			a.notStarted++
		case domain.StatusInProgress:
			a.inProgress++
		case domain.StatusCompleted:
			a.completed++
			if d, ok := wt.Duration(); ok {
				a.durationSum += d
				a.durationCount++
			}
		}
	}

	names, err := s.userNames(ctx, studentIDSet)
	if err != nil {
		return nil, err
	}

	rows := make([]StudentSummaryRow, 0, len(order))
	for _, studentID := range order {
		a := accs[studentID]
		row := StudentSummaryRow{
			StudentID:       studentID.Hex(),
			StudentName:     lookupName(names, studentID),
			NotStarted:      a.notStarted,
			InProgress:      a.inProgress,
			Completed:       a.completed,
			AverageDuration: durationNotAvailable,
		}
		if a.durationCount > 0 {
			row.AverageDuration = formatDuration(a.durationSum / time.Duration(a.durationCount))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PlatformStats computes the aggregate counters for the admin dashboard.
func (s *reportService) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()

	stats := &PlatformStats{}
	var err error
	if stats.Teachers, err = s.userRepo.CountByRole(opCtx, domain.RoleTeacher); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.Students, err = s.userRepo.CountByRole(opCtx, domain.RoleStudent); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.Admins, err = s.userRepo.CountByRole(opCtx, domain.RoleAdmin); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.Workouts, err = s.workoutRepo.CountAll(opCtx); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.WorkoutsNotStarted, err = s.timeRepo.CountByStatus(opCtx, domain.StatusNotStarted); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.WorkoutsInProgress, err = s.timeRepo.CountByStatus(opCtx, domain.StatusInProgress); err != nil {
		return nil, mapStoreErr(err)
	}
	if stats.WorkoutsCompleted, err = s.timeRepo.CountByStatus(opCtx, domain.StatusCompleted); err != nil {
		return nil, mapStoreErr(err)
	}
	return stats, nil
}

// ExportWorkoutReport renders a teacher's row-per-workout report to CSV,
// uploads it to object storage under a fresh key, records the export
// metadata, and returns a presigned download URL.
func (s *reportService) ExportWorkoutReport(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) (*ExportResult, error) {
	rows, err := s.WorkoutReportForTeacher(ctx, teacherID, filter)
	if err != nil {
		return nil, err
	}

	exportRows := make([]export.WorkoutRow, len(rows))
	for i, r := range rows {
		exportRows[i] = export.WorkoutRow{
			WorkoutID:    r.WorkoutID,
			StudentName:  r.StudentName,
			TrainingType: r.TrainingType,
			StatusLabel:  r.StatusLabel,
			StartedAt:    r.StartedAt,
			CompletedAt:  r.CompletedAt,
			Duration:     r.Duration,
			AssignedOn:   r.AssignedOn,
		}
	}
	data, err := export.WorkoutReportCSV(exportRows)
	if err != nil {
		return nil, ErrExportRenderFailed
	}

	fileName := fmt.Sprintf("workout-report-%s.csv", time.Now().UTC().Format(reportDateLayout))
	return s.storeExport(ctx, teacherID, fileName, data, len(rows))
}

// ExportStudentSummary renders the per-student aggregate report to CSV and
// stores it the same way as the workout report export.
func (s *reportService) ExportStudentSummary(ctx context.Context, teacherID primitive.ObjectID, filter ReportFilter) (*ExportResult, error) {
	rows, err := s.StudentSummary(ctx, teacherID, filter)
	if err != nil {
		return nil, err
	}

	exportRows := make([]export.SummaryRow, len(rows))
	for i, r := range rows {
		exportRows[i] = export.SummaryRow{
			StudentName:     r.StudentName,
			NotStarted:      strconv.Itoa(r.NotStarted),
			InProgress:      strconv.Itoa(r.InProgress),
			Completed:       strconv.Itoa(r.Completed),
			AverageDuration: r.AverageDuration,
		}
	}
	data, err := export.StudentSummaryCSV(exportRows)
	if err != nil {
		return nil, ErrExportRenderFailed
	}

	fileName := fmt.Sprintf("student-summary-%s.csv", time.Now().UTC().Format(reportDateLayout))
	return s.storeExport(ctx, teacherID, fileName, data, len(rows))
}

// storeExport uploads a rendered export, records its metadata and returns
// the presigned download URL.
func (s *reportService) storeExport(ctx context.Context, teacherID primitive.ObjectID, fileName string, data []byte, rowCount int) (*ExportResult, error) {
	objectKey := path.Join("exports", teacherID.Hex(), fmt.Sprintf("%s.csv", uuid.NewString()))

	if err := s.fileStorage.UploadObject(ctx, objectKey, export.CSVContentType, data); err != nil {
		return nil, ErrExportUploadFailed
	}

	meta := &domain.ReportExport{
		TeacherID:   teacherID,
		S3ObjectKey: objectKey,
		FileName:    fileName,
		ContentType: export.CSVContentType,
		RowCount:    rowCount,
	}
	if _, err := s.exportRepo.Create(ctx, meta); err != nil {
		// The object is already uploaded; drop it so no orphan file remains.
		_ = s.fileStorage.DeleteObject(ctx, objectKey)
		return nil, ErrExportUploadFailed
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrExportUploadFailed
	}

	return &ExportResult{
		FileName:    fileName,
		RowCount:    rowCount,
		DownloadURL: downloadURL,
	}, nil
}

// ListExports retrieves a teacher's export history.
func (s *reportService) ListExports(ctx context.Context, teacherID primitive.ObjectID) ([]domain.ReportExport, error) {
	if teacherID == primitive.NilObjectID {
		return nil, errors.New("teacher ID is required")
	}
	return s.exportRepo.GetByTeacherID(ctx, teacherID)
}

// === Helpers ===

func (f ReportFilter) location() *time.Location {
	if f.Location != nil {
		return f.Location
	}
	return time.Local
}

// findWorkouts reads the workout scope with the bounded timeout. Reads are
// retryable on timeout; one retry is attempted before giving up.
func (s *reportService) findWorkouts(ctx context.Context, repoFilter repository.WorkoutFilter) ([]domain.Workout, error) {
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	workouts, err := s.workoutRepo.Find(opCtx, repoFilter)
	cancel()
	if err == nil {
		return workouts, nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	retryCtx, retryCancel := withOpTimeout(ctx, s.opTimeout)
	defer retryCancel()
	workouts, err = s.workoutRepo.Find(retryCtx, repoFilter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return workouts, nil
}

func (s *reportService) timesByWorkout(ctx context.Context, workouts []domain.Workout) (map[primitive.ObjectID]domain.WorkoutTime, error) {
	ids := make([]primitive.ObjectID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}

	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()
	times, err := s.timeRepo.GetByWorkoutIDs(opCtx, ids)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	byWorkout := make(map[primitive.ObjectID]domain.WorkoutTime, len(times))
	for _, t := range times {
		byWorkout[t.WorkoutID] = t
	}
	return byWorkout, nil
}

func (s *reportService) displayNames(ctx context.Context, workouts []domain.Workout) (map[primitive.ObjectID]string, map[primitive.ObjectID]string, error) {
	studentIDSet := make(map[primitive.ObjectID]struct{})
	catalogIDSet := make(map[primitive.ObjectID]struct{})
	for _, w := range workouts {
		studentIDSet[w.StudentID] = struct{}{}
		catalogIDSet[w.TrainingTypeID] = struct{}{}
	}

	studentNames, err := s.userNames(ctx, studentIDSet)
	if err != nil {
		return nil, nil, err
	}

	catalogIDs := make([]primitive.ObjectID, 0, len(catalogIDSet))
	for id := range catalogIDSet {
		catalogIDs = append(catalogIDs, id)
	}
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()
	items, err := s.catalogRepo.GetByIDs(opCtx, catalogIDs)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	catalogNames := make(map[primitive.ObjectID]string, len(items))
	for _, item := range items {
		catalogNames[item.ID] = item.Name
	}
	return studentNames, catalogNames, nil
}

func (s *reportService) userNames(ctx context.Context, idSet map[primitive.ObjectID]struct{}) (map[primitive.ObjectID]string, error) {
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	opCtx, cancel := withOpTimeout(ctx, s.opTimeout)
	defer cancel()
	users, err := s.userRepo.GetByIDs(opCtx, ids)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// inDateRange compares the calendar date of t (in loc) against the
// inclusive [from, to] bounds. Nil bounds are open.
func inDateRange(t time.Time, from, to *time.Time, loc *time.Location) bool {
	day := dateOnly(t, loc)
	if from != nil && day.Before(dateOnly(*from, loc)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to, loc)) {
		return false
	}
	return true
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// formatDuration renders an elapsed time as HH:MM:SS. Hours grow past 24
// rather than rolling over into days.
func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
