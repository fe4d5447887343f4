package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fitcoach/training-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// reportFixture extends the composer fixture with the report service and
// its export dependencies.
type reportFixture struct {
	*composerFixture
	exportRepo *fakeExportRepo
	storage    *fakeStorage
	reports    ReportService
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		composerFixture: newComposerFixture(),
		exportRepo:      &fakeExportRepo{},
		storage:         newFakeStorage(),
	}
	f.reports = NewReportService(f.userRepo, f.catalogRepo, f.workoutRepo, f.timeRepo, f.exportRepo, f.storage, 0)
	return f
}

func (f *reportFixture) createWorkout(t *testing.T, studentID primitive.ObjectID) *domain.Workout {
	t.Helper()
	w, err := f.svc.CreateWorkout(context.Background(), f.teacherID, studentID, f.trainingType.ID, "", f.entries())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	return w
}

// setExecution overwrites a workout's execution state directly, bypassing
// the state machine, so tests can pin exact timestamps.
func (f *reportFixture) setExecution(workoutID primitive.ObjectID, status domain.WorkoutStatus, startedAt, completedAt *time.Time) {
	wt := f.timeRepo.times[workoutID]
	wt.Status = status
	wt.StartedAt = startedAt
	wt.CompletedAt = completedAt
}

func ts(t time.Time) *time.Time { return &t }

// TestWorkoutReport_RowsOrderedAndFormatted verifies one row per workout in
// assignment order, with HH:MM:SS durations for completed workouts and N/A
// for the rest.
func TestWorkoutReport_RowsOrderedAndFormatted(t *testing.T) {
	f := newReportFixture()
	w1 := f.createWorkout(t, f.studentID)
	w2 := f.createWorkout(t, f.studentID)
	w3 := f.createWorkout(t, f.studentID)

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w1.ID, domain.StatusCompleted, ts(start), ts(start.Add(95*time.Minute+5*time.Second)))
	f.setExecution(w2.ID, domain.StatusInProgress, ts(start), nil)

	rows, err := f.reports.WorkoutReportForTeacher(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("WorkoutReportForTeacher: unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	// Assignment (creation) order is stable.
	wantOrder := []string{w1.ID.Hex(), w2.ID.Hex(), w3.ID.Hex()}
	for i, want := range wantOrder {
		if rows[i].WorkoutID != want {
			t.Errorf("row %d workout = %s, want %s", i, rows[i].WorkoutID, want)
		}
	}

	if rows[0].Duration != "01:35:05" {
		t.Errorf("completed duration = %q, want %q", rows[0].Duration, "01:35:05")
	}
	if rows[0].StatusLabel != "Completed" {
		t.Errorf("status label = %q, want %q", rows[0].StatusLabel, "Completed")
	}
	if rows[1].Duration != "N/A" || rows[1].CompletedAt != "N/A" {
		t.Error("in-progress row should have N/A duration and completion")
	}
	if rows[2].StartedAt != "N/A" || rows[2].Duration != "N/A" {
		t.Error("not-started row should have N/A timestamps and duration")
	}
	if rows[2].StatusLabel != "Not Started" {
		t.Errorf("status label = %q, want %q", rows[2].StatusLabel, "Not Started")
	}
}

// TestWorkoutReport_ZeroDuration verifies a zero elapsed time renders as
// 00:00:00, not as N/A.
func TestWorkoutReport_ZeroDuration(t *testing.T) {
	f := newReportFixture()
	w := f.createWorkout(t, f.studentID)
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w.ID, domain.StatusCompleted, ts(at), ts(at))

	rows, err := f.reports.WorkoutReportForTeacher(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("WorkoutReportForTeacher: %v", err)
	}
	if rows[0].Duration != "00:00:00" {
		t.Errorf("duration = %q, want %q", rows[0].Duration, "00:00:00")
	}
}

// TestWorkoutReport_DateFilter verifies the from/to bounds compare calendar
// dates in the viewer's location, inclusive on both ends.
func TestWorkoutReport_DateFilter(t *testing.T) {
	f := newReportFixture()
	w1 := f.createWorkout(t, f.studentID) // created 2025-06-01 08:01 UTC
	w2 := f.createWorkout(t, f.studentID) // 08:02
	_ = w2

	// Push the third workout to the next day.
	f.workoutRepo.clock = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	w3 := f.createWorkout(t, f.studentID)

	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows, err := f.reports.WorkoutReportForTeacher(context.Background(), f.teacherID, ReportFilter{
		From:     ts(day1),
		To:       ts(day1), // single inclusive day
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("WorkoutReportForTeacher: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows for day one, want 2", len(rows))
	}
	if rows[0].WorkoutID != w1.ID.Hex() {
		t.Error("wrong first row for day-one filter")
	}

	day2 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rows, err = f.reports.WorkoutReportForTeacher(context.Background(), f.teacherID, ReportFilter{
		From:     ts(day2),
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("WorkoutReportForTeacher: %v", err)
	}
	if len(rows) != 1 || rows[0].WorkoutID != w3.ID.Hex() {
		t.Errorf("open-ended from filter returned %d rows", len(rows))
	}
}

// TestWorkoutReport_StatusFilter verifies filtering to a single status.
func TestWorkoutReport_StatusFilter(t *testing.T) {
	f := newReportFixture()
	w1 := f.createWorkout(t, f.studentID)
	f.createWorkout(t, f.studentID)

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w1.ID, domain.StatusCompleted, ts(start), ts(start.Add(time.Hour)))

	status := domain.StatusCompleted
	rows, err := f.reports.WorkoutReportForTeacher(context.Background(), f.teacherID, ReportFilter{Status: &status, Location: time.UTC})
	if err != nil {
		t.Fatalf("WorkoutReportForTeacher: %v", err)
	}
	if len(rows) != 1 || rows[0].WorkoutID != w1.ID.Hex() {
		t.Errorf("status filter returned %d rows", len(rows))
	}
}

// TestStudentSummary_Aggregates verifies per-student counts by status and
// the mean duration over completed workouts only.
func TestStudentSummary_Aggregates(t *testing.T) {
	f := newReportFixture()

	// Second managed student.
	other := f.userRepo.add(&domain.User{Name: "Another", Email: "a@example.com", Role: domain.RoleStudent, TeacherID: &f.teacherID})

	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	// First student: two completed (10m and 30m), one in progress.
	c1 := f.createWorkout(t, f.studentID)
	c2 := f.createWorkout(t, f.studentID)
	p1 := f.createWorkout(t, f.studentID)
	f.setExecution(c1.ID, domain.StatusCompleted, ts(start), ts(start.Add(10*time.Minute)))
	f.setExecution(c2.ID, domain.StatusCompleted, ts(start), ts(start.Add(30*time.Minute)))
	f.setExecution(p1.ID, domain.StatusInProgress, ts(start), nil)

	// Second student: one not started.
	f.createWorkout(t, other.ID)

	rows, err := f.reports.StudentSummary(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("StudentSummary: unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d summary rows, want 2", len(rows))
	}

	first := rows[0]
	if first.StudentName != "Student" {
		t.Fatalf("first row student = %q", first.StudentName)
	}
	if first.Completed != 2 || first.InProgress != 1 || first.NotStarted != 0 {
		t.Errorf("counts = %d/%d/%d, want 0/1/2 (notStarted/inProgress/completed)",
			first.NotStarted, first.InProgress, first.Completed)
	}
	if first.AverageDuration != "00:20:00" {
		t.Errorf("average duration = %q, want %q", first.AverageDuration, "00:20:00")
	}

	second := rows[1]
	if second.NotStarted != 1 || second.AverageDuration != "N/A" {
		t.Errorf("second row = %+v, want one not-started and N/A average", second)
	}
}

// TestStudentSummary_OmitsStudentsWithoutWorkouts verifies a managed
// student with no matching workouts produces no row.
func TestStudentSummary_OmitsStudentsWithoutWorkouts(t *testing.T) {
	f := newReportFixture()
	f.userRepo.add(&domain.User{Name: "Idle", Email: "idle@example.com", Role: domain.RoleStudent, TeacherID: &f.teacherID})
	f.createWorkout(t, f.studentID)

	rows, err := f.reports.StudentSummary(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("StudentSummary: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].StudentName == "Idle" {
		t.Error("idle student should be omitted")
	}
}

// TestPlatformStats verifies the admin counters.
func TestPlatformStats(t *testing.T) {
	f := newReportFixture()
	f.userRepo.add(&domain.User{Name: "Admin", Email: "root@example.com", Role: domain.RoleAdmin})

	w1 := f.createWorkout(t, f.studentID)
	f.createWorkout(t, f.studentID)
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w1.ID, domain.StatusInProgress, ts(start), nil)

	stats, err := f.reports.PlatformStats(context.Background())
	if err != nil {
		t.Fatalf("PlatformStats: unexpected error: %v", err)
	}
	if stats.Teachers != 1 || stats.Students != 1 || stats.Admins != 1 {
		t.Errorf("user counts = %d/%d/%d, want 1/1/1", stats.Teachers, stats.Students, stats.Admins)
	}
	if stats.Workouts != 2 {
		t.Errorf("workouts = %d, want 2", stats.Workouts)
	}
	if stats.WorkoutsNotStarted != 1 || stats.WorkoutsInProgress != 1 || stats.WorkoutsCompleted != 0 {
		t.Errorf("workout status counts = %d/%d/%d, want 1/1/0",
			stats.WorkoutsNotStarted, stats.WorkoutsInProgress, stats.WorkoutsCompleted)
	}
}

// TestExportWorkoutReport verifies the full export path: CSV rendered,
// object stored under the teacher's prefix, metadata recorded, and a
// download URL returned.
func TestExportWorkoutReport(t *testing.T) {
	f := newReportFixture()
	w := f.createWorkout(t, f.studentID)
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w.ID, domain.StatusCompleted, ts(start), ts(start.Add(45*time.Minute)))

	result, err := f.reports.ExportWorkoutReport(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("ExportWorkoutReport: unexpected error: %v", err)
	}
	if result.RowCount != 1 {
		t.Errorf("row count = %d, want 1", result.RowCount)
	}
	if result.DownloadURL == "" {
		t.Error("missing download URL")
	}

	if len(f.storage.objects) != 1 {
		t.Fatalf("stored %d objects, want 1", len(f.storage.objects))
	}
	for key, body := range f.storage.objects {
		if !strings.HasPrefix(key, "exports/"+f.teacherID.Hex()+"/") {
			t.Errorf("object key %q not under the teacher's prefix", key)
		}
		content := string(body)
		if !strings.Contains(content, "Workout ID") {
			t.Error("CSV missing header row")
		}
		if !strings.Contains(content, "00:45:00") {
			t.Error("CSV missing formatted duration")
		}
	}

	exports, err := f.reports.ListExports(context.Background(), f.teacherID)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 1 || exports[0].RowCount != 1 {
		t.Errorf("export metadata = %+v", exports)
	}
}

// TestExportStudentSummary verifies the aggregate export renders counts and
// the average duration into the stored CSV.
func TestExportStudentSummary(t *testing.T) {
	f := newReportFixture()
	w := f.createWorkout(t, f.studentID)
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	f.setExecution(w.ID, domain.StatusCompleted, ts(start), ts(start.Add(20*time.Minute)))

	result, err := f.reports.ExportStudentSummary(context.Background(), f.teacherID, ReportFilter{Location: time.UTC})
	if err != nil {
		t.Fatalf("ExportStudentSummary: unexpected error: %v", err)
	}
	if result.RowCount != 1 {
		t.Errorf("row count = %d, want 1", result.RowCount)
	}

	for _, body := range f.storage.objects {
		content := string(body)
		if !strings.Contains(content, "Average Duration") {
			t.Error("CSV missing header row")
		}
		if !strings.Contains(content, "Student,0,0,1,00:20:00") {
			t.Errorf("CSV missing summary row, got:\n%s", content)
		}
	}
}

// TestFormatDuration verifies the HH:MM:SS rendering, including hours past
// the 24h mark.
func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Minute, "00:01:00"},
		{90 * time.Minute, "01:30:00"},
		{25*time.Hour + 61*time.Second, "25:01:01"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
