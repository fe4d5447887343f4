package service

import (
	"context"
	"sort"
	"time"

	"fitcoach/training-app/internal/domain"
	"fitcoach/training-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the repository interfaces. They mirror the store's
// observable behavior (not-found errors, the conditional status transition,
// stable Find ordering) without any I/O.

// --- fakeUserRepo ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) *domain.User {
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) AddStudentIDToTeacher(ctx context.Context, teacherID, studentID primitive.ObjectID) error {
	t, ok := r.users[teacherID]
	if !ok {
		return repository.ErrNotFound
	}
	t.StudentIDs = append(t.StudentIDs, studentID)
	return nil
}

func (r *fakeUserRepo) SetTeacherForStudent(ctx context.Context, studentID, teacherID primitive.ObjectID) error {
	s, ok := r.users[studentID]
	if !ok {
		return repository.ErrNotFound
	}
	s.TeacherID = &teacherID
	return nil
}

func (r *fakeUserRepo) GetStudentsByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.TeacherID != nil && *u.TeacherID == teacherID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- fakeCatalogRepo ---

type fakeCatalogRepo struct {
	items map[primitive.ObjectID]*domain.CatalogItem
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{items: make(map[primitive.ObjectID]*domain.CatalogItem)}
}

func (r *fakeCatalogRepo) add(teacherID primitive.ObjectID, kind domain.CatalogKind, name string) *domain.CatalogItem {
	item := &domain.CatalogItem{
		ID:        primitive.NewObjectID(),
		TeacherID: teacherID,
		Kind:      kind,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	r.items[item.ID] = item
	return item
}

func (r *fakeCatalogRepo) Create(ctx context.Context, item *domain.CatalogItem) (primitive.ObjectID, error) {
	item.ID = primitive.NewObjectID()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = item
	return item.ID, nil
}

func (r *fakeCatalogRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CatalogItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeCatalogRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	seen := make(map[primitive.ObjectID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if item, ok := r.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepo) GetByTeacherAndKind(ctx context.Context, teacherID primitive.ObjectID, kind domain.CatalogKind) ([]domain.CatalogItem, error) {
	var out []domain.CatalogItem
	for _, item := range r.items {
		if item.TeacherID == teacherID && item.Kind == kind {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) Update(ctx context.Context, item *domain.CatalogItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *item
	cp.UpdatedAt = time.Now()
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeCatalogRepo) Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error {
	item, ok := r.items[id]
	if !ok || item.TeacherID != teacherID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// --- fakeWorkoutRepo ---

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
	// clock makes CreatedAt deterministic and strictly increasing so the
	// stable Find ordering is observable in tests.
	clock time.Time
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{
		workouts: make(map[primitive.ObjectID]*domain.Workout),
		clock:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (r *fakeWorkoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	r.clock = r.clock.Add(time.Minute)
	workout.CreatedAt = r.clock
	workout.UpdatedAt = r.clock
	cp := *workout
	r.workouts[workout.ID] = &cp
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkoutRepo) Find(ctx context.Context, filter repository.WorkoutFilter) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range r.workouts {
		if filter.TeacherID != nil && w.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.StudentID != nil && w.StudentID != *filter.StudentID {
			continue
		}
		if filter.TrainingTypeID != nil && w.TrainingTypeID != *filter.TrainingTypeID {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r *fakeWorkoutRepo) Update(ctx context.Context, workout *domain.Workout) error {
	if _, ok := r.workouts[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *workout
	cp.UpdatedAt = time.Now()
	r.workouts[workout.ID] = &cp
	return nil
}

func (r *fakeWorkoutRepo) Delete(ctx context.Context, id primitive.ObjectID, teacherID primitive.ObjectID) error {
	w, ok := r.workouts[id]
	if !ok || w.TeacherID != teacherID {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *fakeWorkoutRepo) CountReferencingCatalogItem(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	var n int64
	for _, w := range r.workouts {
		if w.TrainingTypeID == itemID {
			n++
			continue
		}
		for _, e := range w.Entries {
			if e.EquipmentID == itemID || e.SeriesID == itemID || e.RepetitionID == itemID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *fakeWorkoutRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(r.workouts)), nil
}

// --- fakeTimeRepo ---

type fakeTimeRepo struct {
	times map[primitive.ObjectID]*domain.WorkoutTime // keyed by workout ID
	// failCreate makes the next Create fail, to exercise the paired-create
	// compensation path.
	failCreate bool
}

func newFakeTimeRepo() *fakeTimeRepo {
	return &fakeTimeRepo{times: make(map[primitive.ObjectID]*domain.WorkoutTime)}
}

func (r *fakeTimeRepo) add(wt *domain.WorkoutTime) *domain.WorkoutTime {
	if wt.ID == primitive.NilObjectID {
		wt.ID = primitive.NewObjectID()
	}
	r.times[wt.WorkoutID] = wt
	return wt
}

func (r *fakeTimeRepo) Create(ctx context.Context, wt *domain.WorkoutTime) (primitive.ObjectID, error) {
	if r.failCreate {
		return primitive.NilObjectID, repository.RepositoryError("insert failed")
	}
	wt.ID = primitive.NewObjectID()
	wt.CreatedAt = time.Now()
	wt.UpdatedAt = wt.CreatedAt
	cp := *wt
	r.times[wt.WorkoutID] = &cp
	return wt.ID, nil
}

func (r *fakeTimeRepo) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.WorkoutTime, error) {
	wt, ok := r.times[workoutID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *wt
	return &cp, nil
}

func (r *fakeTimeRepo) GetByWorkoutIDs(ctx context.Context, workoutIDs []primitive.ObjectID) ([]domain.WorkoutTime, error) {
	var out []domain.WorkoutTime
	for _, id := range workoutIDs {
		if wt, ok := r.times[id]; ok {
			out = append(out, *wt)
		}
	}
	return out, nil
}

func (r *fakeTimeRepo) CountByStudentAndStatus(ctx context.Context, studentID primitive.ObjectID, status domain.WorkoutStatus) (int64, error) {
	var n int64
	for _, wt := range r.times {
		if wt.StudentID == studentID && wt.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeTimeRepo) CountByStatus(ctx context.Context, status domain.WorkoutStatus) (int64, error) {
	var n int64
	for _, wt := range r.times {
		if wt.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeTimeRepo) TransitionStatus(ctx context.Context, workoutID primitive.ObjectID, from, to domain.WorkoutStatus, startedAt, completedAt *time.Time) error {
	wt, ok := r.times[workoutID]
	if !ok || wt.Status != from {
		return repository.ErrStatusConflict
	}
	wt.Status = to
	wt.StartedAt = startedAt
	wt.CompletedAt = completedAt
	wt.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTimeRepo) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) error {
	if _, ok := r.times[workoutID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.times, workoutID)
	return nil
}

// --- fakeExportRepo ---

type fakeExportRepo struct {
	exports []domain.ReportExport
}

func (r *fakeExportRepo) Create(ctx context.Context, export *domain.ReportExport) (primitive.ObjectID, error) {
	export.ID = primitive.NewObjectID()
	export.CreatedAt = time.Now()
	r.exports = append(r.exports, *export)
	return export.ID, nil
}

func (r *fakeExportRepo) GetByTeacherID(ctx context.Context, teacherID primitive.ObjectID) ([]domain.ReportExport, error) {
	var out []domain.ReportExport
	for i := len(r.exports) - 1; i >= 0; i-- {
		if r.exports[i].TeacherID == teacherID {
			out = append(out, r.exports[i])
		}
	}
	return out, nil
}

// --- fakeStorage ---

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) UploadObject(ctx context.Context, objectKey, contentType string, body []byte) error {
	s.objects[objectKey] = body
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return "https://example.test/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}
