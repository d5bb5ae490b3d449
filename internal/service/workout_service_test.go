package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"liftlog/internal/domain"
	"liftlog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeWorkoutRepo is an in-memory WorkoutRepository honoring the same
// contract as the Mongo implementation: ownership filters, the inclusive
// day window, result ordering and the cascade delete.
type fakeWorkoutRepo struct {
	workouts         map[primitive.ObjectID]domain.Workout
	workoutExercises map[primitive.ObjectID]domain.WorkoutExercise
	sets             map[primitive.ObjectID]domain.Set
	exercises        map[primitive.ObjectID]domain.Exercise
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{
		workouts:         map[primitive.ObjectID]domain.Workout{},
		workoutExercises: map[primitive.ObjectID]domain.WorkoutExercise{},
		sets:             map[primitive.ObjectID]domain.Set{},
		exercises:        map[primitive.ObjectID]domain.Exercise{},
	}
}

func (f *fakeWorkoutRepo) seedExercise(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	f.exercises[id] = domain.Exercise{ID: id, Name: name}
	return id
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (*domain.Workout, error) {
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	f.workouts[workout.ID] = *workout
	return workout, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	w, ok := f.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (f *fakeWorkoutRepo) GetDetailByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	w, err := f.GetByID(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	detail := f.expand(*w)
	return &detail, nil
}

func (f *fakeWorkoutRepo) GetByDate(_ context.Context, userID primitive.ObjectID, day time.Time) ([]domain.WorkoutDetail, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Millisecond)

	var matched []domain.Workout
	for _, w := range f.workouts {
		if w.UserID != userID {
			continue
		}
		if w.StartedAt.Before(start) || w.StartedAt.After(end) {
			continue
		}
		matched = append(matched, w)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	details := make([]domain.WorkoutDetail, 0, len(matched))
	for _, w := range matched {
		details = append(details, f.expand(w))
	}
	return details, nil
}

func (f *fakeWorkoutRepo) expand(w domain.Workout) domain.WorkoutDetail {
	var wes []domain.WorkoutExercise
	for _, we := range f.workoutExercises {
		if we.WorkoutID == w.ID {
			wes = append(wes, we)
		}
	}
	sort.Slice(wes, func(i, j int) bool { return wes[i].Order < wes[j].Order })

	detail := domain.WorkoutDetail{Workout: w, Exercises: []domain.WorkoutExerciseDetail{}}
	for _, we := range wes {
		var sets []domain.Set
		for _, s := range f.sets {
			if s.WorkoutExerciseID == we.ID {
				sets = append(sets, s)
			}
		}
		sort.Slice(sets, func(i, j int) bool { return sets[i].SetNumber < sets[j].SetNumber })
		if sets == nil {
			sets = []domain.Set{}
		}
		detail.Exercises = append(detail.Exercises, domain.WorkoutExerciseDetail{
			WorkoutExercise: we,
			Exercise:        f.exercises[we.ExerciseID],
			Sets:            sets,
		})
	}
	return detail
}

func (f *fakeWorkoutRepo) Update(_ context.Context, userID, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error) {
	w, ok := f.workouts[workoutID]
	if !ok || w.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	if patch.StartedAt != nil {
		w.StartedAt = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		w.CompletedAt = patch.CompletedAt
	}
	w.UpdatedAt = time.Now().UTC()
	f.workouts[workoutID] = w
	return &w, nil
}

func (f *fakeWorkoutRepo) Delete(_ context.Context, userID, workoutID primitive.ObjectID) error {
	w, ok := f.workouts[workoutID]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	for weID, we := range f.workoutExercises {
		if we.WorkoutID != workoutID {
			continue
		}
		for setID, s := range f.sets {
			if s.WorkoutExerciseID == weID {
				delete(f.sets, setID)
			}
		}
		delete(f.workoutExercises, weID)
	}
	delete(f.workouts, workoutID)
	return nil
}

func (f *fakeWorkoutRepo) AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, order int) (*domain.WorkoutExercise, error) {
	if _, err := f.GetByID(ctx, userID, workoutID); err != nil {
		return nil, err
	}
	if _, ok := f.exercises[exerciseID]; !ok {
		return nil, repository.ErrNotFound
	}
	we := domain.WorkoutExercise{
		ID:         primitive.NewObjectID(),
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		Order:      order,
	}
	f.workoutExercises[we.ID] = we
	return &we, nil
}

func (f *fakeWorkoutRepo) AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID, set *domain.Set) (*domain.Set, error) {
	we, ok := f.workoutExercises[workoutExerciseID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, err := f.GetByID(ctx, userID, we.WorkoutID); err != nil {
		return nil, err
	}
	set.ID = primitive.NewObjectID()
	set.WorkoutExerciseID = workoutExerciseID
	f.sets[set.ID] = *set
	return set, nil
}

// --- Tests ---

func TestCreateWorkoutRoundTrip(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	startedAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)

	created, err := svc.CreateWorkout(context.Background(), userID, "Leg Day", startedAt)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", created.DayKey)
	assert.False(t, created.Workout.ID.IsZero())

	detail, err := svc.GetWorkoutByID(context.Background(), userID, created.Workout.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leg Day", detail.Name)
	assert.True(t, detail.StartedAt.Equal(startedAt))
}

func TestCreateWorkoutRequiresStartedAt(t *testing.T) {
	svc := NewWorkoutService(newFakeWorkoutRepo())

	_, err := svc.CreateWorkout(context.Background(), primitive.NewObjectID(), "", time.Time{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetWorkoutByIDOtherUserIsNotFound(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	created, err := svc.CreateWorkout(context.Background(), owner, "Push", time.Now())
	require.NoError(t, err)

	_, err = svc.GetWorkoutByID(context.Background(), stranger, created.Workout.ID)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestGetWorkoutsByDateScenario(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

	morning := day.Add(8 * time.Hour)
	evening := day.Add(18 * time.Hour)
	_, err := svc.CreateWorkout(context.Background(), u1, "Morning", morning)
	require.NoError(t, err)
	_, err = svc.CreateWorkout(context.Background(), u1, "Evening", evening)
	require.NoError(t, err)
	_, err = svc.CreateWorkout(context.Background(), u2, "Other", day.Add(9*time.Hour))
	require.NoError(t, err)

	workouts, err := svc.GetWorkoutsByDate(context.Background(), u1, day)
	require.NoError(t, err)
	require.Len(t, workouts, 2)
	assert.Equal(t, "Evening", workouts[0].Name)
	assert.Equal(t, "Morning", workouts[1].Name)
}

func TestGetWorkoutsByDateInclusiveUpperBound(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)

	lastMilli := day.Add(24*time.Hour - time.Millisecond)
	nextMidnight := day.Add(24 * time.Hour)
	_, err := svc.CreateWorkout(context.Background(), userID, "Late", lastMilli)
	require.NoError(t, err)
	_, err = svc.CreateWorkout(context.Background(), userID, "Tomorrow", nextMidnight)
	require.NoError(t, err)

	workouts, err := svc.GetWorkoutsByDate(context.Background(), userID, day)
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "Late", workouts[0].Name)
}

func TestUpdateWorkoutPartialPatch(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	startedAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)

	created, err := svc.CreateWorkout(context.Background(), userID, "Pull", startedAt)
	require.NoError(t, err)

	newName := "Pull Day"
	updated, err := svc.UpdateWorkout(context.Background(), userID, created.Workout.ID, repository.WorkoutPatch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Pull Day", updated.Name)
	assert.True(t, updated.StartedAt.Equal(startedAt), "unpatched field must not change")
}

func TestUpdateWorkoutNotFoundMutatesNothing(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	created, err := svc.CreateWorkout(context.Background(), owner, "Squats", time.Now())
	require.NoError(t, err)

	newName := "Hijacked"
	_, err = svc.UpdateWorkout(context.Background(), stranger, created.Workout.ID, repository.WorkoutPatch{Name: &newName})
	assert.ErrorIs(t, err, ErrWorkoutNotFound)

	detail, err := svc.GetWorkoutByID(context.Background(), owner, created.Workout.ID)
	require.NoError(t, err)
	assert.Equal(t, "Squats", detail.Name)
}

func TestUpdateWorkoutEmptyPatchRejected(t *testing.T) {
	svc := NewWorkoutService(newFakeWorkoutRepo())

	_, err := svc.UpdateWorkout(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), repository.WorkoutPatch{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestNestedExpansionOrdering(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	bench := repo.seedExercise("Bench Press")
	squat := repo.seedExercise("Squat")

	created, err := svc.CreateWorkout(context.Background(), userID, "Full Body", time.Now())
	require.NoError(t, err)
	workoutID := created.Workout.ID

	// Inserted out of display order on purpose.
	weSquat, err := svc.AddExerciseToWorkout(context.Background(), userID, workoutID, squat, 2)
	require.NoError(t, err)
	weBench, err := svc.AddExerciseToWorkout(context.Background(), userID, workoutID, bench, 1)
	require.NoError(t, err)

	for _, n := range []int{3, 1, 2} {
		_, err = svc.AddSet(context.Background(), userID, weBench.ID, SetInput{SetNumber: n})
		require.NoError(t, err)
	}
	_, err = svc.AddSet(context.Background(), userID, weSquat.ID, SetInput{SetNumber: 1})
	require.NoError(t, err)

	detail, err := svc.GetWorkoutByID(context.Background(), userID, workoutID)
	require.NoError(t, err)
	require.Len(t, detail.Exercises, 2)
	assert.Equal(t, "Bench Press", detail.Exercises[0].Exercise.Name)
	assert.Equal(t, "Squat", detail.Exercises[1].Exercise.Name)

	require.Len(t, detail.Exercises[0].Sets, 3)
	for i, s := range detail.Exercises[0].Sets {
		assert.Equal(t, i+1, s.SetNumber)
	}
}

func TestDeleteWorkoutCascades(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	bench := repo.seedExercise("Bench Press")

	created, err := svc.CreateWorkout(context.Background(), userID, "Chest", time.Now())
	require.NoError(t, err)
	we, err := svc.AddExerciseToWorkout(context.Background(), userID, created.Workout.ID, bench, 0)
	require.NoError(t, err)
	_, err = svc.AddSet(context.Background(), userID, we.ID, SetInput{SetNumber: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWorkout(context.Background(), userID, created.Workout.ID))

	assert.Empty(t, repo.workouts)
	assert.Empty(t, repo.workoutExercises)
	assert.Empty(t, repo.sets)
	// The shared exercise library is untouched by the workout cascade.
	assert.Len(t, repo.exercises, 1)
}

func TestDeleteWorkoutOtherUserIsNotFound(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	owner := primitive.NewObjectID()

	created, err := svc.CreateWorkout(context.Background(), owner, "", time.Now())
	require.NoError(t, err)

	err = svc.DeleteWorkout(context.Background(), primitive.NewObjectID(), created.Workout.ID)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
	assert.Len(t, repo.workouts, 1)
}

func TestAddSetValidation(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()

	_, err := svc.AddSet(context.Background(), userID, primitive.NewObjectID(), SetInput{SetNumber: 0})
	assert.ErrorIs(t, err, ErrValidationFailed)

	negative := -1
	_, err = svc.AddSet(context.Background(), userID, primitive.NewObjectID(), SetInput{SetNumber: 1, Reps: &negative})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAddSetRoundsWeightToTwoDigits(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()
	bench := repo.seedExercise("Bench Press")

	created, err := svc.CreateWorkout(context.Background(), userID, "", time.Now())
	require.NoError(t, err)
	we, err := svc.AddExerciseToWorkout(context.Background(), userID, created.Workout.ID, bench, 0)
	require.NoError(t, err)

	weight := 102.5049
	set, err := svc.AddSet(context.Background(), userID, we.ID, SetInput{SetNumber: 1, Weight: &weight})
	require.NoError(t, err)
	require.NotNil(t, set.Weight)
	assert.InDelta(t, 102.50, *set.Weight, 1e-9)
}

func TestAddSetAcrossUsersIsNotFound(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	bench := repo.seedExercise("Bench Press")

	created, err := svc.CreateWorkout(context.Background(), owner, "", time.Now())
	require.NoError(t, err)
	we, err := svc.AddExerciseToWorkout(context.Background(), owner, created.Workout.ID, bench, 0)
	require.NoError(t, err)

	_, err = svc.AddSet(context.Background(), stranger, we.ID, SetInput{SetNumber: 1})
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestAddExerciseUnknownExerciseIsNotFound(t *testing.T) {
	repo := newFakeWorkoutRepo()
	svc := NewWorkoutService(repo)
	userID := primitive.NewObjectID()

	created, err := svc.CreateWorkout(context.Background(), userID, "", time.Now())
	require.NoError(t, err)

	_, err = svc.AddExerciseToWorkout(context.Background(), userID, created.Workout.ID, primitive.NewObjectID(), 0)
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}
