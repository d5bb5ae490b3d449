package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"liftlog/internal/domain"
	"liftlog/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrValidationFailed = errors.New("validation failed")
)

// dayKeyLayout is the calendar-day key handed back to the presentation layer
// after a successful create, so it can navigate to the day view without
// re-deriving it.
const dayKeyLayout = "2006-01-02"

// CreatedWorkout is the outcome of a successful create: the persisted
// workout plus the calendar-day key of its start timestamp.
type CreatedWorkout struct {
	Workout *domain.Workout
	DayKey  string
}

// SetInput carries caller-supplied fields for a new set.
type SetInput struct {
	SetNumber int
	Reps      *int
	Weight    *float64
	Completed bool
}

// WorkoutService bridges untrusted caller input to the workout repository.
// It validates input shape, scopes every call to the authenticated user and
// maps repository outcomes to typed errors; store failures pass through
// unwrapped for the API layer to translate into a generic message.
type WorkoutService interface {
	CreateWorkout(ctx context.Context, userID primitive.ObjectID, name string, startedAt time.Time) (*CreatedWorkout, error)
	GetWorkoutsByDate(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.WorkoutDetail, error)
	GetWorkoutByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error)
	UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	AddExerciseToWorkout(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, order int) (*domain.WorkoutExercise, error)
	AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID, input SetInput) (*domain.Set, error)
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{workoutRepo: workoutRepo}
}

// CreateWorkout inserts a new workout for the user. Name is optional;
// startedAt is required. No business-rule checks beyond input shape: two
// workouts at the same instant are allowed.
func (s *workoutService) CreateWorkout(ctx context.Context, userID primitive.ObjectID, name string, startedAt time.Time) (*CreatedWorkout, error) {
	if userID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidationFailed)
	}
	if startedAt.IsZero() {
		return nil, fmt.Errorf("%w: startedAt is required", ErrValidationFailed)
	}

	workout, err := s.workoutRepo.Create(ctx, &domain.Workout{
		UserID:    userID,
		Name:      name,
		StartedAt: startedAt,
	})
	if err != nil {
		return nil, err
	}

	return &CreatedWorkout{
		Workout: workout,
		DayKey:  startedAt.Format(dayKeyLayout),
	}, nil
}

// GetWorkoutsByDate lists the user's workouts on the given calendar day with
// the full nested expansion.
func (s *workoutService) GetWorkoutsByDate(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.WorkoutDetail, error) {
	if day.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidationFailed)
	}
	return s.workoutRepo.GetByDate(ctx, userID, day)
}

// GetWorkoutByID fetches one owned workout with its exercises and sets.
func (s *workoutService) GetWorkoutByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	detail, err := s.workoutRepo.GetDetailByID(ctx, userID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return detail, nil
}

// UpdateWorkout applies the supplied fields to an owned workout. A patch
// with nothing to change is rejected rather than issuing a no-op write.
func (s *workoutService) UpdateWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error) {
	if patch.Name == nil && patch.StartedAt == nil && patch.CompletedAt == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidationFailed)
	}
	if patch.StartedAt != nil && patch.StartedAt.IsZero() {
		return nil, fmt.Errorf("%w: startedAt must be a valid timestamp", ErrValidationFailed)
	}

	workout, err := s.workoutRepo.Update(ctx, userID, workoutID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// DeleteWorkout removes an owned workout and, through the repository's
// cascade, its workout-exercises and sets.
func (s *workoutService) DeleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	err := s.workoutRepo.Delete(ctx, userID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

// AddExerciseToWorkout links an exercise into an owned workout.
func (s *workoutService) AddExerciseToWorkout(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, order int) (*domain.WorkoutExercise, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: order must not be negative", ErrValidationFailed)
	}
	we, err := s.workoutRepo.AddExercise(ctx, userID, workoutID, exerciseID, order)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return we, nil
}

// AddSet appends a set to an owned workout-exercise. Weight is quantized to
// two fractional digits to match the store's decimal(10,2) contract.
func (s *workoutService) AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID, input SetInput) (*domain.Set, error) {
	if input.SetNumber < 1 {
		return nil, fmt.Errorf("%w: setNumber must be 1 or greater", ErrValidationFailed)
	}
	if input.Reps != nil && *input.Reps < 0 {
		return nil, fmt.Errorf("%w: reps must not be negative", ErrValidationFailed)
	}
	var weight *float64
	if input.Weight != nil {
		if *input.Weight < 0 {
			return nil, fmt.Errorf("%w: weight must not be negative", ErrValidationFailed)
		}
		rounded := math.Round(*input.Weight*100) / 100
		weight = &rounded
	}

	set, err := s.workoutRepo.AddSet(ctx, userID, workoutExerciseID, &domain.Set{
		SetNumber: input.SetNumber,
		Reps:      input.Reps,
		Weight:    weight,
		Completed: input.Completed,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return set, nil
}
