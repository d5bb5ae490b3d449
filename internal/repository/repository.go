package repository

import (
	"context"
	"time"

	"liftlog/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors from raw store errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutPatch carries the mutable workout fields for a partial update.
// Nil fields are left untouched.
type WorkoutPatch struct {
	Name        *string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// UserRepository defines the interface for interacting with user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for the shared exercise library.
// Delete cascades to any WorkoutExercise referencing the exercise, and
// transitively to their Sets.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetAll(ctx context.Context) ([]domain.Exercise, error)
	SetMediaObjectKey(ctx context.Context, id primitive.ObjectID, objectKey string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutRepository defines the interface for workout data. Every read and
// update that names a workout id also filters by the owning user id; a
// workout owned by someone else surfaces as ErrNotFound, never as a
// permission error. Store failures propagate as-is.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (*domain.Workout, error)
	GetByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	GetDetailByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error)
	// GetByDate returns the user's workouts whose startedAt falls inside the
	// calendar day containing `day`, most recent first, each expanded with
	// its workout-exercises, exercises and sets.
	GetByDate(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.WorkoutDetail, error)
	Update(ctx context.Context, userID, workoutID primitive.ObjectID, patch WorkoutPatch) (*domain.Workout, error)
	// Delete removes the workout together with its workout-exercises and
	// their sets, all-or-nothing.
	Delete(ctx context.Context, userID, workoutID primitive.ObjectID) error
	AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, order int) (*domain.WorkoutExercise, error)
	AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID, set *domain.Set) (*domain.Set, error)
}
