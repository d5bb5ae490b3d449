package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is a single logged training session owned by one user.
// Ownership is part of every read/update filter; a workout is never visible
// outside its owner.
type Workout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"` // Optional display name, e.g. "Leg Day"
	StartedAt   time.Time          `bson:"startedAt" json:"startedAt"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise links one Exercise into one Workout. Order establishes the
// display sequence within the workout (ascending); it defaults to 0 and is
// not required to be unique.
type WorkoutExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order      int                `bson:"order" json:"order"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Set is one repetition block within a WorkoutExercise. SetNumber is the
// 1-based ordering key within its parent and is assigned by the caller, not
// by the store.
type Set struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutExerciseID primitive.ObjectID `bson:"workoutExerciseId" json:"workoutExerciseId"`
	SetNumber         int                `bson:"setNumber" json:"setNumber"`
	Reps              *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight            *float64           `bson:"weight,omitempty" json:"weight,omitempty"` // Stored with two fractional digits
	Completed         bool               `bson:"completed" json:"completed"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExerciseDetail is a WorkoutExercise expanded with its Exercise and
// its Sets (ascending by setNumber).
type WorkoutExerciseDetail struct {
	WorkoutExercise `bson:",inline"`
	Exercise        Exercise `json:"exercise"`
	Sets            []Set    `json:"sets"`
}

// WorkoutDetail is the full aggregate handed to the presentation layer: a
// Workout expanded with its WorkoutExerciseDetails (ascending by order).
type WorkoutDetail struct {
	Workout   `bson:",inline"`
	Exercises []WorkoutExerciseDetail `json:"workoutExercises"`
}
