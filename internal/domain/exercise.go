package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a named movement (e.g., "Bench Press"). Exercises are shared
// reference data, not owned per-user; workouts point at them through
// WorkoutExercise rows.
type Exercise struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	MediaObjectKey string             `bson:"mediaObjectKey,omitempty" json:"mediaObjectKey,omitempty"` // Demonstration video/image in object storage
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
