package mongo

import (
	"context"
	"errors"
	"time"

	"liftlog/internal/domain"
	"liftlog/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository. It also
// holds the workout_exercises and sets collections because deleting an
// exercise cascades into both.
type mongoExerciseRepository struct {
	exercises        *mongo.Collection
	workoutExercises *mongo.Collection
	sets             *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		exercises:        db.Collection(exerciseCollectionName),
		workoutExercises: db.Collection(workoutExerciseCollectionName),
		sets:             db.Collection(setCollectionName),
	}
}

// Create inserts a new exercise into the shared library.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise requires a name")
	}
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.exercises.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted exercise ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single exercise.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetAll lists the exercise library, ascending by name.
func (r *mongoExerciseRepository) GetAll(ctx context.Context) ([]domain.Exercise, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.exercises.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exercises := []domain.Exercise{}
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// SetMediaObjectKey records the object-storage key of the exercise's
// demonstration media.
func (r *mongoExerciseRepository) SetMediaObjectKey(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	update := bson.M{"$set": bson.M{
		"mediaObjectKey": objectKey,
		"updatedAt":      time.Now().UTC(),
	}}
	result, err := r.exercises.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an exercise together with every WorkoutExercise that
// references it and their Sets. The cascade is destructive across all users'
// workouts, so it runs inside a session transaction.
func (r *mongoExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	session, err := r.exercises.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cursor, err := r.workoutExercises.Find(sc, bson.M{"exerciseId": id},
			options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return nil, err
		}
		var rows []struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err = cursor.All(sc, &rows); err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			weIDs := make([]primitive.ObjectID, len(rows))
			for i, row := range rows {
				weIDs[i] = row.ID
			}
			if _, err := r.sets.DeleteMany(sc, bson.M{"workoutExerciseId": bson.M{"$in": weIDs}}); err != nil {
				return nil, err
			}
			if _, err := r.workoutExercises.DeleteMany(sc, bson.M{"exerciseId": id}); err != nil {
				return nil, err
			}
		}

		result, err := r.exercises.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if result.DeletedCount == 0 {
			return nil, repository.ErrNotFound
		}
		return nil, nil
	})
	return err
}

// EnsureExerciseIndexes creates indexes for the exercises collection. Call
// during startup.
func EnsureExerciseIndexes(ctx context.Context, db *mongo.Database) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = db.Collection(exerciseCollectionName).Indexes().CreateMany(ctx, indexes)
}
