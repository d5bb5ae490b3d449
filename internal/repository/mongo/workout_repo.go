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

const (
	workoutCollectionName         = "workouts"
	workoutExerciseCollectionName = "workout_exercises"
	setCollectionName             = "sets"
)

// mongoWorkoutRepository implements repository.WorkoutRepository. It spans
// the workouts, workout_exercises, sets and exercises collections because
// the aggregate reads and the cascade delete cross all of them.
type mongoWorkoutRepository struct {
	workouts         *mongo.Collection
	workoutExercises *mongo.Collection
	sets             *mongo.Collection
	exercises        *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		workouts:         db.Collection(workoutCollectionName),
		workoutExercises: db.Collection(workoutExerciseCollectionName),
		sets:             db.Collection(setCollectionName),
		exercises:        db.Collection(exerciseCollectionName),
	}
}

// dayRange returns the inclusive bounds of the calendar day containing t, in
// t's location: [00:00:00.000, 23:59:59.999]. The upper bound is inclusive
// to the millisecond rather than a semi-open [start, nextDayStart) range;
// queries pair it with $lte.
func dayRange(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end = start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// Create inserts a new workout and returns the persisted representation so
// the generated id and timestamps are visible to the caller.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	if workout.UserID == primitive.NilObjectID || workout.StartedAt.IsZero() {
		return nil, errors.New("workout requires userId and startedAt")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	if _, err := r.workouts.InsertOne(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

// GetByID retrieves a single workout by id, scoped to its owner. A workout
// owned by a different user is reported as not found, not as a permission
// error, so record existence never leaks across users.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": workoutID, "userId": userID}
	err := r.workouts.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetDetailByID retrieves one owned workout with the nested expansion.
func (r *mongoWorkoutRepository) GetDetailByID(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.WorkoutDetail, error) {
	workout, err := r.GetByID(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, workout)
}

// GetByDate retrieves all of the user's workouts on the given calendar day,
// most recent first, each expanded with its exercises and sets.
func (r *mongoWorkoutRepository) GetByDate(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.WorkoutDetail, error) {
	start, end := dayRange(day)
	filter := bson.M{
		"userId":    userID,
		"startedAt": bson.M{"$gte": start, "$lte": end},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})

	cursor, err := r.workouts.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}

	details := make([]domain.WorkoutDetail, 0, len(workouts))
	for i := range workouts {
		detail, err := r.expand(ctx, &workouts[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// expand loads a workout's workout-exercises (ascending by order), each with
// its exercise and its sets (ascending by setNumber).
func (r *mongoWorkoutRepository) expand(ctx context.Context, workout *domain.Workout) (*domain.WorkoutDetail, error) {
	weOptions := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.workoutExercises.Find(ctx, bson.M{"workoutId": workout.ID}, weOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workoutExercises []domain.WorkoutExercise
	if err = cursor.All(ctx, &workoutExercises); err != nil {
		return nil, err
	}

	detail := &domain.WorkoutDetail{
		Workout:   *workout,
		Exercises: make([]domain.WorkoutExerciseDetail, 0, len(workoutExercises)),
	}

	for _, we := range workoutExercises {
		var exercise domain.Exercise
		if err := r.exercises.FindOne(ctx, bson.M{"_id": we.ExerciseID}).Decode(&exercise); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// The exercise cascade should make this unreachable; treat a
				// dangling reference as a store-level inconsistency.
				return nil, repository.RepositoryError("workout exercise references missing exercise")
			}
			return nil, err
		}

		setOptions := options.Find().SetSort(bson.D{{Key: "setNumber", Value: 1}})
		setCursor, err := r.sets.Find(ctx, bson.M{"workoutExerciseId": we.ID}, setOptions)
		if err != nil {
			return nil, err
		}
		var sets []domain.Set
		if err = setCursor.All(ctx, &sets); err != nil {
			setCursor.Close(ctx)
			return nil, err
		}
		setCursor.Close(ctx)
		if sets == nil {
			sets = []domain.Set{}
		}

		detail.Exercises = append(detail.Exercises, domain.WorkoutExerciseDetail{
			WorkoutExercise: we,
			Exercise:        exercise,
			Sets:            sets,
		})
	}
	return detail, nil
}

// Update applies the non-nil patch fields to an owned workout and always
// refreshes updatedAt. Zero matched rows surface as ErrNotFound, which is
// distinguishable from a genuine store failure.
func (r *mongoWorkoutRepository) Update(ctx context.Context, userID, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.StartedAt != nil {
		set["startedAt"] = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		set["completedAt"] = *patch.CompletedAt
	}

	filter := bson.M{"_id": workoutID, "userId": userID}
	updateOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Workout
	err := r.workouts.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, updateOptions).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes an owned workout together with its workout-exercises and
// their sets. MongoDB has no foreign-key cascades, so the multi-step delete
// runs inside a session transaction to keep it all-or-nothing.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	session, err := r.workouts.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"_id": workoutID, "userId": userID}
		if err := r.workouts.FindOne(sc, filter).Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, repository.ErrNotFound
			}
			return nil, err
		}

		weIDs, err := r.workoutExerciseIDs(sc, workoutID)
		if err != nil {
			return nil, err
		}
		if len(weIDs) > 0 {
			if _, err := r.sets.DeleteMany(sc, bson.M{"workoutExerciseId": bson.M{"$in": weIDs}}); err != nil {
				return nil, err
			}
			if _, err := r.workoutExercises.DeleteMany(sc, bson.M{"workoutId": workoutID}); err != nil {
				return nil, err
			}
		}

		result, err := r.workouts.DeleteOne(sc, filter)
		if err != nil {
			return nil, err
		}
		if result.DeletedCount == 0 {
			return nil, repository.ErrDeleteFailed
		}
		return nil, nil
	})
	return err
}

// workoutExerciseIDs collects the ids of a workout's join rows.
func (r *mongoWorkoutRepository) workoutExerciseIDs(ctx context.Context, workoutID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.workoutExercises.Find(ctx, bson.M{"workoutId": workoutID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// AddExercise links an exercise into an owned workout at the given display
// order. The workout must belong to the user and the exercise must exist.
func (r *mongoWorkoutRepository) AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, order int) (*domain.WorkoutExercise, error) {
	if _, err := r.GetByID(ctx, userID, workoutID); err != nil {
		return nil, err
	}
	if err := r.exercises.FindOne(ctx, bson.M{"_id": exerciseID}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	we := &domain.WorkoutExercise{
		ID:         primitive.NewObjectID(),
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		Order:      order,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := r.workoutExercises.InsertOne(ctx, we); err != nil {
		return nil, err
	}
	return we, nil
}

// AddSet appends a set to a workout-exercise after resolving the ownership
// chain set -> workout-exercise -> workout.userId.
func (r *mongoWorkoutRepository) AddSet(ctx context.Context, userID, workoutExerciseID primitive.ObjectID, set *domain.Set) (*domain.Set, error) {
	var we domain.WorkoutExercise
	err := r.workoutExercises.FindOne(ctx, bson.M{"_id": workoutExerciseID}).Decode(&we)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	// The owner filter happens on the parent workout; a foreign chain is
	// indistinguishable from a missing one.
	if _, err := r.GetByID(ctx, userID, we.WorkoutID); err != nil {
		return nil, err
	}

	set.ID = primitive.NewObjectID()
	set.WorkoutExerciseID = workoutExerciseID
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now

	if _, err := r.sets.InsertOne(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// EnsureWorkoutIndexes creates the indexes backing the day query and the
// nested expansions. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, db *mongo.Database) {
	workoutIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}}},
	}
	weIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workoutId", Value: 1}, {Key: "order", Value: 1}}},
		{Keys: bson.D{{Key: "exerciseId", Value: 1}}},
	}
	setIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workoutExerciseId", Value: 1}, {Key: "setNumber", Value: 1}}},
	}

	_, _ = db.Collection(workoutCollectionName).Indexes().CreateMany(ctx, workoutIndexes)
	_, _ = db.Collection(workoutExerciseCollectionName).Indexes().CreateMany(ctx, weIndexes)
	_, _ = db.Collection(setCollectionName).Indexes().CreateMany(ctx, setIndexes)
}
