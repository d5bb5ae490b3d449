package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"liftlog/internal/domain"
	"liftlog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: map[primitive.ObjectID]domain.Exercise{}}
}

func (f *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	exercise.ID = primitive.NewObjectID()
	f.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (f *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ex, nil
}

func (f *fakeExerciseRepo) GetAll(_ context.Context) ([]domain.Exercise, error) {
	all := make([]domain.Exercise, 0, len(f.exercises))
	for _, ex := range f.exercises {
		all = append(all, ex)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (f *fakeExerciseRepo) SetMediaObjectKey(_ context.Context, id primitive.ObjectID, objectKey string) error {
	ex, ok := f.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	ex.MediaObjectKey = objectKey
	f.exercises[id] = ex
	return nil
}

func (f *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.exercises, id)
	return nil
}

type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(context.Context, string) error { return nil }

func TestCreateExerciseTrimsAndValidatesName(t *testing.T) {
	svc := NewExerciseService(newFakeExerciseRepo(), fakeFileStorage{})

	_, err := svc.CreateExercise(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidationFailed)

	ex, err := svc.CreateExercise(context.Background(), "  Bench Press ")
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", ex.Name)
}

func TestGetExercisesSortedByName(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo, fakeFileStorage{})

	for _, name := range []string{"Squat", "Bench Press", "Deadlift"} {
		_, err := svc.CreateExercise(context.Background(), name)
		require.NoError(t, err)
	}

	all, err := svc.GetExercises(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Bench Press", all[0].Name)
	assert.Equal(t, "Deadlift", all[1].Name)
	assert.Equal(t, "Squat", all[2].Name)
}

func TestGenerateMediaUploadURL(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo, fakeFileStorage{})

	ex, err := svc.CreateExercise(context.Background(), "Bench Press")
	require.NoError(t, err)

	resp, err := svc.GenerateMediaUploadURL(context.Background(), ex.ID, "video/mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "exercise-media/"+ex.ID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".mp4"))
	assert.Equal(t, "https://storage.test/upload/"+resp.ObjectKey, resp.UploadURL)

	stored, err := svc.GetExerciseByID(context.Background(), ex.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ObjectKey, stored.MediaObjectKey)
}

func TestGenerateMediaUploadURLUnknownExercise(t *testing.T) {
	svc := NewExerciseService(newFakeExerciseRepo(), fakeFileStorage{})

	_, err := svc.GenerateMediaUploadURL(context.Background(), primitive.NewObjectID(), "video/mp4")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestDeleteExerciseUnknownIsNotFound(t *testing.T) {
	svc := NewExerciseService(newFakeExerciseRepo(), fakeFileStorage{})

	err := svc.DeleteExercise(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}
