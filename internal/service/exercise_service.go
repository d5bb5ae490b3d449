package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"liftlog/internal/domain"
	"liftlog/internal/repository"
	"liftlog/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
)

// UploadURLResponse carries a presigned PUT URL and the object key the
// client must upload to.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ExerciseService manages the shared exercise library and its demonstration
// media. Exercises are reference data: any authenticated user may read them,
// and deleting one cascades into every workout that references it.
type ExerciseService interface {
	CreateExercise(ctx context.Context, name string) (*domain.Exercise, error)
	GetExercises(ctx context.Context) ([]domain.Exercise, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error
	GenerateMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	GetMediaDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// CreateExercise adds a movement to the shared library.
func (s *exerciseService) CreateExercise(ctx context.Context, name string) (*domain.Exercise, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}

	exercise := &domain.Exercise{Name: strings.TrimSpace(name)}
	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	// Fetch again so store-populated timestamps are visible to the caller.
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExercises lists the library, ascending by name.
func (s *exerciseService) GetExercises(ctx context.Context) ([]domain.Exercise, error) {
	return s.exerciseRepo.GetAll(ctx)
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}

// DeleteExercise removes an exercise and, through the repository cascade,
// every workout-exercise referencing it and their sets.
func (s *exerciseService) DeleteExercise(ctx context.Context, exerciseID primitive.ObjectID) error {
	err := s.exerciseRepo.Delete(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

// GenerateMediaUploadURL creates a presigned PUT URL for the exercise's
// demonstration media and records the object key on the exercise.
func (s *exerciseService) GenerateMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if contentType == "" {
		return nil, fmt.Errorf("%w: contentType is required", ErrValidationFailed)
	}
	if _, err := s.GetExerciseByID(ctx, exerciseID); err != nil {
		return nil, err
	}

	fileExtension := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("exercise-media", exerciseID.Hex(),
		fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	if err := s.exerciseRepo.SetMediaObjectKey(ctx, exerciseID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// GetMediaDownloadURL presigns a GET URL for the exercise's stored media.
func (s *exerciseService) GetMediaDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.GetExerciseByID(ctx, exerciseID)
	if err != nil {
		return "", err
	}
	if exercise.MediaObjectKey == "" {
		return "", ErrExerciseNotFound
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.MediaObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrUploadURLError
	}
	return url, nil
}
