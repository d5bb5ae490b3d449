package api

import (
	"errors"
	"net/http"
	"time"

	"liftlog/internal/domain"
	"liftlog/internal/repository"
	"liftlog/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateQueryLayout is the calendar-day key format used by the day view.
const dateQueryLayout = "2006-01-02"

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type CreateWorkoutRequest struct {
	Name      string    `json:"name"`
	StartedAt time.Time `json:"startedAt" binding:"required"`
}

// CreateWorkoutResponse carries the new id plus the calendar-day key of
// startedAt so the client can navigate straight to the day view.
type CreateWorkoutResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

type UpdateWorkoutRequest struct {
	Name        *string    `json:"name"`
	StartedAt   *time.Time `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

type AddWorkoutExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	Order      int    `json:"order" binding:"omitempty,min=0"`
}

type AddSetRequest struct {
	SetNumber int      `json:"setNumber" binding:"required,min=1"`
	Reps      *int     `json:"reps" binding:"omitempty,min=0"`
	Weight    *float64 `json:"weight" binding:"omitempty,min=0"`
	Completed bool     `json:"completed"`
}

type WorkoutResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type SetResponse struct {
	ID        string   `json:"id"`
	SetNumber int      `json:"setNumber"`
	Reps      *int     `json:"reps,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Completed bool     `json:"completed"`
}

type WorkoutExerciseResponse struct {
	ID       string           `json:"id"`
	Order    int              `json:"order"`
	Exercise ExerciseResponse `json:"exercise"`
	Sets     []SetResponse    `json:"sets"`
}

type WorkoutDetailResponse struct {
	WorkoutResponse
	WorkoutExercises []WorkoutExerciseResponse `json:"workoutExercises"`
}

func mapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	return WorkoutResponse{
		ID:          w.ID.Hex(),
		Name:        w.Name,
		StartedAt:   w.StartedAt,
		CompletedAt: w.CompletedAt,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func mapWorkoutDetailToResponse(d *domain.WorkoutDetail) WorkoutDetailResponse {
	resp := WorkoutDetailResponse{
		WorkoutResponse:  mapWorkoutToResponse(&d.Workout),
		WorkoutExercises: make([]WorkoutExerciseResponse, 0, len(d.Exercises)),
	}
	for _, we := range d.Exercises {
		sets := make([]SetResponse, 0, len(we.Sets))
		for _, s := range we.Sets {
			sets = append(sets, SetResponse{
				ID:        s.ID.Hex(),
				SetNumber: s.SetNumber,
				Reps:      s.Reps,
				Weight:    s.Weight,
				Completed: s.Completed,
			})
		}
		resp.WorkoutExercises = append(resp.WorkoutExercises, WorkoutExerciseResponse{
			ID:       we.ID.Hex(),
			Order:    we.Order,
			Exercise: MapExerciseToResponse(&we.Exercise),
			Sets:     sets,
		})
	}
	return resp
}

// handleWorkoutServiceError maps service errors onto the uniform failure
// shape. Store failures become a generic message; internals never leak.
func handleWorkoutServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkoutNotFound), errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process workout request")
	}
}

// --- Handler Methods ---

// CreateWorkout handles POST /workouts.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	created, err := h.workoutService.CreateWorkout(c.Request.Context(), userID, req.Name, req.StartedAt)
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateWorkoutResponse{
		ID:   created.Workout.ID.Hex(),
		Date: created.DayKey,
	})
}

// GetWorkoutsByDate handles GET /workouts?date=YYYY-MM-DD. The date is
// interpreted in the server's local calendar.
func (h *WorkoutHandler) GetWorkoutsByDate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	dateStr := c.Query("date")
	if dateStr == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'date' is required (YYYY-MM-DD)")
		return
	}
	day, err := time.ParseInLocation(dateQueryLayout, dateStr, time.Local)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	details, err := h.workoutService.GetWorkoutsByDate(c.Request.Context(), userID, day)
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}

	responses := make([]WorkoutDetailResponse, 0, len(details))
	for i := range details {
		responses = append(responses, mapWorkoutDetailToResponse(&details[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetWorkoutByID handles GET /workouts/:id.
func (h *WorkoutHandler) GetWorkoutByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	detail, err := h.workoutService.GetWorkoutByID(c.Request.Context(), userID, workoutID)
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapWorkoutDetailToResponse(detail))
}

// UpdateWorkout handles PATCH /workouts/:id. Only supplied fields change.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), userID, workoutID, repository.WorkoutPatch{
		Name:        req.Name,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapWorkoutToResponse(workout))
}

// DeleteWorkout handles DELETE /workouts/:id. The cascade removes the
// workout's exercises and sets with it.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	if err := h.workoutService.DeleteWorkout(c.Request.Context(), userID, workoutID); err != nil {
		handleWorkoutServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddExercise handles POST /workouts/:id/exercises.
func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	var req AddWorkoutExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format")
		return
	}

	we, err := h.workoutService.AddExerciseToWorkout(c.Request.Context(), userID, workoutID, exerciseID, req.Order)
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         we.ID.Hex(),
		"workoutId":  we.WorkoutID.Hex(),
		"exerciseId": we.ExerciseID.Hex(),
		"order":      we.Order,
	})
}

// AddSet handles POST /workout-exercises/:id/sets.
func (h *WorkoutHandler) AddSet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutExerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout exercise ID format")
		return
	}

	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	set, err := h.workoutService.AddSet(c.Request.Context(), userID, workoutExerciseID, service.SetInput{
		SetNumber: req.SetNumber,
		Reps:      req.Reps,
		Weight:    req.Weight,
		Completed: req.Completed,
	})
	if err != nil {
		handleWorkoutServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SetResponse{
		ID:        set.ID.Hex(),
		SetNumber: set.SetNumber,
		Reps:      set.Reps,
		Weight:    set.Weight,
		Completed: set.Completed,
	})
}
