package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"readMoreAPI/internal/types/activity"
	"readMoreAPI/middleware"
	"readMoreAPI/services"
)

type ActivityHandler struct {
	readingService  *services.ReadingService
	activityService *services.ActivityService
}

func NewActivityHandler(readingService *services.ReadingService, activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		readingService:  readingService,
		activityService: activityService,
	}
}

// RecordSession logs a finished reading session for today and advances
// the streak.
func (h *ActivityHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.RecordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DurationSeconds < 0 || req.PagesRead < 0 {
		respondWithError(w, http.StatusBadRequest, "duration_seconds and pages_read must be non-negative")
		return
	}

	if err := h.readingService.RecordActivity(ctx, clerkID, &req); err != nil {
		log.Printf("RecordSession Handler: Service error: %v", err)
		switch {
		case errors.Is(err, services.ErrValidation):
			respondWithError(w, http.StatusBadRequest, "Invalid reading session payload")
		case errors.Is(err, services.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to record reading session")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "Reading session recorded",
	})
}

// GetDailyLog returns ledger entries between start and end inclusive,
// newest first. An empty range returns an empty list, not an error.
func (h *ActivityHandler) GetDailyLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	start, err := time.Parse(time.DateOnly, r.URL.Query().Get("start"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'start' must be formatted YYYY-MM-DD")
		return
	}

	end, err := time.Parse(time.DateOnly, r.URL.Query().Get("end"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'end' must be formatted YYYY-MM-DD")
		return
	}

	entries, err := h.activityService.GetDailyLog(ctx, clerkID, start, end)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch daily log")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *ActivityHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'year' is required")
		return
	}

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'month' must be 1-12")
		return
	}

	cal, err := h.activityService.GetCalendar(ctx, clerkID, year, month)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch calendar")
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}
