package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"readMoreAPI/internal/types/activity"
	"readMoreAPI/internal/types/streak"
	"readMoreAPI/middleware"
	"readMoreAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
	}
}

// GetStreak returns the streak snapshot, provisioning a zero state on
// first access. It never 404s for a user without history.
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	snapshot, err := h.streakService.GetStreak(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get streak")
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

func (h *StreakHandler) UseFreeze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.UseFreezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	snapshot, err := h.streakService.UseFreeze(ctx, clerkID, date)
	if err != nil {
		if errors.Is(err, streak.ErrQuotaExceeded) {
			respondWithError(w, http.StatusConflict, "No freeze days available")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to use freeze day")
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
