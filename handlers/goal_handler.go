package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"readMoreAPI/middleware"
	"readMoreAPI/services"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goal, err := h.goalService.GetGoal(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get reading goal")
		return
	}

	respondWithJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		TargetBooks int `json:"target_books"`
		TargetPages int `json:"target_pages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TargetBooks < 0 || req.TargetPages < 0 {
		respondWithError(w, http.StatusBadRequest, "targets must be non-negative")
		return
	}

	goal, err := h.goalService.UpdateGoalTargets(ctx, clerkID, req.TargetBooks, req.TargetPages)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update reading goal")
		return
	}

	respondWithJSON(w, http.StatusOK, goal)
}
