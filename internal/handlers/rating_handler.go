package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/models"
	"rentflow-backend/pkg/utils"
)

type RatingHandler struct {
	Ratings RatingAPI
	Logger  *zap.Logger
}

func NewRatingHandler(ratings RatingAPI, logger *zap.Logger) *RatingHandler {
	return &RatingHandler{Ratings: ratings, Logger: logger}
}

func (h *RatingHandler) ListByLease(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := pathID(r, "lease")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid lease ID")
		return
	}

	ratings, err := h.Ratings.ListByLease(r.Context(), leaseID)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	if ratings == nil {
		ratings = []*models.Rating{}
	}
	utils.JSON(w, http.StatusOK, ratings)
}

func (h *RatingHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := pathID(r, "lease")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid lease ID")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var req models.CreateRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rating, err := h.Ratings.Create(r.Context(), leaseID, userID, &req)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, rating)
}

func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid rating ID")
		return
	}
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	if err := h.Ratings.Delete(r.Context(), id, userID); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Rating deleted successfully."})
}
