package handler

import (
	"errors"
	"net/http"

	"feedback/pkg/logger"
	"feedback/rating-worker-service/internal/app/rating/service"

	"github.com/google/uuid"
)

type errorResponse struct {
	Error string `json:"error"`
}

// RatingHandler чтение агрегата оценок пользователя
type RatingHandler struct {
	ratingSvc service.RatingServiceInterface
}

func NewRatingHandler(ratingSvc service.RatingServiceInterface) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

// GetUserRating GET /ratings/{userId}
func (h *RatingHandler) GetUserRating(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId must be a valid UUID"})
		return
	}

	rating, err := h.ratingSvc.GetUserRating(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrRatingNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "rating not found"})
			return
		}
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get user rating")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

func (h *RatingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ratings/{userId}", h.GetUserRating)
}
