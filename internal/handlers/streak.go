package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/devpulse/devpulse-api/internal/auth"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/devpulse/devpulse-api/internal/streaks"
)

type StreakHandler struct {
	streaks *streaks.Service
}

func NewStreakHandler(streakSvc *streaks.Service) *StreakHandler {
	return &StreakHandler{streaks: streakSvc}
}

type UserStreaksResponse struct {
	Body []models.UserStreak
}

func (h *StreakHandler) HandleStreaks(ctx context.Context, input *struct{}) (*UserStreaksResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	userStreaks, err := h.streaks.GetUserStreaks(userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list streaks: " + err.Error())
	}

	return &UserStreaksResponse{Body: userStreaks}, nil
}
