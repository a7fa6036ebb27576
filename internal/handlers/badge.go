package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/devpulse/devpulse-api/internal/auth"
	"github.com/devpulse/devpulse-api/internal/badges"
	"github.com/devpulse/devpulse-api/internal/models"
)

type BadgeHandler struct {
	badges *badges.Service
}

func NewBadgeHandler(badgeSvc *badges.Service) *BadgeHandler {
	return &BadgeHandler{badges: badgeSvc}
}

type UserBadgesResponse struct {
	Body []models.Badge
}

func (h *BadgeHandler) HandleUserBadges(ctx context.Context, input *struct{}) (*UserBadgesResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	earned, err := h.badges.GetUserBadges(userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list badges: " + err.Error())
	}

	return &UserBadgesResponse{Body: earned}, nil
}

type BadgeProgressResponse struct {
	Body []badges.BadgeProgress
}

func (h *BadgeHandler) HandleProgress(ctx context.Context, input *struct{}) (*BadgeProgressResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	progress, err := h.badges.GetBadgeProgress(userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to compute badge progress: " + err.Error())
	}

	return &BadgeProgressResponse{Body: progress}, nil
}

type CheckBadgesResponse struct {
	Body struct {
		NewBadges []models.Badge `json:"new_badges"`
	}
}

func (h *BadgeHandler) HandleCheck(ctx context.Context, input *struct{}) (*CheckBadgesResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	newBadges, err := h.badges.CheckAndAward(userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to check badges: " + err.Error())
	}

	res := &CheckBadgesResponse{}
	res.Body.NewBadges = newBadges
	return res, nil
}
