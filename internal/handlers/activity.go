package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/devpulse/devpulse-api/internal/auth"
	"github.com/devpulse/devpulse-api/internal/ledger"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/devpulse/devpulse-api/internal/syncer"
)

type ActivityHandler struct {
	syncer *syncer.Service
	ledger *ledger.Service
}

func NewActivityHandler(syncSvc *syncer.Service, ledgerSvc *ledger.Service) *ActivityHandler {
	return &ActivityHandler{syncer: syncSvc, ledger: ledgerSvc}
}

type SyncResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *ActivityHandler) HandleSync(ctx context.Context, input *struct{}) (*SyncResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.syncer.SyncUserActivities(ctx, userID); err != nil {
		if errors.Is(err, syncer.ErrUserNotFound) {
			return nil, huma.Error404NotFound("User not found")
		}
		return nil, huma.Error500InternalServerError("Failed to sync activities: " + err.Error())
	}

	res := &SyncResponse{}
	res.Body.Message = "Activities synced successfully"
	return res, nil
}

type ListActivitiesRequest struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum number of activities to return"`
}

type ListActivitiesResponse struct {
	Body []models.Activity
}

func (h *ActivityHandler) HandleList(ctx context.Context, input *ListActivitiesRequest) (*ListActivitiesResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	activities, err := h.ledger.ListActivities(userID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list activities: " + err.Error())
	}

	return &ListActivitiesResponse{Body: activities}, nil
}

type StatsResponse struct {
	Body ledger.UserStats
}

func (h *ActivityHandler) HandleStats(ctx context.Context, input *struct{}) (*StatsResponse, error) {
	userID, ok := ctx.Value(auth.UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	stats, err := h.ledger.GetUserStats(userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to compute stats: " + err.Error())
	}

	return &StatsResponse{Body: *stats}, nil
}
