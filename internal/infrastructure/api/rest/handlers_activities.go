package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// ActivityHandlers serves the /campaigns/:id/activities and /leads/:lead_id/activities resources.
type ActivityHandlers struct {
	activities repository.ActivityRepository
	logger     *logger.Logger
}

func NewActivityHandlers(activities repository.ActivityRepository, l *logger.Logger) *ActivityHandlers {
	return &ActivityHandlers{activities: activities, logger: l}
}

func (h *ActivityHandlers) HandleListActivities(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}

	filter := repository.ActivityFilter{
		TenantID: tenantID,
		Page:     getQueryInt(c, "page", 1),
		Limit:    getQueryInt(c, "limit", 20),
	}
	if campaignIDStr, ok := getParam(c, "id"); ok {
		campaignID, err := uuid.Parse(campaignIDStr)
		if err != nil {
			respondAPIError(c, models.ErrInvalidID)
			return
		}
		filter.CampaignID = campaignID
	}

	activities, total, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondList(c, http.StatusOK, activities, total, filter.Limit, (filter.Page-1)*filter.Limit)
}

func (h *ActivityHandlers) HandleListActivitiesForLead(c *gin.Context) {
	idStr, ok := getParam(c, "lead_id")
	if !ok {
		return
	}
	leadID, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	activities, err := h.activities.ListForLead(c.Request.Context(), leadID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, activities)
}

func (h *ActivityHandlers) HandleCampaignStats(c *gin.Context) {
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	stats, err := h.activities.StatsByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stats)
}
