package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// LeadHandlers serves the /campaigns/:id/leads and /leads/:lead_id resources.
type LeadHandlers struct {
	leads  repository.CampaignLeadRepository
	logger *logger.Logger
}

func NewLeadHandlers(leads repository.CampaignLeadRepository, l *logger.Logger) *LeadHandlers {
	return &LeadHandlers{leads: leads, logger: l}
}

func (h *LeadHandlers) HandleListLeads(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}
	campaignIDStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	campaignID, err := uuid.Parse(campaignIDStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	filter := repository.CampaignLeadFilter{
		CampaignID: campaignID,
		TenantID:   tenantID,
		Status:     getQuery(c, "status", ""),
		Page:       getQueryInt(c, "page", 1),
		Limit:      getQueryInt(c, "limit", 20),
	}

	leads, total, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondList(c, http.StatusOK, leads, total, filter.Limit, (filter.Page-1)*filter.Limit)
}

func (h *LeadHandlers) HandleGetLead(c *gin.Context) {
	idStr, ok := getParam(c, "lead_id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	lead, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, lead)
}
