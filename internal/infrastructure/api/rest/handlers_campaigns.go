package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/application/scheduler"
	"github.com/smilemakc/outreachctl/internal/application/validator"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// CampaignHandlers serves the /campaigns resource (SPEC_FULL §7).
type CampaignHandlers struct {
	campaigns repository.CampaignRepository
	steps     repository.StepRepository
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

func NewCampaignHandlers(campaigns repository.CampaignRepository, steps repository.StepRepository, sched *scheduler.Scheduler, l *logger.Logger) *CampaignHandlers {
	return &CampaignHandlers{campaigns: campaigns, steps: steps, scheduler: sched, logger: l}
}

type createCampaignRequest struct {
	Name   string               `json:"name" binding:"required"`
	Config models.CampaignConfig `json:"config"`
	Steps  []stepRequest        `json:"steps"`
}

type stepRequest struct {
	Order  int               `json:"order"`
	Type   models.StepType   `json:"type" binding:"required"`
	Title  string            `json:"title"`
	Config models.StepConfig `json:"config"`
}

type updateCampaignRequest struct {
	Name   *string               `json:"name"`
	Status *models.CampaignStatus `json:"status"`
	Config *models.CampaignConfig `json:"config"`
}

func (h *CampaignHandlers) HandleCreateCampaign(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}

	var req createCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	for _, sr := range req.Steps {
		result := validator.Validate(&models.Step{Type: sr.Type, Config: sr.Config})
		if !result.Valid {
			respondErrorWithDetails(c, http.StatusBadRequest, result.Error, "INVALID_STEP_CONFIG", map[string]interface{}{
				"step_type":      sr.Type,
				"missing_fields": result.MissingFields,
			})
			return
		}
	}

	campaign := &models.Campaign{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      req.Name,
		Status:    models.CampaignDraft,
		Config:    req.Config,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if userID, ok := GetUserID(c); ok {
		if id, err := uuid.Parse(userID); err == nil {
			campaign.CreatedByUserID = id
		}
	}

	if err := h.campaigns.Create(c.Request.Context(), campaign); err != nil {
		respondAPIError(c, err)
		return
	}

	if len(req.Steps) > 0 {
		steps := make([]*models.Step, len(req.Steps))
		for i, sr := range req.Steps {
			steps[i] = &models.Step{ID: uuid.New(), CampaignID: campaign.ID, Order: sr.Order, Type: sr.Type, Title: sr.Title, Config: sr.Config}
		}
		if err := h.steps.ReplaceAll(c.Request.Context(), campaign.ID, steps); err != nil {
			respondAPIError(c, err)
			return
		}
	}

	respondJSON(c, http.StatusCreated, campaign)
}

func (h *CampaignHandlers) HandleListCampaigns(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}

	filter := repository.CampaignFilter{
		TenantID: tenantID,
		Status:   getQuery(c, "status", ""),
		Search:   getQuery(c, "search", ""),
		Page:     getQueryInt(c, "page", 1),
		Limit:    getQueryInt(c, "limit", 20),
	}

	campaigns, total, err := h.campaigns.List(c.Request.Context(), filter)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondList(c, http.StatusOK, campaigns, total, filter.Limit, (filter.Page-1)*filter.Limit)
}

func (h *CampaignHandlers) HandleGetCampaign(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	campaign, err := h.campaigns.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, campaign)
}

func (h *CampaignHandlers) HandleUpdateCampaign(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	var req updateCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	campaign, err := h.campaigns.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondAPIError(c, err)
		return
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Config != nil {
		campaign.Config = *req.Config
	}
	wasEligible := campaign.Status.IsExecutionEligible()
	if req.Status != nil {
		campaign.Status = *req.Status
	}
	campaign.UpdatedAt = time.Now()

	if err := h.campaigns.Update(c.Request.Context(), campaign); err != nil {
		respondAPIError(c, err)
		return
	}

	if !wasEligible && campaign.Status.IsExecutionEligible() && h.scheduler != nil {
		h.scheduler.EnqueueNow(c.Request.Context(), campaign.ID)
	}

	respondJSON(c, http.StatusOK, campaign)
}

func (h *CampaignHandlers) HandleDeleteCampaign(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	if err := h.campaigns.SoftDelete(c.Request.Context(), tenantID, id); err != nil {
		respondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
