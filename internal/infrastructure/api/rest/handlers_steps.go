package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/application/validator"
	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// StepHandlers serves the /campaigns/:id/steps nested resource.
type StepHandlers struct {
	campaigns repository.CampaignRepository
	steps     repository.StepRepository
	logger    *logger.Logger
}

func NewStepHandlers(campaigns repository.CampaignRepository, steps repository.StepRepository, l *logger.Logger) *StepHandlers {
	return &StepHandlers{campaigns: campaigns, steps: steps, logger: l}
}

func (h *StepHandlers) HandleListSteps(c *gin.Context) {
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}

	steps, err := h.steps.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, steps)
}

func (h *StepHandlers) HandleReplaceSteps(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}
	campaignID, ok := h.campaignID(c)
	if !ok {
		return
	}
	if _, err := h.campaigns.GetByID(c.Request.Context(), tenantID, campaignID); err != nil {
		respondAPIError(c, err)
		return
	}

	var req []stepRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	steps := make([]*models.Step, len(req))
	for i, sr := range req {
		result := validator.Validate(&models.Step{Type: sr.Type, Config: sr.Config})
		if !result.Valid {
			respondErrorWithDetails(c, http.StatusBadRequest, result.Error, "INVALID_STEP_CONFIG", map[string]interface{}{
				"step_type":      sr.Type,
				"missing_fields": result.MissingFields,
			})
			return
		}
		steps[i] = &models.Step{ID: uuid.New(), CampaignID: campaignID, Order: sr.Order, Type: sr.Type, Title: sr.Title, Config: sr.Config}
	}

	if err := h.steps.ReplaceAll(c.Request.Context(), campaignID, steps); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, steps)
}

func (h *StepHandlers) campaignID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := getParam(c, "id")
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return uuid.UUID{}, false
	}
	return id, true
}
