package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/internal/domain/repository"
	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// AccountHandlers serves the /accounts resource for provider-account
// visibility and manual reconnect/status management (SPEC_FULL §7).
type AccountHandlers struct {
	accounts repository.ProviderAccountRepository
	logger   *logger.Logger
}

func NewAccountHandlers(accounts repository.ProviderAccountRepository, l *logger.Logger) *AccountHandlers {
	return &AccountHandlers{accounts: accounts, logger: l}
}

func (h *AccountHandlers) HandleListAccounts(c *gin.Context) {
	tenantID, ok := GetTenantID(c)
	if !ok {
		respondAPIError(c, models.ErrUnauthorized)
		return
	}

	accounts, err := h.accounts.List(c.Request.Context(), tenantID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, accounts)
}

func (h *AccountHandlers) HandleGetAccount(c *gin.Context) {
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, account)
}

type updateAccountStatusRequest struct {
	Status         models.ProviderAccountStatus `json:"status" binding:"required"`
	NeedsReconnect bool                         `json:"needs_reconnect"`
}

func (h *AccountHandlers) HandleUpdateAccountStatus(c *gin.Context) {
	idStr, ok := getParam(c, "id")
	if !ok {
		return
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondAPIError(c, models.ErrInvalidID)
		return
	}

	var req updateAccountStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return
	}

	if err := h.accounts.UpdateStatus(c.Request.Context(), id, req.Status, req.NeedsReconnect); err != nil {
		respondAPIError(c, err)
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, account)
}
