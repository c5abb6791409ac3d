package rest

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smilemakc/outreachctl/pkg/models"
)

const (
	ContextKeyTenantID = "tenant_id"
	ContextKeyUserID   = "user_id"
)

// tenantClaims is the JWT payload shape this module relies on: a tenant_id
// claim scoping every downstream repository call, plus an optional user_id
// used only for logging/audit fields.
type tenantClaims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	jwt.RegisteredClaims
}

// TenantMiddleware verifies the bearer token on every request and injects
// the tenant_id claim into the gin context, so handlers never trust a
// client-supplied tenant identifier.
type TenantMiddleware struct {
	secret []byte
}

func NewTenantMiddleware(secret string) *TenantMiddleware {
	return &TenantMiddleware{secret: []byte(secret)}
}

func (m *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		token := strings.TrimPrefix(raw, "Bearer ")
		if token == "" || token == raw {
			respondAPIError(c, models.ErrUnauthorized)
			c.Abort()
			return
		}

		claims := &tenantClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !parsed.Valid {
			respondAPIError(c, models.ErrInvalidToken)
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			respondAPIError(c, models.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(ContextKeyTenantID, tenantID)
		if claims.UserID != "" {
			c.Set(ContextKeyUserID, claims.UserID)
		}
		c.Next()
	}
}

// GetTenantID returns the authenticated tenant, set by RequireTenant.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextKeyTenantID)
	if !exists {
		return uuid.UUID{}, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserID returns the authenticated user's raw claim string, if present.
// Used only for logging; authorization decisions are scoped by tenant.
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
