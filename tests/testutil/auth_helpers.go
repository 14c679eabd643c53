package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing. A nil tenantID
// leaves the token unbound to any tenant.
func MockValidatedClaims(subject, issuer string, scopes []string, tenantID *uint) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope:    strings.Join(scopes, " "),
			TenantID: tenantID,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string, tenantID *uint) {
	claims := MockValidatedClaims(userID, issuer, scopes, tenantID)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// MockAuth is a gin middleware standing in for EnsureValidToken
func MockAuth(userID string, scopes []string, tenantID *uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, userID, "https://test.auth0.com/", scopes, tenantID)
		c.Next()
	}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}

// Tenant returns a pointer to id, for tenant claims and request bodies
func Tenant(id uint) *uint {
	return &id
}
