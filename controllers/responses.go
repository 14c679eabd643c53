package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/config"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/middleware"
	"github.com/kendall-kelly/customer-analytics-api/services"
)

var engine = analytics.NewEngine()

// SetEngine replaces the analytics engine (primarily for testing)
func SetEngine(e *analytics.Engine) {
	engine = e
}

// GetEngine returns the analytics engine used by the handlers
func GetEngine() *analytics.Engine {
	return engine
}

// bindOptionalJSON binds the request body into req; an empty body leaves the defaults
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return false
	}
	return true
}

// resolveTenant applies the default tenant and the token's tenant restriction
func resolveTenant(c *gin.Context, requested *uint) (uint, bool) {
	tenantID := uint(1)
	if cfg := config.GetConfig(); cfg != nil && cfg.DefaultTenantID != 0 {
		tenantID = cfg.DefaultTenantID
	}
	if requested != nil {
		tenantID = *requested
	}
	if tenantID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": "tenant_id must be a positive integer",
			},
		})
		return 0, false
	}

	if err := middleware.CheckTenant(c, tenantID); err != nil {
		var authErr *middleware.AuthError
		errors.As(err, &authErr)
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    authErr.Code,
				"message": authErr.Message,
			},
		})
		return 0, false
	}
	return tenantID, true
}

// recordStore returns the process record store or writes a 503 when none is configured
func recordStore(c *gin.Context) (*services.RecordStore, bool) {
	store := services.GetRecordStore()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATA_UNAVAILABLE",
				"message": "No dataset is loaded",
			},
		})
		return nil, false
	}
	return store, true
}

// respondError maps an operation error onto the error envelope
func respondError(c *gin.Context, operation string, err error) {
	_ = c.Error(err)

	var criteriaErr *analytics.CriteriaError
	if errors.As(err, &criteriaErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CRITERIA",
				"message": "Invalid filter criteria",
				"details": err.Error(),
			},
		})
		return
	}

	logger.L().Error(operation+" failed", "request_id", middleware.GetRequestID(c), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "PROCESSING_ERROR",
			"message": "Failed to process " + operation,
			"details": err.Error(),
		},
	})
}
