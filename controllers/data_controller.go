package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/services"
)

// RegenerateRequest optionally resizes the synthetic dataset
type RegenerateRequest struct {
	TenantID *uint `json:"tenant_id"`
	Clients  *int  `json:"clients" binding:"omitempty,gte=1,lte=100000"`
	Orders   *int  `json:"orders" binding:"omitempty,gte=0,lte=1000000"`
	Messages *int  `json:"messages" binding:"omitempty,gte=0,lte=1000000"`
}

func snapshotCounts(snap *services.Snapshot) gin.H {
	return gin.H{
		"clients":  len(snap.Clients),
		"orders":   len(snap.Orders),
		"messages": len(snap.Messages),
	}
}

// Reload handles POST /api/ai/reload - swaps in a fresh snapshot from the configured source
func Reload(c *gin.Context) {
	store, ok := recordStore(c)
	if !ok {
		return
	}

	snap, err := store.Reload(c.Request.Context())
	if err != nil {
		respondError(c, "reload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Dataset reloaded",
		"source":    snap.Source,
		"loaded_at": snap.LoadedAt,
		"counts":    snapshotCounts(snap),
	})
}

// RegenerateData handles POST /api/ai/regenerate-data - replaces the tenant's records with
// synthetic ones and reloads the snapshot
func RegenerateData(c *gin.Context) {
	var req RegenerateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	tenantID, ok := resolveTenant(c, req.TenantID)
	if !ok {
		return
	}
	store, ok := recordStore(c)
	if !ok {
		return
	}
	sink := services.GetDataSink()
	if sink == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATA_UNAVAILABLE",
				"message": "No writable data source is configured",
			},
		})
		return
	}

	cfg := services.DefaultGeneratorConfig(tenantID)
	if req.Clients != nil {
		cfg.Clients = *req.Clients
	}
	if req.Orders != nil {
		cfg.Orders = *req.Orders
	}
	if req.Messages != nil {
		cfg.Messages = *req.Messages
	}

	now := engine.Now()
	data, err := services.Regenerate(c.Request.Context(), sink, store, cfg, analytics.NewRandom(uint64(time.Now().UnixNano())), now)
	if err != nil {
		respondError(c, "data regeneration", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Synthetic data regenerated",
		"tenant_id": tenantID,
		"counts":    snapshotCounts(data),
	})
}
