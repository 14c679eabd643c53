package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/logger"
	"github.com/kendall-kelly/customer-analytics-api/services"
)

// SegmentationRequest is the body of POST /api/ai/segmentation. "criteres" is accepted
// as an alias of "criteria". A missing or zero n_clusters means the default.
type SegmentationRequest struct {
	TenantID  *uint              `json:"tenant_id"`
	NClusters *int               `json:"n_clusters"`
	Criteria  analytics.Criteria `json:"criteria"`
	Criteres  analytics.Criteria `json:"criteres"`
}

// PredictionRequest is the body of POST /api/ai/prediction
type PredictionRequest struct {
	TenantID  *uint  `json:"tenant_id"`
	ClientIDs []uint `json:"client_ids"`
}

// TenantRequest is the optional body of the derived analytics endpoints
type TenantRequest struct {
	TenantID *uint `json:"tenant_id"`
}

// Segmentation handles POST /api/ai/segmentation - clusters the tenant's clients
func Segmentation(c *gin.Context) {
	var req SegmentationRequest
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

	nClusters := analytics.DefaultClusters
	if req.NClusters != nil && *req.NClusters != 0 {
		nClusters = *req.NClusters
	}
	criteria := req.Criteria
	if len(criteria) == 0 {
		criteria = req.Criteres
	}

	start := time.Now()
	orders := store.Orders(tenantID)
	result, err := engine.Segment(orders, tenantID, nClusters, criteria)
	if err != nil {
		respondError(c, "segmentation", err)
		return
	}

	logger.L().Info("segmentation computed",
		"tenant_id", tenantID,
		"orders", len(orders),
		"clients", result.Summary.Clients,
		"clusters", result.Summary.Clusters,
		"duration", time.Since(start),
	)
	c.JSON(http.StatusOK, result)
}

// Prediction handles POST /api/ai/prediction - retrains the tenant model and scores clients
func Prediction(c *gin.Context) {
	var req PredictionRequest
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

	var saver analytics.ModelSaver
	if ms := services.GetModelStore(); ms != nil {
		saver = ms
	}

	start := time.Now()
	orders := store.Orders(tenantID)
	result, err := engine.Predict(c.Request.Context(), orders, tenantID, req.ClientIDs, saver)
	if err != nil {
		respondError(c, "prediction", err)
		return
	}

	logger.L().Info("prediction computed",
		"tenant_id", tenantID,
		"orders", len(orders),
		"trained_on", result.Summary.TrainedOn,
		"predictions", len(result.Predictions),
		"model_id", result.Summary.ModelID,
		"duration", time.Since(start),
	)
	c.JSON(http.StatusOK, result)
}

// CLV handles POST /api/ai/clv - the top clients by estimated lifetime value
func CLV(c *gin.Context) {
	tenantID, store, ok := derivedRequest(c)
	if !ok {
		return
	}
	entries := engine.CLV(store.Orders(tenantID), tenantID)
	logger.L().Info("clv computed", "tenant_id", tenantID, "entries", len(entries))
	c.JSON(http.StatusOK, gin.H{"clv": entries})
}

// Churn handles POST /api/ai/churn - a placeholder risk label per client
func Churn(c *gin.Context) {
	tenantID, store, ok := derivedRequest(c)
	if !ok {
		return
	}
	risks := engine.Churn(store.Orders(tenantID), tenantID)
	logger.L().Info("churn computed", "tenant_id", tenantID, "clients", len(risks))
	c.JSON(http.StatusOK, gin.H{"risks": risks, "scoring": "placeholder"})
}

// Recommendations handles POST /api/ai/recommendations - one catalog product per client
func Recommendations(c *gin.Context) {
	tenantID, store, ok := derivedRequest(c)
	if !ok {
		return
	}
	recs := engine.Recommend(store.Orders(tenantID), tenantID)
	logger.L().Info("recommendations computed", "tenant_id", tenantID, "clients", len(recs))
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func derivedRequest(c *gin.Context) (uint, *services.RecordStore, bool) {
	var req TenantRequest
	if !bindOptionalJSON(c, &req) {
		return 0, nil, false
	}
	tenantID, ok := resolveTenant(c, req.TenantID)
	if !ok {
		return 0, nil, false
	}
	store, ok := recordStore(c)
	if !ok {
		return 0, nil, false
	}
	return tenantID, store, true
}
