package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentation(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/segmentation", gin.H{"tenant_id": 1, "n_clusters": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result analytics.SegmentationResult
	require.NoError(t, jsonUnmarshal(w, &result))
	assert.Equal(t, 12, result.Summary.Clients)
	assert.Equal(t, 3, result.Summary.Clusters)
	require.Contains(t, result.Segments, "VIP")
	assert.Len(t, result.Segments["VIP"], 4)
	for _, row := range result.Segments["VIP"] {
		assert.GreaterOrEqual(t, row.ClientID, uint(9))
	}
	assert.Len(t, result.Insights, 3)
}

func TestSegmentation_CriteriaAlias(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/segmentation", gin.H{"criteres": gin.H{"client_type": "vip"}})
	require.Equal(t, http.StatusOK, w.Code)

	var result analytics.SegmentationResult
	require.NoError(t, jsonUnmarshal(w, &result))
	assert.Equal(t, 4, result.Summary.Clients, "only the top tier passes the vip threshold")
	assert.Equal(t, "vip", result.Summary.Filters["client_type"])
}

func TestSegmentation_EmptyCriteriaFallsBackToAlias(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/segmentation", gin.H{"criteria": gin.H{}, "criteres": gin.H{"client_type": "vip"}})
	require.Equal(t, http.StatusOK, w.Code)

	var result analytics.SegmentationResult
	require.NoError(t, jsonUnmarshal(w, &result))
	assert.Equal(t, 4, result.Summary.Clients)
	assert.Equal(t, "vip", result.Summary.Filters["client_type"])
}

func TestSegmentation_ClusterCountIsClamped(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	tests := []struct {
		name      string
		nClusters int
		want      int
	}{
		{"zero means default", 0, analytics.DefaultClusters},
		{"negative raised to two", -4, 2},
		{"one raised to two", 1, 2},
		{"capped at client count", 1000, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/ai/segmentation", gin.H{"tenant_id": 1, "n_clusters": tt.nClusters})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var result analytics.SegmentationResult
			require.NoError(t, jsonUnmarshal(w, &result))
			assert.Equal(t, tt.want, result.Summary.Clusters)
			assert.Equal(t, 12, result.Summary.Clients)
		})
	}
}

func TestSegmentation_DegenerateWhenFiltersDropEverything(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/segmentation", gin.H{"tenant_id": 1, "criteria": gin.H{"min_spent": 100000}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Empty(t, body["segments"])
	assert.Empty(t, body["insights"])
}

func TestSegmentation_Errors(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"bad date", gin.H{"criteria": gin.H{"date_from": "yesterday"}}, http.StatusBadRequest, "INVALID_CRITERIA"},
		{"non-numeric threshold", gin.H{"criteria": gin.H{"min_orders": "many"}}, http.StatusBadRequest, "INVALID_CRITERIA"},
		{"non-numeric clusters", `{"n_clusters":"three"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", `{"tenant_id":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative tenant", `{"tenant_id":-1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero tenant", gin.H{"tenant_id": 0}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/ai/segmentation", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
		})
	}
}

func TestPrediction(t *testing.T) {
	mock := useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/prediction", gin.H{"tenant_id": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result analytics.PredictionResult
	require.NoError(t, jsonUnmarshal(w, &result))
	assert.Len(t, result.Predictions, 12)
	assert.Len(t, result.TopClients, analytics.TopClientsLimit)
	assert.Equal(t, analytics.ProxyTarget, result.Summary.Target)
	assert.Equal(t, 1, mock.Saves())

	model, err := mock.Load(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, result.Summary.ModelID, model.ID)
}

func TestPrediction_UnknownClient(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/prediction", gin.H{"tenant_id": 1, "client_ids": []int{999}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, []interface{}{}, body["predictions"])
}

func TestPrediction_EmptyTenant(t *testing.T) {
	mock := useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/prediction", gin.H{"tenant_id": 42})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, []interface{}{}, body["predictions"])
	assert.Equal(t, 0.0, body["avg_purchase"])
	assert.Equal(t, 0, mock.Saves())
}

func TestPrediction_SaveFailure(t *testing.T) {
	mock := useFixtures(t)
	mock.SaveErr = errors.New("bucket unavailable")
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/prediction", gin.H{"tenant_id": 1})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "PROCESSING_ERROR", errBody["code"])
	assert.Contains(t, errBody["details"], "bucket unavailable")
	assert.NotContains(t, body, "predictions")
}

func TestDerivedEndpoints(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	w := postJSON(t, router, "/api/ai/clv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	clv := decode(t, w)["clv"].([]interface{})
	assert.Len(t, clv, analytics.CLVLimit)

	w = postJSON(t, router, "/api/ai/churn", gin.H{"tenant_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["risks"], 12)
	assert.Equal(t, "placeholder", body["scoring"])
	for _, r := range body["risks"].([]interface{}) {
		assert.Contains(t, analytics.RiskLevels, r.(map[string]interface{})["risk_level"])
	}

	w = postJSON(t, router, "/api/ai/recommendations", gin.H{"tenant_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode(t, w)["recommendations"].([]interface{})
	require.Len(t, recs, 1)
	assert.Contains(t, analytics.ProductCatalog, recs[0].(map[string]interface{})["product_name"])
}

func TestDerivedEndpoints_EmptyTenant(t *testing.T) {
	useFixtures(t)
	router := setupTestRouter()

	for path, key := range map[string]string{"/api/ai/clv": "clv", "/api/ai/churn": "risks", "/api/ai/recommendations": "recommendations"} {
		w := postJSON(t, router, path, gin.H{"tenant_id": 77})
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, []interface{}{}, decode(t, w)[key], path)
	}
}

func TestTenantScopeFromToken(t *testing.T) {
	useFixtures(t)
	tenant := uint(2)
	router := setupTestRouter(mockAuthMiddleware("auth0|analyst", "read:analytics", &tenant))

	w := postJSON(t, router, "/api/ai/segmentation", gin.H{"tenant_id": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "TENANT_FORBIDDEN", errorCode(t, w))

	w = postJSON(t, router, "/api/ai/churn", gin.H{"tenant_id": 2})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoRecordStore(t *testing.T) {
	original := services.GetRecordStore()
	services.SetRecordStore(nil)
	defer services.SetRecordStore(original)

	w := postJSON(t, setupTestRouter(), "/api/ai/clv", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DATA_UNAVAILABLE", errorCode(t, w))
}
