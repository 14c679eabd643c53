package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/kendall-kelly/customer-analytics-api/middleware"
	"github.com/kendall-kelly/customer-analytics-api/models"
	"github.com/kendall-kelly/customer-analytics-api/services"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// setupTestRouter creates a test router with all analytics routes registered
func setupTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ai := router.Group("/api/ai", handlers...)
	{
		ai.POST("/segmentation", Segmentation)
		ai.POST("/prediction", Prediction)
		ai.POST("/clv", CLV)
		ai.POST("/churn", Churn)
		ai.POST("/recommendations", Recommendations)
		ai.POST("/sentiment", Sentiment)
		ai.POST("/reload", Reload)
		ai.POST("/regenerate-data", RegenerateData)
	}
	return router
}

// mockAuthMiddleware stores claims the way the real JWT middleware does
func mockAuthMiddleware(userID, scope string, tenantID *uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: userID},
			CustomClaims:     &middleware.CustomClaims{Scope: scope, TenantID: tenantID},
		})
		c.Next()
	}
}

func date(daysAgo int) *time.Time {
	t := testNow.AddDate(0, 0, -daysAgo)
	return &t
}

// fixtureSnapshot holds tenant 1 with three spend tiers and tenant 2 with one client
func fixtureSnapshot() *services.Snapshot {
	snap := &services.Snapshot{}
	id := uint(1)
	add := func(tenantID, clientID uint, amounts ...float64) {
		snap.Clients = append(snap.Clients, models.Client{ClientID: clientID, TenantID: tenantID, Name: "Client"})
		for i, a := range amounts {
			snap.Orders = append(snap.Orders, models.Order{ID: id, ClientID: clientID, TenantID: tenantID, TotalAmount: a, Status: "completed", OrderDate: date(int(clientID) + i)})
			id++
		}
	}
	for c := uint(1); c <= 4; c++ {
		add(1, c, 40, 60)
	}
	for c := uint(5); c <= 8; c++ {
		add(1, c, 900, 1100, 1000)
	}
	for c := uint(9); c <= 12; c++ {
		add(1, c, 4000, 5000, 6000, 5000)
	}
	add(2, 1, 300)
	snap.Messages = []models.Message{
		{ID: 1, ClientID: 1, TenantID: 1, Content: "Great service, thanks!"},
		{ID: 2, ClientID: 2, TenantID: 1, Content: "The delivery was terrible"},
		{ID: 3, ClientID: 1, TenantID: 2, Content: "Fine"},
	}
	return snap
}

// useFixtures installs a loaded record store, a mock model store and a pinned engine
func useFixtures(t *testing.T) *services.MockModelStore {
	t.Helper()
	originalStore, originalModels, originalEngine := services.GetRecordStore(), services.GetModelStore(), GetEngine()
	t.Cleanup(func() {
		services.SetRecordStore(originalStore)
		services.SetModelStore(originalModels)
		SetEngine(originalEngine)
	})

	store := services.NewRecordStore(&services.StaticSource{Snap: fixtureSnapshot()})
	_, err := store.Reload(context.Background())
	require.NoError(t, err)
	services.SetRecordStore(store)

	mock := services.NewMockModelStore()
	mock.SetAsMockForTesting()

	SetEngine(analytics.NewEngine(
		analytics.WithClock(func() time.Time { return testNow }),
		analytics.WithEntropy(func() uint64 { return 7 }),
	))
	return mock
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	require.Equal(t, false, body["success"])
	return body["error"].(map[string]interface{})["code"].(string)
}

func jsonUnmarshal(w *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}
