package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-service/internal/pricing"
	"storefront-service/internal/service"
	"storefront-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := store.NewMemory()
	require.NoError(t, store.SeedDemo(context.Background(), repo))

	rates := pricing.Rates{TaxRateBps: 1800, FlatShippingFee: 15000, FreeShippingThreshold: 100000}
	discounts := service.NewDiscountService(repo, nil, nil)
	handler := NewHandler(
		service.NewOnboardingService(repo, nil, nil, 0),
		service.NewCatalogService(repo, nil),
		service.NewCheckoutService(repo, discounts, nil, rates, 0, 0),
		service.NewOrderService(repo, nil),
		discounts,
		service.NewAnalyticsService(repo, nil),
	)

	router := gin.New()
	handler.SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOnboardingWrongShapePayloadIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/onboarding", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Valid JSON, wrong shape for the step schema: client error, not 500.
	w = doJSON(router, http.MethodPost, "/api/v1/onboarding/"+created.SessionID+"/next", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboardingStepValidationIsUnprocessable(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/onboarding", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, http.MethodPost, "/api/v1/onboarding/"+created.SessionID+"/next",
		`{"store_name": "A", "store_description": "short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		FieldErrors map[string]string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "must be at least 2 characters", resp.FieldErrors["store_name"])
}

func TestStorefrontUnknownSlugIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/storefront/ghost-store", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/storefront/demo-bakery", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownOnboardingSessionIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/onboarding/no-such-session", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
