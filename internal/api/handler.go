package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	onboarding *service.OnboardingService
	catalog    *service.CatalogService
	checkout   *service.CheckoutService
	orders     *service.OrderService
	discounts  *service.DiscountService
	analytics  *service.AnalyticsService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	onboarding *service.OnboardingService,
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	discounts *service.DiscountService,
	analytics *service.AnalyticsService,
) *Handler {
	return &Handler{
		onboarding: onboarding,
		catalog:    catalog,
		checkout:   checkout,
		orders:     orders,
		discounts:  discounts,
		analytics:  analytics,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/onboarding", h.startOnboarding)
		v1.GET("/onboarding/:id", h.getOnboarding)
		v1.POST("/onboarding/:id/next", h.onboardingNext)
		v1.POST("/onboarding/:id/back", h.onboardingBack)
		v1.POST("/onboarding/:id/launch", h.launchStore)

		v1.GET("/storefront/:slug", h.getStorefront)

		v1.POST("/checkout", h.startCheckout)
		v1.GET("/checkout/:id", h.getCheckout)
		v1.POST("/checkout/:id/items", h.addCartItem)
		v1.PUT("/checkout/:id/items/:productID", h.updateCartItem)
		v1.DELETE("/checkout/:id/items/:productID", h.removeCartItem)
		v1.POST("/checkout/:id/discount", h.applyDiscount)
		v1.DELETE("/checkout/:id/discount", h.removeDiscount)
		v1.POST("/checkout/:id/submit", h.submitCheckout)

		stores := v1.Group("/stores/:id")
		{
			stores.GET("/products", h.listProducts)
			stores.POST("/products", h.createProduct)
			stores.PUT("/products/:productID", h.updateProduct)
			stores.DELETE("/products/:productID", h.deleteProduct)

			stores.GET("/orders", h.listOrders)
			stores.GET("/orders/:orderID", h.getOrder)
			stores.PUT("/orders/:orderID/status", h.updateOrderStatus)

			stores.GET("/discounts", h.listDiscounts)
			stores.POST("/discounts", h.createDiscount)
			stores.PUT("/discounts/:code/toggle", h.toggleDiscount)
			stores.DELETE("/discounts/:code", h.deleteDiscount)

			stores.GET("/stats", h.getStats)
			stores.GET("/settings", h.getSettings)
			stores.PUT("/settings", h.updateSettings)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- Onboarding ---

func (h *Handler) startOnboarding(c *gin.Context) {
	state := h.onboarding.StartSession(c.Request.Context())
	c.JSON(http.StatusCreated, state)
}

func (h *Handler) getOnboarding(c *gin.Context) {
	state, err := h.onboarding.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) onboardingNext(c *gin.Context) {
	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	state, fieldErrs, err := h.onboarding.Next(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		writeError(c, err)
		return
	}
	if fieldErrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        "Validation failed",
			"field_errors": fieldErrs,
			"step":         state.Step,
		})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) onboardingBack(c *gin.Context) {
	state, err := h.onboarding.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) launchStore(c *gin.Context) {
	st, err := h.onboarding.Launch(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// --- Storefront ---

func (h *Handler) getStorefront(c *gin.Context) {
	sf, err := h.catalog.StorefrontBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sf)
}

// --- Checkout ---

func (h *Handler) startCheckout(c *gin.Context) {
	var req struct {
		StoreSlug string `json:"store_slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.checkout.StartCheckout(c.Request.Context(), req.StoreSlug)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getCheckout(c *gin.Context) {
	view, err := h.checkout.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.checkout.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	productID, ok := paramInt64(c, "productID")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.checkout.UpdateItem(c.Request.Context(), c.Param("id"), productID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := paramInt64(c, "productID")
	if !ok {
		return
	}
	view, err := h.checkout.RemoveItem(c.Request.Context(), c.Param("id"), productID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) applyDiscount(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.checkout.ApplyDiscount(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeDiscount(c *gin.Context) {
	view, err := h.checkout.RemoveDiscount(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) submitCheckout(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, fieldErrs, err := h.checkout.Submit(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	if fieldErrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        "Validation failed",
			"field_errors": fieldErrs,
		})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// --- Dashboard: products ---

func (h *Handler) listProducts(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) createProduct(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	p.StoreID = storeID

	if err := h.catalog.CreateProduct(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	productID, ok := paramInt64(c, "productID")
	if !ok {
		return
	}
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	p.ID = productID
	p.StoreID = storeID

	if err := h.catalog.UpdateProduct(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	productID, ok := paramInt64(c, "productID")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), storeID, productID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Dashboard: orders ---

func (h *Handler) listOrders(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	orderID, ok := paramInt64(c, "orderID")
	if !ok {
		return
	}
	detail, err := h.orders.GetOrder(c.Request.Context(), storeID, orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	orderID, ok := paramInt64(c, "orderID")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), storeID, orderID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// --- Dashboard: discounts ---

func (h *Handler) listDiscounts(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	discounts, err := h.discounts.List(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discounts": discounts})
}

func (h *Handler) createDiscount(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var d models.Discount
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	d.StoreID = storeID

	if err := h.discounts.Create(c.Request.Context(), &d); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) toggleDiscount(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.discounts.SetEnabled(c.Request.Context(), storeID, c.Param("code"), req.Enabled); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteDiscount(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.discounts.Delete(c.Request.Context(), storeID, c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Dashboard: analytics and settings ---

func (h *Handler) getStats(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	stats, err := h.analytics.GetStats(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getSettings(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	settings, err := h.catalog.GetSettings(c.Request.Context(), storeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) updateSettings(c *gin.Context) {
	storeID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var settings models.StoreSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	settings.StoreID = storeID

	if err := h.catalog.UpdateSettings(c.Request.Context(), &settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return v, true
}

// writeError maps service errors onto HTTP statuses. Retryable
// submission failures surface as 502 so clients know to try again.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, store.ErrStoreNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrDiscountNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCheckoutNotFound):
		status = http.StatusNotFound

	case errors.Is(err, service.ErrLaunchFailed),
		errors.Is(err, service.ErrSubmissionFailed):
		status = http.StatusBadGateway

	case errors.Is(err, service.ErrIncompleteOnboarding):
		status = http.StatusUnprocessableEntity

	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, store.ErrSlugTaken),
		errors.Is(err, store.ErrDuplicateCode),
		errors.Is(err, service.ErrSessionBusy),
		errors.Is(err, service.ErrCheckoutComplete),
		errors.Is(err, wizard.ErrAtFinalStep):
		status = http.StatusConflict

	case errors.Is(err, wizard.ErrInvalidPayload),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrPaymentMethodNotOffered),
		errors.Is(err, service.ErrDiscountInactive),
		errors.Is(err, service.ErrDiscountNotYet),
		errors.Is(err, service.ErrDiscountExpired),
		errors.Is(err, service.ErrDiscountMinOrder),
		errors.Is(err, service.ErrDiscountExhausted):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
