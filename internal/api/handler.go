package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"meal-order-service/internal/errs"
	"meal-order-service/internal/models"
	"meal-order-service/internal/service"
	"meal-order-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders        *service.OrderService
	catalog       *service.CatalogService
	directory     *service.DirectoryService
	reports       *service.ReportService
	minPickupLead time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	catalog *service.CatalogService,
	directory *service.DirectoryService,
	reports *service.ReportService,
	minPickupLead time.Duration,
) *Handler {
	return &Handler{
		orders:        orders,
		catalog:       catalog,
		directory:     directory,
		reports:       reports,
		minPickupLead: minPickupLead,
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
		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.setOrderStatus)

		v1.GET("/menu", h.listMenuItems)
		v1.POST("/menu", h.createMenuItem)
		v1.PATCH("/menu/:id", h.updateMenuItem)
		v1.DELETE("/menu/:id", h.deleteMenuItem)

		v1.GET("/departments", h.listDepartments)
		v1.POST("/departments", h.createDepartment)
		v1.PATCH("/departments/:id", h.updateDepartment)
		v1.DELETE("/departments/:id", h.deleteDepartment)

		v1.POST("/users", h.registerUser)
		v1.POST("/login", h.login)
		v1.GET("/users", h.listUsers)
		v1.PATCH("/users/:id", h.updateUser)
		v1.GET("/users/:id/orders", h.listUserOrders)

		v1.GET("/reports/departments", h.departmentReport)
		v1.GET("/reports/menu-items", h.menuItemReport)
	}
}

// statusFromErr maps the error taxonomy to HTTP status codes
func statusFromErr(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict, errs.KindInsufficientStock:
		return http.StatusConflict
	case errs.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, err error) {
	status := statusFromErr(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error, please retry"
	}
	c.JSON(status, gin.H{"error": msg})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
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

// placeOrder handles cart submission. The minimum pickup lead is
// enforced here at the caller boundary; the service treats it as a
// precondition.
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if req.PickupTime.Before(time.Now().Add(h.minPickupLead)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("pickup time must be at least %d minutes in the future",
				int(h.minPickupLead.Minutes())),
		})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	// Stock changed, so the cached menu listing is stale.
	h.catalog.InvalidateMenu(c.Request.Context())

	c.JSON(http.StatusCreated, order)
}

// listOrders handles order listing with an optional status filter
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// setOrderStatus handles status transitions
func (h *Handler) setOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// listUserOrders handles a user's order history
func (h *Handler) listUserOrders(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// listMenuItems handles menu listing
func (h *Handler) listMenuItems(c *gin.Context) {
	items, err := h.catalog.ListMenuItems(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menu_items": items})
}

// createMenuItem handles menu item creation
func (h *Handler) createMenuItem(c *gin.Context) {
	var req service.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	item, err := h.catalog.CreateMenuItem(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// updateMenuItem handles partial menu item updates
func (h *Handler) updateMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var upd models.MenuItemUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	item, err := h.catalog.UpdateMenuItem(c.Request.Context(), id, upd)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// deleteMenuItem handles menu item deletion
func (h *Handler) deleteMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteMenuItem(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createDepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

// createDepartment handles department creation
func (h *Handler) createDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	dept, err := h.directory.CreateDepartment(c.Request.Context(), req.Name)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}

// listDepartments handles department listing
func (h *Handler) listDepartments(c *gin.Context) {
	depts, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": depts})
}

// updateDepartment handles partial department updates
func (h *Handler) updateDepartment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var upd models.DepartmentUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	dept, err := h.directory.UpdateDepartment(c.Request.Context(), id, upd)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, dept)
}

// deleteDepartment handles department deletion
func (h *Handler) deleteDepartment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.directory.DeleteDepartment(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// registerUser handles user registration
func (h *Handler) registerUser(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.directory.RegisterUser(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	ContactNumber string `json:"contact_number" binding:"required"`
}

// login handles login by exact contact number match
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.directory.Login(c.Request.Context(), req.ContactNumber)
	if err != nil {
		errorResponse(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// listUsers handles user listing
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// updateUser handles partial user updates
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var upd models.UserUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.directory.UpdateUser(c.Request.Context(), id, upd)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// departmentReport handles the department sales report
func (h *Handler) departmentReport(c *gin.Context) {
	report, err := h.reports.DepartmentReport(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// menuItemReport handles the menu item sales report
func (h *Handler) menuItemReport(c *gin.Context) {
	report, err := h.reports.MenuItemReport(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
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
