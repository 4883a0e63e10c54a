package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"passprint-service/internal/chat"
	"passprint-service/internal/stock"
	"passprint-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers for both subsystems
type Handler struct {
	stockManager *stock.Manager
	chatRegistry *chat.Registry
}

// NewHandler creates a new HTTP handler
func NewHandler(stockManager *stock.Manager, chatRegistry *chat.Registry) *Handler {
	return &Handler{
		stockManager: stockManager,
		chatRegistry: chatRegistry,
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
		v1.POST("/stock/update", h.updateStock)
		v1.GET("/stock/levels", h.getStockLevels)
		v1.GET("/stock/alerts", h.getStockAlerts)
		v1.POST("/stock/alerts/:product_id/read", h.markAlertRead)
		v1.GET("/stock/history/:product_id", h.getStockHistory)
		v1.GET("/stock/forecast/:product_id", h.getStockForecast)

		v1.POST("/chat/sessions", h.createChatSession)
		v1.POST("/chat/messages", h.sendChatMessage)
		v1.POST("/chat/sessions/:id/assign", h.assignAdmin)
		v1.POST("/chat/sessions/:id/close", h.closeChatSession)
		v1.GET("/chat/sessions/:id/messages", h.getChatMessages)
		v1.POST("/chat/sessions/:id/read", h.markChatMessagesRead)
		v1.GET("/chat/waiting", h.getWaitingSessions)
		v1.GET("/chat/stats", h.getChatStats)
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

type updateStockRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

// updateStock handles manual stock mutations
func (h *Handler) updateStock(c *gin.Context) {
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	update, err := h.stockManager.UpdateStock(c.Request.Context(), req.ProductID, *req.Quantity, req.Reason)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"product_id":   update.ProductID,
		"old_quantity": update.OldQuantity,
		"new_quantity": update.NewQuantity,
		"reason":       update.Reason,
	})
}

// getStockLevels returns the full stock snapshot the dashboard binds to
func (h *Handler) getStockLevels(c *gin.Context) {
	levels, err := h.stockManager.GetStockLevels(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, levels)
}

// getStockAlerts returns retained alerts in insertion order
func (h *Handler) getStockAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.stockManager.GetStockAlerts()})
}

// markAlertRead flips the first unread alert for a product
func (h *Handler) markAlertRead(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.stockManager.MarkAlertRead(productID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// getStockHistory returns history entries within the day window, newest first
func (h *Handler) getStockHistory(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	entries, err := h.stockManager.GetStockHistory(c.Request.Context(), productID, days)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "history": entries})
}

// getStockForecast returns the consumption-based restock prediction
func (h *Handler) getStockForecast(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}
	daysAhead, _ := strconv.Atoi(c.DefaultQuery("days_ahead", "30"))

	forecast, err := h.stockManager.PredictStockNeeds(c.Request.Context(), productID, daysAhead)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

type createSessionRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required"`
}

// createChatSession opens a new chat session
func (h *Handler) createChatSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sessionID := h.chatRegistry.CreateSession(c.Request.Context(), req.CustomerID, req.CustomerName, req.CustomerEmail)
	c.JSON(http.StatusCreated, gin.H{"success": true, "session_id": sessionID})
}

type sendMessageRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	SenderID   string `json:"sender_id" binding:"required"`
	SenderName string `json:"sender_name" binding:"required"`
	Message    string `json:"message" binding:"required"`
	SenderType string `json:"sender_type"`
}

// sendChatMessage appends a message to a session
func (h *Handler) sendChatMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	message, err := h.chatRegistry.SendMessage(c.Request.Context(), req.SessionID, req.SenderID, req.SenderName, req.Message, req.SenderType)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

type assignAdminRequest struct {
	AdminID   string `json:"admin_id" binding:"required"`
	AdminName string `json:"admin_name" binding:"required"`
}

// assignAdmin assigns an admin to a waiting session
func (h *Handler) assignAdmin(c *gin.Context) {
	var req assignAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.chatRegistry.AssignAdmin(c.Request.Context(), c.Param("id"), req.AdminID, req.AdminName); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// closeChatSession closes a session explicitly
func (h *Handler) closeChatSession(c *gin.Context) {
	if err := h.chatRegistry.CloseSession(c.Request.Context(), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// getChatMessages returns the most recent messages of a session
func (h *Handler) getChatMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.chatRegistry.Messages(c.Param("id"), limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type markReadRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// markChatMessagesRead marks messages not authored by the user as read
func (h *Handler) markChatMessagesRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.chatRegistry.MarkMessagesRead(c.Param("id"), req.UserID); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// getWaitingSessions returns queued sessions in FIFO order
func (h *Handler) getWaitingSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.chatRegistry.WaitingSessions()})
}

// getChatStats returns aggregate chat statistics
func (h *Handler) getChatStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.chatRegistry.GetStats())
}

// renderError maps domain errors to HTTP status codes
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stock.ErrProductNotFound),
		errors.Is(err, stock.ErrAlertNotFound),
		errors.Is(err, chat.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, stock.ErrInsufficientHistory):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
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
