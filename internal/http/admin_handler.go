package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// AdminHandler serves catalog authoring, order retraction, reports,
// the admin roster and the message inbox.
type AdminHandler struct {
	catalog   *service.CatalogService
	mutations *engine.MutationHandler
	reports   *service.ReportService
	admins    *service.AdminService
	messages  *service.MessageService
	errors    *Handler
	log       zerolog.Logger
}

func NewAdminHandler(
	catalog *service.CatalogService,
	mutations *engine.MutationHandler,
	reports *service.ReportService,
	admins *service.AdminService,
	messages *service.MessageService,
	errorHandler *Handler,
	log zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:   catalog,
		mutations: mutations,
		reports:   reports,
		admins:    admins,
		messages:  messages,
		errors:    errorHandler,
		log:       log,
	}
}

func (h *AdminHandler) Register(router *gin.Engine, authMiddleware, adminMiddleware gin.HandlerFunc) {
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)

	admin.GET("/breakdowns", h.listBreakdowns)
	admin.POST("/breakdowns", h.createBreakdown)
	admin.POST("/breakdowns/:name/items", h.addItem)
	admin.PATCH("/breakdowns/:name/visibility", h.setVisibility)
	admin.DELETE("/breakdowns/:name", h.deleteBreakdown)

	admin.DELETE("/orders/:id/items/:item", h.removeOrderItem)

	admin.GET("/reports/rounds", h.completedRounds)
	admin.GET("/reports/positions", h.positionsWorkbook)
	admin.GET("/reports/receipts", h.receiptsDocument)

	admin.GET("/admins", h.listAdmins)
	admin.POST("/admins", h.addAdmin)
	admin.DELETE("/admins/:id", h.removeAdmin)

	admin.GET("/messages", h.inbox)
	admin.DELETE("/messages/:id", h.deleteMessage)
}

func (h *AdminHandler) listBreakdowns(c *gin.Context) {
	listings, err := h.catalog.ListBreakdowns(c.Request.Context(), true)
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakdowns": listings})
}

type createBreakdownRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *AdminHandler) createBreakdown(c *gin.Context) {
	var req createBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	breakdown, err := h.catalog.CreateBreakdown(c.Request.Context(), req.Name)
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"breakdown": breakdown})
}

type addItemRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"required"`
}

func (h *AdminHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.catalog.AddItem(c.Request.Context(), service.AddItemInput{
		BreakdownName: c.Param("name"),
		ItemName:      req.Name,
		Price:         req.Price,
	})
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

type setVisibilityRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

func (h *AdminHandler) setVisibility(c *gin.Context) {
	var req setVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.catalog.SetHidden(c.Request.Context(), c.Param("name"), *req.Hidden); err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) deleteBreakdown(c *gin.Context) {
	if err := h.catalog.DeleteBreakdown(c.Request.Context(), c.Param("name")); err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) removeOrderItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	result, err := h.mutations.RemoveItem(c.Request.Context(), orderID, c.Param("item"))
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	response := gin.H{
		"outcome":  string(result.Outcome),
		"reopened": result.Reopened,
	}
	if result.Order != nil {
		response["order"] = result.Order
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) completedRounds(c *gin.Context) {
	rounds, err := h.reports.CompletedRounds(c.Request.Context())
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

func (h *AdminHandler) positionsWorkbook(c *gin.Context) {
	result, err := h.reports.PositionsWorkbook(c.Request.Context())
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

func (h *AdminHandler) receiptsDocument(c *gin.Context) {
	result, err := h.reports.ReceiptsDocument(c.Request.Context())
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

func (h *AdminHandler) listAdmins(c *gin.Context) {
	admins, err := h.admins.ListAdmins(c.Request.Context())
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

type addAdminRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *AdminHandler) addAdmin(c *gin.Context) {
	var req addAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	admin, err := h.admins.AddAdmin(c.Request.Context(), req.UserID)
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"admin": admin})
}

func (h *AdminHandler) removeAdmin(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.admins.RemoveAdmin(c.Request.Context(), userID); err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) inbox(c *gin.Context) {
	messages, err := h.messages.Inbox(c.Request.Context())
	if err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *AdminHandler) deleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	if err := h.messages.Delete(c.Request.Context(), messageID); err != nil {
		h.errors.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
