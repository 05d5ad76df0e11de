package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/http/middleware"
	"github.com/nurpe/groupbuy-claims/internal/service"
)

// Handler serves the participant surface: the catalog, claims, the
// account view and the message box.
type Handler struct {
	claims   *engine.Coordinator
	catalog  *service.CatalogService
	account  *service.AccountService
	messages *service.MessageService
	log      zerolog.Logger
}

func NewHandler(
	claims *engine.Coordinator,
	catalog *service.CatalogService,
	account *service.AccountService,
	messages *service.MessageService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		claims:   claims,
		catalog:  catalog,
		account:  account,
		messages: messages,
		log:      log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/breakdowns", h.listBreakdowns)
	protected.GET("/breakdowns/:name", h.getBreakdown)
	protected.POST("/claims", h.createClaim)
	protected.GET("/account/orders", h.accountOrders)
	protected.POST("/messages", h.createMessage)
}

func (h *Handler) listBreakdowns(c *gin.Context) {
	listings, err := h.catalog.ListBreakdowns(c.Request.Context(), false)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"breakdowns": listings})
}

func (h *Handler) getBreakdown(c *gin.Context) {
	listing, err := h.catalog.GetBreakdown(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

type createClaimRequest struct {
	BreakdownName string   `json:"breakdown_name" binding:"required"`
	Items         []string `json:"items" binding:"required"`
}

func (h *Handler) createClaim(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.claims.AttemptClaim(c.Request.Context(), req.BreakdownName, principal.UserID, req.Items)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) accountOrders(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	summary, err := h.account.Summary(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type createMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) createMessage(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messages.Submit(c.Request.Context(), principal, req.Text)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var conflict *engine.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "items": conflict.Items})
	case errors.Is(err, engine.ErrRoundSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrEmptySelection), errors.Is(err, engine.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrUnknownBreakdown), errors.Is(err, engine.ErrUnknownItem),
		errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
