package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-context-propagation/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-context-propagation/internal/domain"
)

// ContextService is the application surface the context endpoints use.
// *app.ContextService implements it.
type ContextService interface {
	Snapshot(ctx context.Context) domain.Snapshot
	Greet(ctx context.Context, salutation string) (*domain.Greeting, error)
	Relay(ctx context.Context) (*domain.Snapshot, error)
}

// ContextHandler serves the propagated request context.
type ContextHandler struct {
	svc ContextService
}

// NewContextHandler creates a new context handler.
func NewContextHandler(svc ContextService) *ContextHandler {
	return &ContextHandler{svc: svc}
}

// GetContext handles GET /api/v1/context. It returns every value propagated
// into the request.
func (h *ContextHandler) GetContext(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewContextResponse(h.svc.Snapshot(c.Request.Context())))
}

// GetGreeting handles GET /api/v1/greeting?salutation=...
func (h *ContextHandler) GetGreeting(c *gin.Context) {
	var req dto.GreetingRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		if errors.Is(err, dto.ErrBinding) {
			dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, "invalid query parameters", nil)
			return
		}

		dto.HandleErrorCode(c, dto.ErrorCodeValidation, "validation failed", dto.ValidationErrors(err))
		return
	}

	g, err := h.svc.Greet(c.Request.Context(), req.Salutation)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGreetingResponse(g))
}

// GetRelay handles GET /api/v1/relay. It calls the downstream service and
// shows what arrived there next to the local context.
func (h *ContextHandler) GetRelay(c *gin.Context) {
	ctx := c.Request.Context()

	remote, err := h.svc.Relay(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RelayResponse{
		Local:      dto.NewContextResponse(h.svc.Snapshot(ctx)),
		Downstream: dto.NewContextResponse(*remote),
	})
}

// RegisterRoutes registers the context routes on rg.
func (h *ContextHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/context", h.GetContext)
	rg.GET("/greeting", h.GetGreeting)
	rg.GET("/relay", h.GetRelay)
}
