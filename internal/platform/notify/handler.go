package notify

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the provider's live notification list over HTTP so clients
// can render and dismiss toasts.
type Handler struct {
	provider *Provider
}

// NewHandler creates a notification handler.
func NewHandler(p *Provider) *Handler {
	return &Handler{provider: p}
}

// RegisterRoutes registers the notification routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.List)
	g.DELETE("/notifications/:id", h.Dismiss)
	g.DELETE("/notifications", h.Clear)
}

// List handles GET /notifications.
func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.provider.List())
}

// Dismiss handles DELETE /notifications/:id.
func (h *Handler) Dismiss(c echo.Context) error {
	h.provider.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /notifications.
func (h *Handler) Clear(c echo.Context) error {
	h.provider.Clear()
	return c.NoContent(http.StatusNoContent)
}
