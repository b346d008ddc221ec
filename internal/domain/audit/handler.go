package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/audit-events", h.ListEvents)
}

func (h *Handler) ListEvents(c echo.Context) error {
	pg := pagination.FromContext(c)

	params := map[string]string{}
	for _, k := range []string{"actor", "entity", "entity_id"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}

	events, total, err := h.svc.ListEvents(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit events")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, pg.Limit, pg.Offset))
}
