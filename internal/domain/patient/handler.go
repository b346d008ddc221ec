package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/his/his/internal/platform/auth"
	"github.com/his/his/internal/platform/errs"
	"github.com/his/his/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Register)
	api.POST("/patients/opd", h.RegisterOPD)
	api.POST("/patients/emergency", h.RegisterEmergency)
	api.GET("/patients", h.Search)
	api.GET("/patients/:id", h.Get)
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	registered, err := h.svc.Register(c.Request().Context(), actor, &p)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, registered)
}

type opdRequest struct {
	Patient
	Department      string `json:"department"`
	AttendingDoctor string `json:"attending_doctor"`
	ChiefComplaint  string `json:"chief_complaint"`
}

func (h *Handler) RegisterOPD(c echo.Context) error {
	var req opdRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	res, err := h.svc.RegisterOPD(c.Request().Context(), actor, &req.Patient,
		req.Department, req.AttendingDoctor, req.ChiefComplaint)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

type emergencyRequest struct {
	Patient
	ChiefComplaint string `json:"chief_complaint"`
}

func (h *Handler) RegisterEmergency(c echo.Context) error {
	var req emergencyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	res, err := h.svc.RegisterEmergency(c.Request().Context(), actor, &req.Patient, req.ChiefComplaint)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// fall back to MRN lookup so the front desk can paste either
		p, mrnErr := h.svc.GetByMRN(c.Request().Context(), c.Param("id"))
		if mrnErr != nil {
			return echo.NewHTTPError(errs.HTTPStatus(mrnErr), mrnErr.Error())
		}
		return c.JSON(http.StatusOK, p)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(errs.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}
