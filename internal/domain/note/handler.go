package note

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carenote/carenote/internal/platform/apperror"
	"github.com/carenote/carenote/internal/platform/auth"
	"github.com/carenote/carenote/internal/platform/events"
)

type Handler struct {
	svc      *Service
	eventLog events.Log
}

func NewHandler(svc *Service, eventLog events.Log) *Handler {
	return &Handler{svc: svc, eventLog: eventLog}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	provider := api.Group("", auth.RequireRole("provider", "admin"))
	provider.POST("/notes", h.Create)
	provider.GET("/notes/:id", h.Get)
	provider.POST("/notes/:id/finalize", h.Finalize)
	provider.POST("/notes/:id/share", h.Share)
	provider.GET("/consultations/:id/events", h.Events)

	view := api.Group("", auth.RequireRole("provider", "admin", "patient"))
	view.GET("/consultations/:id/patient-view", h.PatientView)
}

func (h *Handler) Create(c echo.Context) error {
	var n ProviderNote
	if err := c.Bind(&n); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDraft(c.Request().Context(), &n); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	n, err := h.svc.Finalize(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Share(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	view, err := h.svc.Share(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) PatientView(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	view, err := h.svc.GetPatientView(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Events(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	history, err := h.eventLog.History(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, history)
}
