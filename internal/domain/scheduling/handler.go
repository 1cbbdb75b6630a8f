package scheduling

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/exams/internal/platform/apperr"
	"github.com/clinic/exams/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/pending-results", h.ListPendingResults)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.ScheduleAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)
	api.PUT("/appointments/:id/status", h.UpdateStatus)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)

	api.GET("/results", h.ListResults)
	api.GET("/results/:id", h.GetResult)
	api.POST("/results", h.CreateResult)
	api.PUT("/results/:id", h.UpdateResult)
	api.DELETE("/results/:id", h.DeleteResult)

	api.GET("/availability", h.ListAvailability)
	api.POST("/availability", h.CreateAvailability)
	api.POST("/availability/batch", h.CreateAvailabilityBatch)
	api.DELETE("/availability/:id", h.DeleteAvailability)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Appointment Handlers --

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ScheduleAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// ListAppointments lists every appointment, or only those dated between
// the from and to query parameters (YYYY-MM-DD) when both are given.
func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	fromStr, toStr := c.QueryParam("from"), c.QueryParam("to")

	var (
		items []*Appointment
		err   error
	)
	switch {
	case fromStr == "" && toStr == "":
		items, err = h.svc.ListAppointments(ctx)
	case fromStr == "" || toStr == "":
		return echo.NewHTTPError(http.StatusBadRequest, "from and to must be given together")
	default:
		from, perr := time.Parse(time.DateOnly, fromStr)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		to, perr := time.Parse(time.DateOnly, toStr)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		items, err = h.svc.ListAppointmentsBetween(ctx, from, to)
	}
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err)
	}
	updated, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var change StatusChange
	if err := c.Bind(&change); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, change)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListPendingResults(c echo.Context) error {
	items, err := h.svc.ListCompletedWithoutResult(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

// -- Result Handlers --

func (h *Handler) CreateResult(c echo.Context) error {
	var r Result
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateResult(c.Request().Context(), &r); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetResult(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListResults(c echo.Context) error {
	items, err := h.svc.ListResults(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) UpdateResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var r Result
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	if err := h.svc.UpdateResult(c.Request().Context(), &r); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteResult(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteResult(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Availability Handlers --

func (h *Handler) CreateAvailability(c echo.Context) error {
	var a Availability
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAvailability(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) CreateAvailabilityBatch(c echo.Context) error {
	var items []*Availability
	if err := c.Bind(&items); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAvailabilityBatch(c.Request().Context(), items); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"created": len(items),
		"items":   items,
	})
}

func (h *Handler) ListAvailability(c echo.Context) error {
	items, err := h.svc.ListAvailability(c.Request().Context())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c)))
}

func (h *Handler) DeleteAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAvailability(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
