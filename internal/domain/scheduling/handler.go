package scheduling

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vocare/calendar/internal/platform/auth"
	"github.com/vocare/calendar/internal/platform/calendar"
	"github.com/vocare/calendar/pkg/pagination"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "staff"))
	g.GET("/appointments", h.ListAppointments)
	g.GET("/appointments/:id", h.GetAppointment)
	g.GET("/appointments/:id/draft", h.GetDraft)
	g.GET("/appointments/:id/activities", h.ListActivities)
	g.POST("/appointments", h.CreateAppointment)
	g.PUT("/appointments/:id", h.UpdateAppointment)
	g.DELETE("/appointments/:id", h.DeleteAppointment)

	g.GET("/calendar/month", h.MonthView)
	g.GET("/calendar/week", h.WeekView)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/categories", h.ListCategories)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/categories", h.CreateCategory)
}

// toHTTPError maps service errors onto status codes. Backend details are
// not exposed to clients.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// optionalID reads a uuid query parameter where "" and "all" mean no constraint.
func optionalID(c echo.Context, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" || strings.EqualFold(v, "all") {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// optionalDate reads a YYYY-MM-DD query parameter as midnight in loc.
func optionalDate(c echo.Context, name string, loc *time.Location) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := calendar.Parse(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+", expected YYYY-MM-DD")
	}
	t := d.In(loc)
	return &t, nil
}

func (h *Handler) filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter
	var err error
	if f.CategoryID, err = optionalID(c, "category"); err != nil {
		return f, err
	}
	if f.PatientID, err = optionalID(c, "patient"); err != nil {
		return f, err
	}
	if f.From, err = optionalDate(c, "from", h.svc.Location()); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(c, "to", h.svc.Location()); err != nil {
		return f, err
	}
	return f, nil
}

// refFromQuery resolves ?date= (default today) shifted by ?shift= steps.
func (h *Handler) refFromQuery(c echo.Context, step func(time.Time, int) time.Time) (time.Time, error) {
	ref := h.now().In(h.svc.Location())
	d, err := optionalDate(c, "date", h.svc.Location())
	if err != nil {
		return ref, err
	}
	if d != nil {
		ref = *d
	}
	if v := c.QueryParam("shift"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ref, echo.NewHTTPError(http.StatusBadRequest, "invalid shift")
		}
		ref = step(ref, n)
	}
	return ref, nil
}

// -- Appointment Handlers --

func (h *Handler) ListAppointments(c echo.Context) error {
	f, err := h.filterFromQuery(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAppointments(c.Request().Context(), f)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// GetDraft returns the appointment as an edit form prefilled in the
// calendar's timezone.
func (h *Handler) GetDraft(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, DraftFrom(a, h.svc.Location()))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), d)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), id, d)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// DeleteAppointment requires ?confirm=true; without it nothing is deleted.
func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if confirmed, _ := strconv.ParseBool(c.QueryParam("confirm")); !confirmed {
		return echo.NewHTTPError(http.StatusPreconditionRequired, "deletion must be confirmed with confirm=true")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListActivities(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListActivities(c.Request().Context(), id, pg)
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []*Activity{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// -- Calendar Handlers --

func (h *Handler) MonthView(c echo.Context) error {
	f, err := h.filterFromQuery(c)
	if err != nil {
		return err
	}
	ref, err := h.refFromQuery(c, calendar.AddMonths)
	if err != nil {
		return err
	}
	grid, err := h.svc.MonthView(c.Request().Context(), f, ref)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *Handler) WeekView(c echo.Context) error {
	f, err := h.filterFromQuery(c)
	if err != nil {
		return err
	}
	ref, err := h.refFromQuery(c, calendar.AddWeeks)
	if err != nil {
		return err
	}
	grid, err := h.svc.WeekView(c.Request().Context(), f, ref)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *Handler) Dashboard(c echo.Context) error {
	f, err := h.filterFromQuery(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Dashboard(c.Request().Context(), f, h.now())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// -- Category Handlers --

func (h *Handler) ListCategories(c echo.Context) error {
	items, err := h.svc.FetchCategories(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []*Category{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var cat Category
	if err := c.Bind(&cat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCategory(c.Request().Context(), &cat); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, cat)
}
