package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
	"github.com/iliyamo/transport-ticketing/internal/schedule"
)

// TemplateHandler lets company administrators manage weekly trip
// templates.  Every write is followed by an expansion of the template.
type TemplateHandler struct {
	Store    repository.TemplateRepo
	Schedule *schedule.Service
}

// NewTemplateHandler returns a TemplateHandler and panics on nil
// dependencies.
func NewTemplateHandler(store repository.TemplateRepo, svc *schedule.Service) *TemplateHandler {
	if store == nil || svc == nil {
		panic("nil dependency passed to NewTemplateHandler")
	}
	return &TemplateHandler{Store: store, Schedule: svc}
}

// CreateTemplate handles POST /v1/templates.  An administrator bound to a
// company may only create templates for it; company_id defaults to the
// token's company.  Returns 201 with the template and the expansion
// outcome.  When the template was stored but its expansion failed, the
// response is still 201 and carries expansion_error; POST
// /v1/templates/:id/expand retries.
func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	id, _ := middleware.Staff(c)
	var in schedule.TemplateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if in.CompanyID == "" {
		in.CompanyID = id.CompanyID
	}
	if id.CompanyID != "" && in.CompanyID != id.CompanyID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	res, err := h.Schedule.CreateTemplate(c.Request().Context(), in)
	return writeTemplateResult(c, http.StatusCreated, res, err)
}

// UpdateTemplate handles PUT /v1/templates/:id.  The body is the full
// template; company_id and agency_id may be omitted but never changed.
func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	t, ok := h.load(c)
	if !ok {
		return nil
	}
	var in schedule.TemplateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Schedule.UpdateTemplate(c.Request().Context(), t.ID, in)
	return writeTemplateResult(c, http.StatusOK, res, err)
}

// GetTemplate handles GET /v1/templates/:id.
func (h *TemplateHandler) GetTemplate(c echo.Context) error {
	t, ok := h.load(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, t)
}

// ExpandTemplate handles POST /v1/templates/:id/expand.  It re-runs the
// expansion and reports created, updated and stranded trip instances.
func (h *TemplateHandler) ExpandTemplate(c echo.Context) error {
	t, ok := h.load(c)
	if !ok {
		return nil
	}
	res, err := h.Schedule.Expand(c.Request().Context(), t.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// load reads the :id template and checks that the administrator may see
// it.  It writes the error response itself and returns false on failure.
func (h *TemplateHandler) load(c echo.Context) (*model.WeeklyTripTemplate, bool) {
	tid, ok := pathID(c)
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid template id"})
		return nil, false
	}
	t, err := h.Store.GetTemplate(c.Request().Context(), tid)
	if err != nil {
		_ = writeError(c, err)
		return nil, false
	}
	if id, _ := middleware.Staff(c); id.CompanyID != "" && id.CompanyID != t.CompanyID {
		_ = writeError(c, repository.ErrNotFound)
		return nil, false
	}
	return t, true
}

func writeTemplateResult(c echo.Context, status int, res *schedule.TemplateResult, err error) error {
	if err != nil && res == nil {
		return writeError(c, err)
	}
	if err != nil {
		c.Logger().Warnf("template %s stored but expansion failed: %v", res.Template.ID, err)
		return c.JSON(status, echo.Map{
			"template":        res.Template,
			"expansion":       res.Expansion,
			"expansion_error": "trip instances could not all be written, retry the expansion",
		})
	}
	return c.JSON(status, res)
}
