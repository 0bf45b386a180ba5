package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	dashboardapp "github.com/procurement/backend/internal/application/dashboard"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/interfaces/http/dto"
)

const dateLayout = "2006-01-02"

// DashboardService builds role dashboards
type DashboardService interface {
	ForPrincipal(ctx context.Context, p identity.Principal, q dashboardapp.Query) (*dashboardapp.DashboardResponse, error)
	ForRole(ctx context.Context, p identity.Principal, roleName string, q dashboardapp.Query) (*dashboardapp.DashboardResponse, error)
}

// DashboardExporter renders dashboards to workbooks
type DashboardExporter interface {
	Export(ctx context.Context, p identity.Principal, roleName string, q dashboardapp.Query) (*dashboardapp.Export, error)
}

// DashboardHandler serves the role dashboards
type DashboardHandler struct {
	BaseHandler
	dashboards DashboardService
	exporter   DashboardExporter
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboards DashboardService, exporter DashboardExporter) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, exporter: exporter}
}

// Mine handles GET /dashboard
// @ID           getMyDashboard
// @Summary      Get the dashboard for the caller's role
// @Tags         dashboard
// @Produce      json
// @Param        from query string false "Range start (YYYY-MM-DD or RFC 3339)"
// @Param        to query string false "Range end (YYYY-MM-DD or RFC 3339)"
// @Success      200 {object} dto.Response{data=dashboardapp.DashboardResponse}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Mine(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	q, ok := h.dateRange(c)
	if !ok {
		return
	}
	resp, err := h.dashboards.ForPrincipal(c.Request.Context(), p, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ByRole handles GET /dashboard/:role
// @ID           getRoleDashboard
// @Summary      Get a role dashboard
// @Tags         dashboard
// @Produce      json
// @Param        role path string true "Role" Enums(purchasing, accounting, treasury, executive)
// @Param        from query string false "Range start (YYYY-MM-DD or RFC 3339)"
// @Param        to query string false "Range end (YYYY-MM-DD or RFC 3339)"
// @Success      200 {object} dto.Response{data=dashboardapp.DashboardResponse}
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /dashboard/{role} [get]
func (h *DashboardHandler) ByRole(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	q, ok := h.dateRange(c)
	if !ok {
		return
	}
	resp, err := h.dashboards.ForRole(c.Request.Context(), p, c.Param("role"), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Export handles GET /dashboard/export?role= and returns an xlsx workbook
// @ID           exportDashboard
// @Summary      Export a dashboard workbook
// @Tags         dashboard
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        role query string false "Role, the caller's own by default"
// @Param        from query string false "Range start (YYYY-MM-DD or RFC 3339)"
// @Param        to query string false "Range end (YYYY-MM-DD or RFC 3339)"
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /dashboard/export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	q, ok := h.dateRange(c)
	if !ok {
		return
	}
	export, err := h.exporter.Export(c.Request.Context(), p, c.Query("role"), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	c.Data(http.StatusOK, dashboardapp.ExportContentType, export.Content)
}

// dateRange reads the optional from and to query parameters. Both accept a
// plain date or an RFC 3339 timestamp.
func (h *DashboardHandler) dateRange(c *gin.Context) (dashboardapp.Query, bool) {
	var (
		q       dashboardapp.Query
		details []dto.ValidationDetail
	)
	for name, target := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			details = append(details, dto.ValidationDetail{Field: name, Message: "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp"})
			continue
		}
		*target = &t
	}
	if len(details) > 0 {
		h.ValidationError(c, details)
		return q, false
	}
	return q, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
