package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dakshesh-max/society-man/internal/report"
	"github.com/Dakshesh-max/society-man/internal/viewmodel"
)

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	d := viewmodel.NewDashboard(h.store)
	if err := d.LoadAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d.Summary(h.now()))
}

// GetReport handles GET /api/reports/:kind?from=&to= and answers with a CSV
// attachment.
func (h *Handler) GetReport(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rng, err := report.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := viewmodel.NewDashboard(h.store)
	if err := d.Model(kind.Table()).Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	data := report.Data{
		Members:       d.Members.Items(),
		Announcements: d.Announcements.Items(),
		Maintenance:   d.Maintenance.Items(),
		Visitors:      d.Visitors.Items(),
		Payments:      d.Payments.Items(),
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(kind)+`"`)
	c.Status(http.StatusOK)
	if err := report.Build(c.Writer, kind, rng, data, h.now()); err != nil {
		_ = c.Error(err)
	}
}
