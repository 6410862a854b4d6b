package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dakshesh-max/society-man/internal/model"
)

// ListMaintenance handles GET /api/maintenance with an optional status filter.
func (h *Handler) ListMaintenance(c *gin.Context) {
	logs, err := h.store.Maintenance().ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateMaintenanceStatus handles PATCH /api/maintenance/:id/status.
func (h *Handler) UpdateMaintenanceStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if !model.ValidMaintenanceStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + req.Status})
		return
	}

	entry, err := h.store.Maintenance().UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type checkOutRequest struct {
	At *time.Time `json:"at"`
}

// CheckOutVisitor handles POST /api/visitors/:id/checkout. The body is
// optional; without a time the visitor is checked out now.
func (h *Handler) CheckOutVisitor(c *gin.Context) {
	var req checkOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	v, err := h.store.Visitors().CheckOut(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type payRequest struct {
	Method        string     `json:"method" binding:"required"`
	TransactionID string     `json:"transaction_id"`
	PaidAt        *time.Time `json:"paid_at"`
}

// MarkPaymentPaid handles POST /api/payments/:id/pay.
func (h *Handler) MarkPaymentPaid(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method is required"})
		return
	}

	var at time.Time
	if req.PaidAt != nil {
		at = *req.PaidAt
	}
	p, err := h.store.Payments().MarkPaid(c.Request.Context(), c.Param("id"), req.Method, req.TransactionID, at)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
