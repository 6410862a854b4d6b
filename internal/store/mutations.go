package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Dakshesh-max/society-man/internal/model"
)

type maintenanceTable struct {
	table[model.MaintenanceLog, model.MaintenanceInput]
}

// ListByStatus returns logs with the given status; "" or "all" returns every log.
func (t *maintenanceTable) ListByStatus(ctx context.Context, status string) ([]model.MaintenanceLog, error) {
	if status == "" || status == "all" {
		return t.List(ctx)
	}
	logs := []model.MaintenanceLog{}
	if err := t.query(ctx).Where("status = ?", status).Order(t.newest()).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s with status %q: %w", t.name, status, err)
	}
	return logs, nil
}

// UpdateStatus advances a log to a new status.
func (t *maintenanceTable) UpdateStatus(ctx context.Context, id, status string) (model.MaintenanceLog, error) {
	if !model.ValidMaintenanceStatus(status) {
		return model.MaintenanceLog{}, fmt.Errorf("unknown maintenance status %q: %w", status, ErrInvalidState)
	}
	return t.mutate(ctx, id, func(l *model.MaintenanceLog) error {
		l.Status = status
		return nil
	})
}

type visitorTable struct {
	table[model.Visitor, model.VisitorInput]
}

// CheckOut closes an open visit at the given time.
func (t *visitorTable) CheckOut(ctx context.Context, id string, at time.Time) (model.Visitor, error) {
	if at.IsZero() {
		at = t.s.now()
	}
	return t.mutate(ctx, id, func(v *model.Visitor) error {
		if v.CheckOut != nil {
			return fmt.Errorf("visitor %s already checked out: %w", id, ErrInvalidState)
		}
		if at.Before(v.CheckIn) {
			return fmt.Errorf("visitor %s check-out precedes check-in: %w", id, ErrInvalidState)
		}
		checkOut := at
		v.CheckOut = &checkOut
		v.Status = model.VisitorCheckedOut
		return nil
	})
}

type paymentTable struct {
	table[model.Payment, model.PaymentInput]
}

// MarkPaid records a payment as settled.
func (t *paymentTable) MarkPaid(ctx context.Context, id, method, transactionID string, at time.Time) (model.Payment, error) {
	if at.IsZero() {
		at = t.s.now()
	}
	return t.mutate(ctx, id, func(p *model.Payment) error {
		if p.Status == model.PaymentPaid {
			return fmt.Errorf("payment %s already paid: %w", id, ErrInvalidState)
		}
		paid := at
		p.PaidDate = &paid
		p.Status = model.PaymentPaid
		p.Method = method
		p.TransactionID = transactionID
		return nil
	})
}
