package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses.
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
	PaymentOverdue = "overdue"
)

// Payment is a society fee owed by a flat.
type Payment struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Flat          string     `gorm:"size:32;not null;index" json:"flat"`
	Resident      string     `gorm:"size:128;not null" json:"resident"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Type          string     `gorm:"size:64;not null" json:"type"`
	DueDate       time.Time  `gorm:"not null;index" json:"due_date"`
	PaidDate      *time.Time `json:"paid_date"`
	Status        string     `gorm:"size:16;not null" json:"status"`
	Method        string     `gorm:"size:64" json:"method,omitempty"`
	TransactionID string     `gorm:"size:64" json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an opaque id when none is set.
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsOverdue reports whether an unpaid payment is past its due date.
func (p Payment) IsOverdue(now time.Time) bool {
	if p.Status == PaymentPaid {
		return false
	}
	return p.DueDate.Before(now)
}

// PaymentInput carries the writable fields of a Payment. Status is only read
// when the payment is created; afterwards it changes through MarkPaid.
type PaymentInput struct {
	Flat     string    `json:"flat" validate:"required"`
	Resident string    `json:"resident" validate:"required"`
	Amount   float64   `json:"amount" validate:"gt=0"`
	Type     string    `json:"type" validate:"required"`
	DueDate  time.Time `json:"due_date" validate:"required"`
	Status   string    `json:"status" validate:"required,oneof=paid pending overdue"`
	Method   string    `json:"method"`
}

// DefaultPaymentInput is the empty payment form.
func DefaultPaymentInput() PaymentInput {
	return PaymentInput{Type: "Maintenance", Status: PaymentPending}
}

// RecordID returns the payment id.
func (p Payment) RecordID() string { return p.ID }

// Input returns the writable fields of p.
func (p Payment) Input() PaymentInput {
	return PaymentInput{
		Flat:     p.Flat,
		Resident: p.Resident,
		Amount:   p.Amount,
		Type:     p.Type,
		DueDate:  p.DueDate,
		Status:   p.Status,
		Method:   p.Method,
	}
}

// ApplyTo copies the editable details onto p. The status is left alone.
func (in PaymentInput) ApplyTo(p *Payment) {
	p.Flat = in.Flat
	p.Resident = in.Resident
	p.Amount = in.Amount
	p.Type = in.Type
	p.DueDate = in.DueDate
	p.Method = in.Method
}
