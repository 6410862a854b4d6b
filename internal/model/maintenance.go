package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Maintenance statuses.
const (
	MaintenancePending    = "pending"
	MaintenanceInProgress = "in_progress"
	MaintenanceCompleted  = "completed"
	MaintenanceCancelled  = "cancelled"
)

// ValidMaintenanceStatus reports whether s is a known maintenance status.
func ValidMaintenanceStatus(s string) bool {
	switch s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

// MaintenanceLog is a maintenance request raised by a member.
type MaintenanceLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:64" json:"category"`
	Priority    string    `gorm:"size:16" json:"priority"`
	Status      string    `gorm:"size:16;not null;index" json:"status"`
	ReportedBy  string    `gorm:"size:36;not null;index" json:"reported_by"`
	AssignedTo  string    `gorm:"size:128" json:"assigned_to,omitempty"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Reporter *Member `gorm:"foreignKey:ReportedBy;references:ID" json:"members,omitempty"`
}

// BeforeCreate assigns an opaque id when none is set.
func (l *MaintenanceLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// MaintenanceInput carries the writable fields of a MaintenanceLog.
type MaintenanceInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high urgent"`
	ReportedBy  string `json:"reported_by" validate:"required"`
	AssignedTo  string `json:"assigned_to"`
}

// DefaultMaintenanceInput is the empty maintenance request form.
func DefaultMaintenanceInput() MaintenanceInput {
	return MaintenanceInput{Category: "general", Priority: PriorityMedium}
}

// RecordID returns the log id.
func (l MaintenanceLog) RecordID() string { return l.ID }

// Input returns the writable fields of l.
func (l MaintenanceLog) Input() MaintenanceInput {
	return MaintenanceInput{
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Priority:    l.Priority,
		ReportedBy:  l.ReportedBy,
		AssignedTo:  l.AssignedTo,
	}
}

// ApplyTo copies the input onto l.
func (in MaintenanceInput) ApplyTo(l *MaintenanceLog) {
	l.Title = in.Title
	l.Description = in.Description
	l.Category = in.Category
	l.Priority = in.Priority
	l.ReportedBy = in.ReportedBy
	l.AssignedTo = in.AssignedTo
}
