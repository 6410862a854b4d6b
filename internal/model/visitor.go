package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visitor statuses.
const (
	VisitorCheckedIn  = "checked-in"
	VisitorCheckedOut = "checked-out"
)

// Visitor is a guest registered at the gate.
type Visitor struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Name          string     `gorm:"size:128;not null" json:"name"`
	Phone         string     `gorm:"size:32;not null" json:"phone"`
	Purpose       string     `gorm:"size:256;not null" json:"purpose"`
	HostFlat      string     `gorm:"size:32;not null" json:"host_flat"`
	HostName      string     `gorm:"size:128;not null" json:"host_name"`
	IDType        string     `gorm:"size:64" json:"id_type,omitempty"`
	IDNumber      string     `gorm:"size:64" json:"id_number,omitempty"`
	VehicleNumber string     `gorm:"size:32" json:"vehicle_number,omitempty"`
	CheckIn       time.Time  `gorm:"not null;index" json:"check_in"`
	CheckOut      *time.Time `json:"check_out"`
	Status        string     `gorm:"size:16;not null" json:"status"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an opaque id when none is set.
func (v *Visitor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// CurrentStatus derives the status from the check-out timestamp.
func (v Visitor) CurrentStatus() string {
	if v.CheckOut == nil {
		return VisitorCheckedIn
	}
	return VisitorCheckedOut
}

// Duration returns how long the visit lasted. ok is false while the visitor is inside.
func (v Visitor) Duration() (d time.Duration, ok bool) {
	if v.CheckOut == nil {
		return 0, false
	}
	return v.CheckOut.Sub(v.CheckIn), true
}

// VisitorInput carries the writable fields of a Visitor.
type VisitorInput struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Purpose       string `json:"purpose" validate:"required"`
	HostFlat      string `json:"host_flat" validate:"required"`
	HostName      string `json:"host_name" validate:"required"`
	IDType        string `json:"id_type"`
	IDNumber      string `json:"id_number"`
	VehicleNumber string `json:"vehicle_number"`
}

// DefaultVisitorInput is the empty visitor registration form.
func DefaultVisitorInput() VisitorInput {
	return VisitorInput{}
}

// RecordID returns the visitor id.
func (v Visitor) RecordID() string { return v.ID }

// Input returns the writable fields of v.
func (v Visitor) Input() VisitorInput {
	return VisitorInput{
		Name:          v.Name,
		Phone:         v.Phone,
		Purpose:       v.Purpose,
		HostFlat:      v.HostFlat,
		HostName:      v.HostName,
		IDType:        v.IDType,
		IDNumber:      v.IDNumber,
		VehicleNumber: v.VehicleNumber,
	}
}

// ApplyTo copies the input onto v.
func (in VisitorInput) ApplyTo(v *Visitor) {
	v.Name = in.Name
	v.Phone = in.Phone
	v.Purpose = in.Purpose
	v.HostFlat = in.HostFlat
	v.HostName = in.HostName
	v.IDType = in.IDType
	v.IDNumber = in.IDNumber
	v.VehicleNumber = in.VehicleNumber
}
