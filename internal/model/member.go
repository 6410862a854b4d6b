package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member statuses.
const (
	MemberActive   = "active"
	MemberPending  = "pending"
	MemberInactive = "inactive"
)

// Member is a registered resident of the society.
type Member struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Name             string    `gorm:"size:128;not null" json:"name"`
	Email            string    `gorm:"size:256;not null" json:"email"`
	Phone            string    `gorm:"size:32;not null" json:"phone"`
	Flat             string    `gorm:"size:32" json:"flat"`
	Address          string    `gorm:"size:512" json:"address"`
	Status           string    `gorm:"size:16;not null" json:"status"`
	Dues             float64   `gorm:"not null" json:"dues"`
	RegistrationDate time.Time `gorm:"not null;index" json:"registration_date"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an opaque id when none is set.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MemberInput carries the writable fields of a Member.
type MemberInput struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required"`
	Phone   string  `json:"phone" validate:"required"`
	Flat    string  `json:"flat" validate:"required"`
	Address string  `json:"address"`
	Status  string  `json:"status" validate:"required,oneof=active pending inactive"`
	Dues    float64 `json:"dues" validate:"gte=0"`
}

// DefaultMemberInput is the empty registration form.
func DefaultMemberInput() MemberInput {
	return MemberInput{Status: MemberActive}
}

// RecordID returns the member id.
func (m Member) RecordID() string { return m.ID }

// Input returns the writable fields of m.
func (m Member) Input() MemberInput {
	return MemberInput{
		Name:    m.Name,
		Email:   m.Email,
		Phone:   m.Phone,
		Flat:    m.Flat,
		Address: m.Address,
		Status:  m.Status,
		Dues:    m.Dues,
	}
}

// ApplyTo copies the input onto m.
func (in MemberInput) ApplyTo(m *Member) {
	m.Name = in.Name
	m.Email = in.Email
	m.Phone = in.Phone
	m.Flat = in.Flat
	m.Address = in.Address
	m.Status = in.Status
	m.Dues = in.Dues
}
