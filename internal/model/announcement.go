package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Announcement priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Announcement is a notice posted to all residents.
type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"size:128;not null" json:"author"`
	Category  string    `gorm:"size:64;not null" json:"category"`
	Priority  string    `gorm:"size:16;not null" json:"priority"`
	IsPinned  bool      `gorm:"not null" json:"is_pinned"`
	IsRead    bool      `gorm:"not null" json:"is_read"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an opaque id when none is set.
func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Broadcast reports whether the announcement should be pushed to subscribers.
func (a Announcement) Broadcast() bool {
	return a.IsPinned || a.Priority == PriorityUrgent
}

// AnnouncementInput carries the writable fields of an Announcement.
type AnnouncementInput struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Category string `json:"category" validate:"required"`
	Priority string `json:"priority" validate:"required,oneof=low medium high urgent"`
	IsPinned bool   `json:"is_pinned"`
}

// DefaultAnnouncementInput is the empty announcement form.
func DefaultAnnouncementInput() AnnouncementInput {
	return AnnouncementInput{Priority: PriorityMedium, Category: "Meeting"}
}

// RecordID returns the announcement id.
func (a Announcement) RecordID() string { return a.ID }

// Input returns the writable fields of a.
func (a Announcement) Input() AnnouncementInput {
	return AnnouncementInput{
		Title:    a.Title,
		Content:  a.Content,
		Author:   a.Author,
		Category: a.Category,
		Priority: a.Priority,
		IsPinned: a.IsPinned,
	}
}

// ApplyTo copies the input onto a.
func (in AnnouncementInput) ApplyTo(a *Announcement) {
	a.Title = in.Title
	a.Content = in.Content
	a.Author = in.Author
	a.Category = in.Category
	a.Priority = in.Priority
	a.IsPinned = in.IsPinned
}
