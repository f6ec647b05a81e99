// Package models contains the data models for the application.
package models

import (
	"time"
)

// Heritage represents a cataloged cultural heritage item.
type Heritage struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Origin      string    `json:"origin"`
	Location    string    `json:"location"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	ExactDate   string    `json:"exact_date"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateHeritageRequest represents the request body for creating a heritage item.
// PUT requests bind the same body and replace every field.
type CreateHeritageRequest struct {
	Title       string   `json:"title" binding:"required,max=256"`
	Description string   `json:"description"`
	Origin      string   `json:"origin" binding:"max=256"`
	Location    string   `json:"location" binding:"max=256"`
	StartDate   string   `json:"start_date" binding:"max=64"`
	EndDate     string   `json:"end_date" binding:"max=64"`
	ExactDate   string   `json:"exact_date" binding:"max=64"`
	Tags        []string `json:"tags"`
}

// UpdateHeritageRequest represents the request body for partially updating a heritage item.
type UpdateHeritageRequest struct {
	Title       *string   `json:"title,omitempty" binding:"omitempty,min=1,max=256"`
	Description *string   `json:"description,omitempty"`
	Origin      *string   `json:"origin,omitempty" binding:"omitempty,max=256"`
	Location    *string   `json:"location,omitempty" binding:"omitempty,max=256"`
	StartDate   *string   `json:"start_date,omitempty" binding:"omitempty,max=64"`
	EndDate     *string   `json:"end_date,omitempty" binding:"omitempty,max=64"`
	ExactDate   *string   `json:"exact_date,omitempty" binding:"omitempty,max=64"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Replacement turns a full body into an update that touches every field.
func (r *CreateHeritageRequest) Replacement() *UpdateHeritageRequest {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &UpdateHeritageRequest{
		Title:       &r.Title,
		Description: &r.Description,
		Origin:      &r.Origin,
		Location:    &r.Location,
		StartDate:   &r.StartDate,
		EndDate:     &r.EndDate,
		ExactDate:   &r.ExactDate,
		Tags:        &tags,
	}
}

// Apply copies the set fields of the request onto h.
func (r *UpdateHeritageRequest) Apply(h *Heritage) {
	if r.Title != nil {
		h.Title = *r.Title
	}
	if r.Description != nil {
		h.Description = *r.Description
	}
	if r.Origin != nil {
		h.Origin = *r.Origin
	}
	if r.Location != nil {
		h.Location = *r.Location
	}
	if r.StartDate != nil {
		h.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		h.EndDate = *r.EndDate
	}
	if r.ExactDate != nil {
		h.ExactDate = *r.ExactDate
	}
	if r.Tags != nil {
		h.Tags = *r.Tags
	}
}
