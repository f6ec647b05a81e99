package models

import (
	"strings"
	"time"
)

// AnnotationContext is the JSON-LD context advertised by the full shape.
const AnnotationContext = "http://www.w3.org/ns/anno.jsonld"

// Annotation is the stored annotation record. It is rendered through Full or Pale;
// both shapes describe the same row.
type Annotation struct {
	ID         string    `json:"id"`
	Motivation string    `json:"motivation"`
	Creator    string    `json:"creator"`
	BodyType   string    `json:"body_type"`
	BodyValue  string    `json:"body_value"`
	BodyFormat string    `json:"body_format"`
	TargetID   string    `json:"target_id"`
	TargetType string    `json:"target_type"`
	HeritageID string    `json:"heritage_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AnnotationBody is the body section of the full shape.
type AnnotationBody struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Format string `json:"format"`
}

// AnnotationTarget is the target section of the full shape.
type AnnotationTarget struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// AnnotationView is the full serialization of an annotation.
type AnnotationView struct {
	Context    string           `json:"@context"`
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Motivation string           `json:"motivation"`
	Creator    string           `json:"creator"`
	Body       AnnotationBody   `json:"body"`
	Target     AnnotationTarget `json:"target"`
	HeritageID string           `json:"heritage_id"`
	Created    time.Time        `json:"created"`
	Modified   time.Time        `json:"modified"`
}

// AnnotationPaleView is the reduced serialization of an annotation.
type AnnotationPaleView struct {
	ID         string    `json:"id"`
	Motivation string    `json:"motivation"`
	Value      string    `json:"value"`
	TargetID   string    `json:"target_id"`
	Created    time.Time `json:"created"`
}

// Full renders the annotation in the full shape.
func (a *Annotation) Full() AnnotationView {
	return AnnotationView{
		Context:    AnnotationContext,
		ID:         a.ID,
		Type:       "Annotation",
		Motivation: a.Motivation,
		Creator:    a.Creator,
		Body: AnnotationBody{
			Type:   a.BodyType,
			Value:  a.BodyValue,
			Format: a.BodyFormat,
		},
		Target: AnnotationTarget{
			ID:   a.TargetID,
			Type: a.TargetType,
		},
		HeritageID: a.HeritageID,
		Created:    a.CreatedAt,
		Modified:   a.UpdatedAt,
	}
}

// Pale renders the annotation in the reduced shape.
func (a *Annotation) Pale() AnnotationPaleView {
	return AnnotationPaleView{
		ID:         a.ID,
		Motivation: a.Motivation,
		Value:      a.BodyValue,
		TargetID:   a.TargetID,
		Created:    a.CreatedAt,
	}
}

// FullViews renders a list in the full shape.
func FullViews(annotations []Annotation) []AnnotationView {
	views := make([]AnnotationView, 0, len(annotations))
	for i := range annotations {
		views = append(views, annotations[i].Full())
	}
	return views
}

// PaleViews renders a list in the reduced shape.
func PaleViews(annotations []Annotation) []AnnotationPaleView {
	views := make([]AnnotationPaleView, 0, len(annotations))
	for i := range annotations {
		views = append(views, annotations[i].Pale())
	}
	return views
}

// TargetsHeritage reports whether the annotation's target id contains heritageID.
// This is substring containment: heritage "42" also matches a target naming "142".
func (a *Annotation) TargetsHeritage(heritageID string) bool {
	return strings.Contains(a.TargetID, heritageID)
}

// FilterByTarget keeps the annotations whose target id contains heritageID, in order.
func FilterByTarget(annotations []Annotation, heritageID string) []Annotation {
	filtered := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.TargetsHeritage(heritageID) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// CreateAnnotationRequest represents the body for creating an annotation in the full shape.
// Target id and heritage id come from the request, never from the body.
type CreateAnnotationRequest struct {
	Motivation string `json:"motivation" binding:"max=64"`
	Creator    string `json:"creator" binding:"max=256"`
	Body       struct {
		Type   string `json:"type" binding:"max=64"`
		Value  string `json:"value" binding:"required"`
		Format string `json:"format" binding:"max=64"`
	} `json:"body"`
	Target struct {
		Type string `json:"type" binding:"max=64"`
	} `json:"target"`
}

// CreatePaleAnnotationRequest represents the body for creating an annotation in the reduced shape.
type CreatePaleAnnotationRequest struct {
	Motivation string `json:"motivation" binding:"max=64"`
	Value      string `json:"value" binding:"required"`
}

// UpdateAnnotationRequest represents a partial update of the full shape.
type UpdateAnnotationRequest struct {
	Motivation *string `json:"motivation,omitempty" binding:"omitempty,max=64"`
	Creator    *string `json:"creator,omitempty" binding:"omitempty,max=256"`
	Body       *struct {
		Type   *string `json:"type,omitempty" binding:"omitempty,max=64"`
		Value  *string `json:"value,omitempty"`
		Format *string `json:"format,omitempty" binding:"omitempty,max=64"`
	} `json:"body,omitempty"`
	Target *struct {
		Type *string `json:"type,omitempty" binding:"omitempty,max=64"`
	} `json:"target,omitempty"`
}

// UpdatePaleAnnotationRequest represents a partial update of the reduced shape.
type UpdatePaleAnnotationRequest struct {
	Motivation *string `json:"motivation,omitempty" binding:"omitempty,max=64"`
	Value      *string `json:"value,omitempty"`
}

// AnnotationChanges is the set of stored fields an update touches.
type AnnotationChanges struct {
	Motivation *string
	Creator    *string
	BodyType   *string
	BodyValue  *string
	BodyFormat *string
	TargetType *string
}

// Apply copies the set fields onto a.
func (c *AnnotationChanges) Apply(a *Annotation) {
	if c.Motivation != nil {
		a.Motivation = *c.Motivation
	}
	if c.Creator != nil {
		a.Creator = *c.Creator
	}
	if c.BodyType != nil {
		a.BodyType = *c.BodyType
	}
	if c.BodyValue != nil {
		a.BodyValue = *c.BodyValue
	}
	if c.BodyFormat != nil {
		a.BodyFormat = *c.BodyFormat
	}
	if c.TargetType != nil {
		a.TargetType = *c.TargetType
	}
}

// Annotation builds the record to store; the caller supplies target and heritage ids.
func (r *CreateAnnotationRequest) Annotation(targetID, heritageID string) *Annotation {
	return &Annotation{
		Motivation: r.Motivation,
		Creator:    r.Creator,
		BodyType:   defaultString(r.Body.Type, "TextualBody"),
		BodyValue:  r.Body.Value,
		BodyFormat: defaultString(r.Body.Format, "text/plain"),
		TargetID:   targetID,
		TargetType: r.Target.Type,
		HeritageID: heritageID,
	}
}

// Replacement turns a full body into changes touching every writable field.
func (r *CreateAnnotationRequest) Replacement() *AnnotationChanges {
	a := r.Annotation("", "")
	return &AnnotationChanges{
		Motivation: &a.Motivation,
		Creator:    &a.Creator,
		BodyType:   &a.BodyType,
		BodyValue:  &a.BodyValue,
		BodyFormat: &a.BodyFormat,
		TargetType: &a.TargetType,
	}
}

// Changes converts the partial full-shape update.
func (r *UpdateAnnotationRequest) Changes() *AnnotationChanges {
	c := &AnnotationChanges{
		Motivation: r.Motivation,
		Creator:    r.Creator,
	}
	if r.Body != nil {
		c.BodyType = r.Body.Type
		c.BodyValue = r.Body.Value
		c.BodyFormat = r.Body.Format
	}
	if r.Target != nil {
		c.TargetType = r.Target.Type
	}
	return c
}

// Annotation builds the record to store from the reduced shape.
func (r *CreatePaleAnnotationRequest) Annotation(targetID string) *Annotation {
	return &Annotation{
		Motivation: r.Motivation,
		BodyType:   "TextualBody",
		BodyValue:  r.Value,
		BodyFormat: "text/plain",
		TargetID:   targetID,
	}
}

// Replacement turns a reduced body into changes touching the fields the reduced shape exposes.
func (r *CreatePaleAnnotationRequest) Replacement() *AnnotationChanges {
	motivation, value := r.Motivation, r.Value
	return &AnnotationChanges{Motivation: &motivation, BodyValue: &value}
}

// Changes converts the partial reduced-shape update.
func (r *UpdatePaleAnnotationRequest) Changes() *AnnotationChanges {
	return &AnnotationChanges{Motivation: r.Motivation, BodyValue: r.Value}
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
