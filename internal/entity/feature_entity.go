// FILE: internal/entity/feature_entity.go
// Domain entities for the feature registry
package entity

import (
	"time"
)

// FeatureType classifies the value a feature holds.
type FeatureType string

const (
	FeatureTypeNumerical   FeatureType = "numerical"
	FeatureTypeCategorical FeatureType = "categorical"
	FeatureTypeBoolean     FeatureType = "boolean"
	FeatureTypeTimestamp   FeatureType = "timestamp"
	FeatureTypeText        FeatureType = "text"
	FeatureTypeEmbedding   FeatureType = "embedding"
)

// Valid reports whether t is one of the declared feature types.
func (t FeatureType) Valid() bool {
	switch t {
	case FeatureTypeNumerical, FeatureTypeCategorical, FeatureTypeBoolean,
		FeatureTypeTimestamp, FeatureTypeText, FeatureTypeEmbedding:
		return true
	}
	return false
}

// FeatureStatus is the lifecycle state of a feature.
type FeatureStatus string

const (
	StatusDraft      FeatureStatus = "draft"
	StatusActive     FeatureStatus = "active"
	StatusDeprecated FeatureStatus = "deprecated"
	StatusArchived   FeatureStatus = "archived"
)

func (s FeatureStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusDeprecated, StatusArchived:
		return true
	}
	return false
}

// TransformationKind tags how a transformation's compute step is expressed.
// Expression transformations are compiled and inspected at registration time;
// native handles point into a function table registered in code.
type TransformationKind string

const (
	TransformExpression TransformationKind = "expression"
	TransformNative     TransformationKind = "native"
)

// Transformation is an optional derivation rule attached to a feature.
// SourceFeatures is the ordered list of feature names the compute step reads;
// empty means the value is supplied directly in the raw record.
//
// The compute step must be pure: same inputs, same output, no side effects.
// That contract is documented, not enforced, and it is what keeps training and
// serving consistent.
type Transformation struct {
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	SourceFeatures []string           `json:"source_features"`
	Kind           TransformationKind `json:"kind"`
	Expression     string             `json:"expression,omitempty"` // Kind == expression
	Handle         string             `json:"handle,omitempty"`     // Kind == native
}

// Validation is an optional constraint set attached to a feature.
// A nil field means unconstrained for that dimension.
type Validation struct {
	MinValue      *float64 `json:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
	NotNull       bool     `json:"not_null,omitempty"`
	Unique        bool     `json:"unique,omitempty"` // advisory; online tier keying enforces it
}

// FeatureMetadata is one declared feature. (Entity, Name) is globally unique
// in the catalog.
type FeatureMetadata struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Type           FeatureType     `json:"type"`
	Entity         string          `json:"entity"`
	Owner          string          `json:"owner,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Status         FeatureStatus   `json:"status"`
	Version        string          `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Transformation *Transformation `json:"transformation,omitempty"`
	Validation     *Validation     `json:"validation,omitempty"`
}

// HasTag reports whether the feature carries the given tag.
func (m *FeatureMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so catalog snapshots never alias catalog-owned state.
func (m *FeatureMetadata) Clone() *FeatureMetadata {
	c := *m
	c.Tags = append([]string(nil), m.Tags...)
	if m.Transformation != nil {
		t := *m.Transformation
		t.SourceFeatures = append([]string(nil), m.Transformation.SourceFeatures...)
		c.Transformation = &t
	}
	if m.Validation != nil {
		v := *m.Validation
		v.AllowedValues = append([]string(nil), m.Validation.AllowedValues...)
		if m.Validation.MinValue != nil {
			mv := *m.Validation.MinValue
			v.MinValue = &mv
		}
		if m.Validation.MaxValue != nil {
			mv := *m.Validation.MaxValue
			v.MaxValue = &mv
		}
		c.Validation = &v
	}
	return &c
}
