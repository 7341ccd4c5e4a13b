// FILE: internal/dto/registry_dto.go
package dto

import "time"

type TransformationPayload struct {
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description"`
	SourceFeatures []string `json:"source_features"`
	Kind           string   `json:"kind" validate:"required,oneof=expression native"`
	Expression     string   `json:"expression"`
	Handle         string   `json:"handle"`
}

type ValidationPayload struct {
	MinValue      *float64 `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	AllowedValues []string `json:"allowed_values"`
	NotNull       bool     `json:"not_null"`
	Unique        bool     `json:"unique"`
}

type FeaturePayload struct {
	Name           string                 `json:"name" validate:"required"`
	Type           string                 `json:"type" validate:"required,oneof=numerical categorical boolean timestamp text embedding"`
	Description    string                 `json:"description"`
	Version        string                 `json:"version"`
	Status         string                 `json:"status"`
	Owner          string                 `json:"owner"`
	Tags           []string               `json:"tags"`
	Transformation *TransformationPayload `json:"transformation"`
	Validation     *ValidationPayload     `json:"validation"`
}

type RegisterGroupRequest struct {
	Name        string           `json:"name" validate:"required"`
	Entity      string           `json:"entity" validate:"required"`
	Description string           `json:"description"`
	Features    []FeaturePayload `json:"features" validate:"required,min=1,dive"`
}

type RegisterGroupResponse struct {
	Name         string   `json:"name"`
	Entity       string   `json:"entity"`
	FeatureOrder []string `json:"feature_order"`
}

type FeatureResponse struct {
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	Description    string                 `json:"description,omitempty"`
	Version        string                 `json:"version"`
	Status         string                 `json:"status"`
	Owner          string                 `json:"owner,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Group          string                 `json:"group"`
	Entity         string                 `json:"entity"`
	Transformation *TransformationPayload `json:"transformation,omitempty"`
	Validation     *ValidationPayload     `json:"validation,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type GroupResponse struct {
	Name        string            `json:"name"`
	Entity      string            `json:"entity"`
	Description string            `json:"description,omitempty"`
	Features    []FeatureResponse `json:"features"`
	CreatedAt   time.Time         `json:"created_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active deprecated archived"`
}

type UpdateVersionRequest struct {
	Version string `json:"version" validate:"required"`
}
