// FILE: internal/dto/serving_dto.go
package dto

import "time"

type IngestRequest struct {
	Timestamp *time.Time             `json:"timestamp"`
	Values    map[string]interface{} `json:"values" validate:"required,min=1"`
}

type IngestResponse struct {
	EntityID     string            `json:"entity_id"`
	Group        string            `json:"group"`
	Timestamp    time.Time         `json:"timestamp"`
	Values       map[string]string `json:"values"`
	PartialWrite bool              `json:"partial_write,omitempty"`
}

type OnlineFeaturesResponse struct {
	EntityID string            `json:"entity_id"`
	Group    string            `json:"group"`
	Values   map[string]string `json:"values"`
}

type HistoricalRecord struct {
	EntityID  string            `json:"entity_id"`
	Timestamp time.Time         `json:"timestamp"`
	Values    map[string]string `json:"values"`
}

type HistoricalResponse struct {
	Group   string             `json:"group"`
	Records []HistoricalRecord `json:"records"`
}
