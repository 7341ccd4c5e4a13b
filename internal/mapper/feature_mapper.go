// FILE: internal/mapper/feature_mapper.go
package mapper

import (
	"feature-store-be/internal/dto"
	"feature-store-be/internal/entity"
)

type FeatureMapper struct{}

func NewFeatureMapper() *FeatureMapper {
	return &FeatureMapper{}
}

func (m *FeatureMapper) ToGroupEntity(req *dto.RegisterGroupRequest) *entity.FeatureGroup {
	features := make([]*entity.FeatureMetadata, 0, len(req.Features))
	for i := range req.Features {
		features = append(features, m.toFeatureEntity(req.Entity, &req.Features[i]))
	}
	return &entity.FeatureGroup{
		Name:        req.Name,
		Entity:      req.Entity,
		Description: req.Description,
		Features:    features,
	}
}

func (m *FeatureMapper) toFeatureEntity(groupEntity string, p *dto.FeaturePayload) *entity.FeatureMetadata {
	meta := &entity.FeatureMetadata{
		Name:        p.Name,
		Description: p.Description,
		Type:        entity.FeatureType(p.Type),
		Entity:      groupEntity,
		Owner:       p.Owner,
		Tags:        append([]string(nil), p.Tags...),
		Status:      entity.FeatureStatus(p.Status),
		Version:     p.Version,
	}
	if p.Transformation != nil {
		meta.Transformation = &entity.Transformation{
			Name:           p.Transformation.Name,
			Description:    p.Transformation.Description,
			SourceFeatures: append([]string(nil), p.Transformation.SourceFeatures...),
			Kind:           entity.TransformationKind(p.Transformation.Kind),
			Expression:     p.Transformation.Expression,
			Handle:         p.Transformation.Handle,
		}
	}
	if p.Validation != nil {
		meta.Validation = &entity.Validation{
			MinValue:      p.Validation.MinValue,
			MaxValue:      p.Validation.MaxValue,
			AllowedValues: append([]string(nil), p.Validation.AllowedValues...),
			NotNull:       p.Validation.NotNull,
			Unique:        p.Validation.Unique,
		}
	}
	return meta
}

func (m *FeatureMapper) ToGroupResponse(g *entity.FeatureGroup) *dto.GroupResponse {
	if g == nil {
		return nil
	}
	features := make([]dto.FeatureResponse, 0, len(g.Features))
	for _, f := range g.Features {
		features = append(features, *m.ToFeatureResponse(g.Name, f))
	}
	return &dto.GroupResponse{
		Name:        g.Name,
		Entity:      g.Entity,
		Description: g.Description,
		Features:    features,
		CreatedAt:   g.CreatedAt,
	}
}

func (m *FeatureMapper) ToFeatureResponse(group string, f *entity.FeatureMetadata) *dto.FeatureResponse {
	if f == nil {
		return nil
	}
	res := &dto.FeatureResponse{
		Name:        f.Name,
		Type:        string(f.Type),
		Description: f.Description,
		Version:     f.Version,
		Status:      string(f.Status),
		Owner:       f.Owner,
		Tags:        f.Tags,
		Group:       group,
		Entity:      f.Entity,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if f.Transformation != nil {
		res.Transformation = &dto.TransformationPayload{
			Name:           f.Transformation.Name,
			Description:    f.Transformation.Description,
			SourceFeatures: f.Transformation.SourceFeatures,
			Kind:           string(f.Transformation.Kind),
			Expression:     f.Transformation.Expression,
			Handle:         f.Transformation.Handle,
		}
	}
	if f.Validation != nil {
		res.Validation = &dto.ValidationPayload{
			MinValue:      f.Validation.MinValue,
			MaxValue:      f.Validation.MaxValue,
			AllowedValues: f.Validation.AllowedValues,
			NotNull:       f.Validation.NotNull,
			Unique:        f.Validation.Unique,
		}
	}
	return res
}
