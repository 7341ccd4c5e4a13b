// FILE: internal/entity/feature_group_entity.go
package entity

import "time"

// FeatureGroup is a named collection of features sharing one entity type.
// All member features carry the group's Entity; a feature name belongs to at
// most one group.
type FeatureGroup struct {
	Name        string             `json:"name"`
	Entity      string             `json:"entity"`
	Description string             `json:"description,omitempty"`
	Features    []*FeatureMetadata `json:"features"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Feature returns the member with the given name, or nil.
func (g *FeatureGroup) Feature(name string) *FeatureMetadata {
	for _, f := range g.Features {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FeatureNames returns member names in declaration order.
func (g *FeatureGroup) FeatureNames() []string {
	names := make([]string, 0, len(g.Features))
	for _, f := range g.Features {
		names = append(names, f.Name)
	}
	return names
}

// Clone deep-copies the group. The catalog hands clones to callers so long
// running computations never read catalog-owned memory.
func (g *FeatureGroup) Clone() *FeatureGroup {
	c := *g
	c.Features = make([]*FeatureMetadata, 0, len(g.Features))
	for _, f := range g.Features {
		c.Features = append(c.Features, f.Clone())
	}
	return &c
}
