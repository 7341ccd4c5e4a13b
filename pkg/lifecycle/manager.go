package lifecycle

import (
	"time"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
)

// Manager enforces the feature status state machine:
//
//	draft -> active -> deprecated -> archived
//
// plus the two short-circuits for features retired before activation
// (draft -> deprecated, draft -> archived). Transitions never move backward
// and archived is terminal.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

var allowed = map[entity.FeatureStatus][]entity.FeatureStatus{
	entity.StatusDraft:      {entity.StatusActive, entity.StatusDeprecated, entity.StatusArchived},
	entity.StatusActive:     {entity.StatusDeprecated},
	entity.StatusDeprecated: {entity.StatusArchived},
	entity.StatusArchived:   {},
}

// CanTransition reports whether from -> to is a legal transition.
func (m *Manager) CanTransition(from, to entity.FeatureStatus) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies the status change to the feature in place, stamping
// UpdatedAt. The manager is the only writer of Status and UpdatedAt.
func (m *Manager) Transition(meta *entity.FeatureMetadata, to entity.FeatureStatus) error {
	if !to.Valid() {
		return &apperrors.InvalidTransitionError{
			Feature: meta.Name,
			From:    string(meta.Status),
			To:      string(to),
		}
	}
	if !m.CanTransition(meta.Status, to) {
		return &apperrors.InvalidTransitionError{
			Feature: meta.Name,
			From:    string(meta.Status),
			To:      string(to),
		}
	}
	meta.Status = to
	meta.UpdatedAt = time.Now().UTC()
	return nil
}

// Touch stamps UpdatedAt without a status change (version bumps).
func (m *Manager) Touch(meta *entity.FeatureMetadata) {
	meta.UpdatedAt = time.Now().UTC()
}
