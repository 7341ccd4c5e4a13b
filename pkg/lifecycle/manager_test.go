package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
)

func TestCanTransition(t *testing.T) {
	m := NewManager()

	legal := []struct {
		from, to entity.FeatureStatus
	}{
		{entity.StatusDraft, entity.StatusActive},
		{entity.StatusDraft, entity.StatusDeprecated},
		{entity.StatusDraft, entity.StatusArchived},
		{entity.StatusActive, entity.StatusDeprecated},
		{entity.StatusDeprecated, entity.StatusArchived},
	}
	for _, tc := range legal {
		assert.True(t, m.CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct {
		from, to entity.FeatureStatus
	}{
		{entity.StatusActive, entity.StatusDraft},
		{entity.StatusActive, entity.StatusActive},
		{entity.StatusActive, entity.StatusArchived},
		{entity.StatusDeprecated, entity.StatusActive},
		{entity.StatusDeprecated, entity.StatusDraft},
		{entity.StatusArchived, entity.StatusDraft},
		{entity.StatusArchived, entity.StatusActive},
		{entity.StatusArchived, entity.StatusDeprecated},
	}
	for _, tc := range illegal {
		assert.False(t, m.CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTransitionUpdatesStatusAndTimestamp(t *testing.T) {
	m := NewManager()
	meta := &entity.FeatureMetadata{
		Name:      "total_purchases",
		Status:    entity.StatusDraft,
		UpdatedAt: time.Now().Add(-time.Hour),
	}

	before := meta.UpdatedAt
	err := m.Transition(meta, entity.StatusActive)

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusActive, meta.Status)
	assert.True(t, meta.UpdatedAt.After(before))
}

func TestTransitionDeprecatedBackToActiveFails(t *testing.T) {
	m := NewManager()
	meta := &entity.FeatureMetadata{Name: "churn_score", Status: entity.StatusDeprecated}

	err := m.Transition(meta, entity.StatusActive)

	var transitionErr *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "deprecated", transitionErr.From)
	assert.Equal(t, "active", transitionErr.To)
	assert.Equal(t, entity.StatusDeprecated, meta.Status, "status must not change on a rejected transition")
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	m := NewManager()
	meta := &entity.FeatureMetadata{Name: "churn_score", Status: entity.StatusActive}

	err := m.Transition(meta, entity.FeatureStatus("retired"))

	var transitionErr *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transitionErr))
}
