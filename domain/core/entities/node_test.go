package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "lineage-backend/pkg/errors"
)

func TestNewNode(t *testing.T) {
	t.Run("creates a manual node with defaults", func(t *testing.T) {
		node, err := NewNode(CategoryArtifact, "Dataset", "images-v1", "s3://data/images", nil)

		require.NoError(t, err)
		assert.False(t, node.ID().IsEmpty())
		assert.Equal(t, CategoryArtifact, node.Category())
		assert.Equal(t, "images-v1", node.Name())
		assert.Equal(t, OriginManual, node.Origin())
		assert.NotNil(t, node.Properties())
		assert.True(t, node.CountsAgainstCeiling())
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		_, err := NewNode(Category("Pipeline"), "", "n", "", nil)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := NewNode(CategoryContext, "Experiment", "", "", nil)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects an overlong name", func(t *testing.T) {
		_, err := NewNode(CategoryAction, "TrainingRun", strings.Repeat("x", 121), "", nil)

		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestNewWorkflowNode(t *testing.T) {
	node, err := NewWorkflowNode(CategoryAction, "TrainingRun", "run-42", "", nil)

	require.NoError(t, err)
	assert.Equal(t, OriginWorkflow, node.Origin())
	assert.False(t, node.CountsAgainstCeiling())
}

func TestCapacityCeiling(t *testing.T) {
	tests := []struct {
		category Category
		ceiling  int
		bounded  bool
	}{
		{CategoryArtifact, MaxArtifacts, true},
		{CategoryAction, MaxActions, true},
		{CategoryContext, MaxContexts, true},
		{CategoryExperimentEntity, 0, false},
	}
	for _, tt := range tests {
		ceiling, bounded := CapacityCeiling(tt.category)
		assert.Equal(t, tt.ceiling, ceiling, string(tt.category))
		assert.Equal(t, tt.bounded, bounded, string(tt.category))
	}
}

func TestMergeProperties(t *testing.T) {
	node, err := NewNode(CategoryArtifact, "Model", "model-a", "", map[string]string{
		"framework": "pytorch",
		"stage":     "dev",
	})
	require.NoError(t, err)
	before := node.UpdatedAt()

	node.MergeProperties(map[string]string{
		"stage":   "prod",
		"version": "3",
	})

	props := node.Properties()
	assert.Equal(t, "pytorch", props["framework"], "unmentioned keys stay untouched")
	assert.Equal(t, "prod", props["stage"], "mentioned keys are replaced")
	assert.Equal(t, "3", props["version"], "new keys are added")
	assert.False(t, node.UpdatedAt().Before(before))
}

func TestPropertiesReturnsCopy(t *testing.T) {
	node, err := NewNode(CategoryArtifact, "Model", "model-b", "", map[string]string{"k": "v"})
	require.NoError(t, err)

	node.Properties()["k"] = "mutated"

	assert.Equal(t, "v", node.Properties()["k"])
}
