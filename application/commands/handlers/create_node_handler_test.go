package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lineage-backend/application/commands"
	"lineage-backend/application/commands/handlers"
	"lineage-backend/domain/core/entities"
	pkgerrors "lineage-backend/pkg/errors"
	"lineage-backend/tests/mocks"
)

func TestCreateNodeHandler(t *testing.T) {
	t.Run("creates and persists a manual node", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		nodeRepo.On("Put", mock.Anything, mock.AnythingOfType("*entities.Node")).Return(nil)
		handler := handlers.NewCreateNodeHandler(nodeRepo, zap.NewNop())

		// Act
		node, err := handler.Handle(context.Background(), commands.CreateNodeCommand{
			Category:  "Artifact",
			Subtype:   "Dataset",
			Name:      "images-v1",
			SourceURI: "s3://data/images",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entities.CategoryArtifact, node.Category())
		assert.Equal(t, entities.OriginManual, node.Origin())
		nodeRepo.AssertExpectations(t)
	})

	t.Run("creates a workflow node exempt from ceilings", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		nodeRepo.On("Put", mock.Anything, mock.AnythingOfType("*entities.Node")).Return(nil)
		handler := handlers.NewCreateNodeHandler(nodeRepo, zap.NewNop())

		// Act
		node, err := handler.Handle(context.Background(), commands.CreateNodeCommand{
			Category:       "Action",
			Name:           "run-42",
			WorkflowOrigin: true,
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entities.OriginWorkflow, node.Origin())
		assert.False(t, node.CountsAgainstCeiling())
	})

	t.Run("rejects an invalid command without touching the store", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		handler := handlers.NewCreateNodeHandler(nodeRepo, zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateNodeCommand{
			Category: "Artifact",
		})

		// Assert
		require.Error(t, err)
		nodeRepo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	})

	t.Run("surfaces a duplicate name from the provider", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		nodeRepo.On("Put", mock.Anything, mock.Anything).
			Return(pkgerrors.NewDuplicateName("name already in use"))
		handler := handlers.NewCreateNodeHandler(nodeRepo, zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateNodeCommand{
			Category: "Artifact",
			Name:     "taken",
		})

		// Assert
		require.Error(t, err)
		assert.True(t, pkgerrors.IsDuplicateName(err), "the typed error survives wrapping")
	})

	t.Run("surfaces a capacity ceiling from the provider", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		nodeRepo.On("Put", mock.Anything, mock.Anything).
			Return(pkgerrors.NewCapacityExceeded("ceiling reached"))
		handler := handlers.NewCreateNodeHandler(nodeRepo, zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateNodeCommand{
			Category: "Context",
			Name:     "ctx-501",
		})

		// Assert
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCapacityExceeded(err))
	})
}
