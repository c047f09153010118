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
	"lineage-backend/tests/fixtures"
	"lineage-backend/tests/mocks"
)

func TestCreateAssociationHandler(t *testing.T) {
	action := fixtures.NewNodeBuilder().
		WithCategory(entities.CategoryAction).
		WithName("train-run").Build()
	artifact := fixtures.NewNodeBuilder().WithName("model").Build()

	t.Run("resolves endpoints and persists the edge", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		assocRepo := new(mocks.MockAssociationRepository)
		stored, err := entities.NewAssociation(action, artifact, entities.AssociationProduced)
		require.NoError(t, err)
		nodeRepo.On("Get", mock.Anything, action.ID()).Return(action, nil)
		nodeRepo.On("Get", mock.Anything, artifact.ID()).Return(artifact, nil)
		assocRepo.On("PutEdge", mock.Anything, mock.AnythingOfType("*entities.Association")).
			Return(stored, nil)
		handler := handlers.NewCreateAssociationHandler(nodeRepo, assocRepo, zap.NewNop())

		// Act
		edge, err := handler.Handle(context.Background(), commands.CreateAssociationCommand{
			SourceID: action.ID().String(),
			DestID:   artifact.ID().String(),
			Type:     "Produced",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, action.ID(), edge.SourceID())
		assert.Equal(t, "train-run", edge.SourceName())
		assert.Equal(t, "model", edge.DestName())
		assocRepo.AssertExpectations(t)
	})

	t.Run("fails when an endpoint does not exist", func(t *testing.T) {
		// Arrange
		nodeRepo := new(mocks.MockNodeRepository)
		assocRepo := new(mocks.MockAssociationRepository)
		nodeRepo.On("Get", mock.Anything, action.ID()).Return(action, nil)
		nodeRepo.On("Get", mock.Anything, artifact.ID()).
			Return(nil, pkgerrors.NewNotFound("node not found"))
		handler := handlers.NewCreateAssociationHandler(nodeRepo, assocRepo, zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateAssociationCommand{
			SourceID: action.ID().String(),
			DestID:   artifact.ID().String(),
		})

		// Assert
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
		assocRepo.AssertNotCalled(t, "PutEdge", mock.Anything, mock.Anything)
	})

	t.Run("rejects an edge between two experiment entities", func(t *testing.T) {
		// Arrange
		expA := fixtures.NewNodeBuilder().
			WithCategory(entities.CategoryExperimentEntity).
			WithName("exp-a").Build()
		expB := fixtures.NewNodeBuilder().
			WithCategory(entities.CategoryExperimentEntity).
			WithName("exp-b").Build()
		nodeRepo := new(mocks.MockNodeRepository)
		assocRepo := new(mocks.MockAssociationRepository)
		nodeRepo.On("Get", mock.Anything, expA.ID()).Return(expA, nil)
		nodeRepo.On("Get", mock.Anything, expB.ID()).Return(expB, nil)
		handler := handlers.NewCreateAssociationHandler(nodeRepo, assocRepo, zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateAssociationCommand{
			SourceID: expA.ID().String(),
			DestID:   expB.ID().String(),
		})

		// Assert
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvalidAssociation(err))
		assocRepo.AssertNotCalled(t, "PutEdge", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid node identifier", func(t *testing.T) {
		// Arrange
		handler := handlers.NewCreateAssociationHandler(
			new(mocks.MockNodeRepository), new(mocks.MockAssociationRepository), zap.NewNop())

		// Act
		_, err := handler.Handle(context.Background(), commands.CreateAssociationCommand{
			SourceID: "not-a-uuid",
			DestID:   artifact.ID().String(),
		})

		// Assert
		require.Error(t, err)
	})
}
