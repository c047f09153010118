package dynamodb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lineage-backend/domain/core/entities"
	pkgerrors "lineage-backend/pkg/errors"
)

// stubDBClient records the last transactional write and returns a canned error
type stubDBClient struct {
	transactInput *dynamodb.TransactWriteItemsInput
	transactErr   error
}

func (c *stubDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, nil
}

func (c *stubDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (c *stubDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return &dynamodb.UpdateItemOutput{}, nil
}

func (c *stubDBClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.transactInput = params
	if c.transactErr != nil {
		return nil, c.transactErr
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func newTestEdge(t *testing.T) *entities.Association {
	t.Helper()
	src, err := entities.NewNode(entities.CategoryAction, "", "build", "", nil)
	require.NoError(t, err)
	dst, err := entities.NewNode(entities.CategoryArtifact, "", "model", "", nil)
	require.NoError(t, err)
	edge, err := entities.NewAssociation(src, dst, entities.AssociationProduced)
	require.NoError(t, err)
	return edge
}

// canceledAt builds a transaction cancellation where only the i-th item failed
func canceledAt(failed, total int) error {
	reasons := make([]types.CancellationReason, total)
	for i := range reasons {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
	}
	reasons[failed].Code = aws.String("ConditionalCheckFailed")
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestPutEdgeGuardsEndpointExistence(t *testing.T) {
	client := &stubDBClient{}
	repo := NewAssociationRepository(client, "lineage", "GSI1", "GSI2", zap.NewNop())
	edge := newTestEdge(t)

	_, err := repo.PutEdge(context.Background(), edge)
	require.NoError(t, err)

	// The write carries condition checks on both endpoint node items, so an
	// edge cannot be created after an endpoint was deleted.
	items := client.transactInput.TransactItems
	require.Len(t, items, 4)
	require.NotNil(t, items[0].Put)
	require.NotNil(t, items[1].Update)
	require.NotNil(t, items[2].ConditionCheck)
	require.NotNil(t, items[3].ConditionCheck)

	srcKey := items[2].ConditionCheck.Key["PK"].(*types.AttributeValueMemberS)
	assert.Equal(t, "NODE#"+edge.SourceID().String(), srcKey.Value)
	dstKey := items[3].ConditionCheck.Key["PK"].(*types.AttributeValueMemberS)
	assert.Equal(t, "NODE#"+edge.DestID().String(), dstKey.Value)
	assert.Equal(t, "attribute_exists(PK)", *items[2].ConditionCheck.ConditionExpression)
}

func TestPutEdgeSelfLoopChecksEndpointOnce(t *testing.T) {
	client := &stubDBClient{}
	repo := NewAssociationRepository(client, "lineage", "GSI1", "GSI2", zap.NewNop())

	node, err := entities.NewNode(entities.CategoryArtifact, "", "loop", "", nil)
	require.NoError(t, err)
	edge, err := entities.NewAssociation(node, node, entities.AssociationAssociatedWith)
	require.NoError(t, err)

	_, err = repo.PutEdge(context.Background(), edge)
	require.NoError(t, err)

	// A transaction cannot touch the same item twice.
	require.Len(t, client.transactInput.TransactItems, 3)
	require.NotNil(t, client.transactInput.TransactItems[2].ConditionCheck)
}

func TestPutEdgeMissingEndpointMapsToNotFound(t *testing.T) {
	edge := newTestEdge(t)

	t.Run("source deleted", func(t *testing.T) {
		client := &stubDBClient{transactErr: canceledAt(2, 4)}
		repo := NewAssociationRepository(client, "lineage", "GSI1", "GSI2", zap.NewNop())

		_, err := repo.PutEdge(context.Background(), edge)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("destination deleted", func(t *testing.T) {
		client := &stubDBClient{transactErr: canceledAt(3, 4)}
		repo := NewAssociationRepository(client, "lineage", "GSI1", "GSI2", zap.NewNop())

		_, err := repo.PutEdge(context.Background(), edge)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("ceiling still maps to capacity exceeded", func(t *testing.T) {
		client := &stubDBClient{transactErr: canceledAt(1, 4)}
		repo := NewAssociationRepository(client, "lineage", "GSI1", "GSI2", zap.NewNop())

		_, err := repo.PutEdge(context.Background(), edge)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCapacityExceeded(err))
	})
}
