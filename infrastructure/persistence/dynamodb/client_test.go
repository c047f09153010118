package dynamodb

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "lineage-backend/pkg/errors"
)

func TestClassify(t *testing.T) {
	t.Run("throttling is transient", func(t *testing.T) {
		err := classify(&types.ProvisionedThroughputExceededException{}, "op failed")
		assert.True(t, pkgerrors.IsTransient(err))
	})

	t.Run("generic throttling code is transient", func(t *testing.T) {
		apiErr := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
		err := classify(apiErr, "op failed")
		assert.True(t, pkgerrors.IsTransient(err))
	})

	t.Run("other failures are internal", func(t *testing.T) {
		err := classify(errors.New("broken pipe"), "op failed")
		assert.True(t, pkgerrors.IsInternal(err))
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, classify(nil, "op failed"))
	})
}

func TestCancellationReasons(t *testing.T) {
	canceled := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}

	reasons := cancellationReasons(canceled)
	require.Len(t, reasons, 2)
	assert.False(t, reasonFailed(reasons, 0))
	assert.True(t, reasonFailed(reasons, 1))
	assert.False(t, reasonFailed(reasons, 5), "out of range is not a failure")

	assert.Nil(t, cancellationReasons(errors.New("not a cancellation")))
}

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: "NODE#abc"},
		"SK":     &types.AttributeValueMemberS{Value: "METADATA"},
		"GSI1SK": &types.AttributeValueMemberS{Value: "CREATED#2026-01-01T00:00:00Z#abc"},
	}

	cursor := encodeCursor(key)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty cursor decodes to nil", func(t *testing.T) {
		decoded, err := decodeCursor("")
		require.NoError(t, err)
		assert.Nil(t, decoded)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := decodeCursor("not base64!!")
		assert.Error(t, err)
	})
}
