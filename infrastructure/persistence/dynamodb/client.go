package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	pkgerrors "lineage-backend/pkg/errors"
)

// DBClient defines the DynamoDB operations the repositories use, keeping them
// testable against a fake client. All writes go through TransactWriteItems so
// every structural invariant is enforced in one conditional transaction.
type DBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// isThrottle reports whether an AWS error is a transient capacity/availability
// failure that is safe to retry.
func isThrottle(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var reqLimit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &reqLimit) || errors.As(err, &internal) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceUnavailable", "RequestTimeout", "RequestLimitExceeded":
			return true
		}
	}
	return false
}

// classify maps a raw provider error onto the application taxonomy. Throttling
// and service unavailability become transient errors the retry layer may act
// on; everything else is internal.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if isThrottle(err) {
		return pkgerrors.NewTransient(message, err)
	}
	return pkgerrors.NewInternal(message, err)
}

// cancellationReasons extracts the per-item cancellation reasons of a failed
// transactional write, or nil when the failure was not a cancellation.
func cancellationReasons(err error) []types.CancellationReason {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		return canceled.CancellationReasons
	}
	return nil
}

// reasonFailed reports whether the i-th transaction item failed its condition
func reasonFailed(reasons []types.CancellationReason, i int) bool {
	if i >= len(reasons) || reasons[i].Code == nil {
		return false
	}
	return *reasons[i].Code == "ConditionalCheckFailed"
}

// isConditionalCheckFailed reports whether a single-item write failed its condition
func isConditionalCheckFailed(err error) bool {
	var condFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condFailed)
}
