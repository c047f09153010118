package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

const edgeCounterPK = "COUNT#EDGE"

// AssociationRepository implements the edge provider contract. Each edge is a
// single item projected onto both index facets through the GSIs, so one
// DeleteItem removes the edge from the outgoing and incoming views atomically.
type AssociationRepository struct {
	client    DBClient
	tableName string
	gsi1Name  string
	gsi2Name  string
	logger    *zap.Logger
}

// Compile-time interface check
var _ ports.AssociationRepository = (*AssociationRepository)(nil)

// NewAssociationRepository creates a new AssociationRepository
func NewAssociationRepository(client DBClient, tableName, gsi1Name, gsi2Name string, logger *zap.Logger) *AssociationRepository {
	return &AssociationRepository{
		client:    client,
		tableName: tableName,
		gsi1Name:  gsi1Name,
		gsi2Name:  gsi2Name,
		logger:    logger,
	}
}

// edgeItem represents the DynamoDB item structure for an association
type edgeItem struct {
	PK         string `dynamodbav:"PK"` // EDGE#<sourceID>#<destID>
	SK         string `dynamodbav:"SK"` // EDGE
	EntityType string `dynamodbav:"EntityType"`
	SourceID   string `dynamodbav:"SourceID"`
	DestID     string `dynamodbav:"DestID"`
	AssocType  string `dynamodbav:"AssocType"`
	SourceName string `dynamodbav:"SourceName"`
	DestName   string `dynamodbav:"DestName"`
	CreatedAt  string `dynamodbav:"CreatedAt"`

	GSI1PK string `dynamodbav:"GSI1PK"` // OUT#<sourceID>
	GSI1SK string `dynamodbav:"GSI1SK"` // CREATED#<timestamp>#<destID>
	GSI2PK string `dynamodbav:"GSI2PK"` // IN#<destID>
	GSI2SK string `dynamodbav:"GSI2SK"` // CREATED#<timestamp>#<sourceID>
}

func edgePK(sourceID, destID valueobjects.NodeID) string {
	return "EDGE#" + sourceID.String() + "#" + destID.String()
}

// nodeExistsCheck guards a transaction on an endpoint node still existing
func nodeExistsCheck(tableName string, id valueobjects.NodeID) types.TransactWriteItem {
	return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}}
}

// PutEdge persists an edge transactionally with the global ceiling counter and
// condition checks on both endpoint node items, so an edge can never be
// written after one of its endpoints has been deleted. Re-creating an
// identical edge is idempotent and returns the stored one; the same ordered
// pair with a different type is rejected.
func (r *AssociationRepository) PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	created := assoc.CreatedAt().UTC().Format(timeFormat)
	item := edgeItem{
		PK:         edgePK(assoc.SourceID(), assoc.DestID()),
		SK:         "EDGE",
		EntityType: "EDGE",
		SourceID:   assoc.SourceID().String(),
		DestID:     assoc.DestID().String(),
		AssocType:  string(assoc.Type()),
		SourceName: assoc.SourceName(),
		DestName:   assoc.DestName(),
		CreatedAt:  created,
		GSI1PK:     "OUT#" + assoc.SourceID().String(),
		GSI1SK:     "CREATED#" + created + "#" + assoc.DestID().String(),
		GSI2PK:     "IN#" + assoc.DestID().String(),
		GSI2SK:     "CREATED#" + created + "#" + assoc.SourceID().String(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to marshal edge", err)
	}

	// A transaction cannot touch the same item twice, so a self-loop carries
	// a single endpoint check.
	transactItems := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		}},
		counterIncrement(r.tableName, edgeCounterPK, entities.MaxAssociations),
		nodeExistsCheck(r.tableName, assoc.SourceID()),
	}
	if !assoc.SourceID().Equals(assoc.DestID()) {
		transactItems = append(transactItems, nodeExistsCheck(r.tableName, assoc.DestID()))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if reasons := cancellationReasons(err); reasons != nil {
			if reasonFailed(reasons, 0) {
				return r.resolveExisting(ctx, assoc)
			}
			if reasonFailed(reasons, 1) {
				return nil, pkgerrors.NewCapacityExceeded("association ceiling reached")
			}
			if reasonFailed(reasons, 2) {
				return nil, pkgerrors.NewNotFound("source node not found: " + assoc.SourceID().String())
			}
			if reasonFailed(reasons, 3) {
				return nil, pkgerrors.NewNotFound("destination node not found: " + assoc.DestID().String())
			}
		}
		return nil, classify(err, "failed to persist association")
	}

	r.logger.Debug("Association persisted",
		zap.String("sourceID", assoc.SourceID().String()),
		zap.String("destID", assoc.DestID().String()),
	)
	return assoc, nil
}

// resolveExisting handles a lost creation race: an identical edge means the
// request already succeeded, a different type is a contract violation.
func (r *AssociationRepository) resolveExisting(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	existing, err := r.GetEdge(ctx, assoc.SourceID(), assoc.DestID())
	if err != nil {
		return nil, err
	}
	if existing.Type() == assoc.Type() {
		return existing, nil
	}
	return nil, pkgerrors.NewInvalidAssociation(
		"association already exists with type " + string(existing.Type()))
}

// GetEdge retrieves the edge for an ordered pair
func (r *AssociationRepository) GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: edgePK(sourceID, destID)},
			"SK": &types.AttributeValueMemberS{Value: "EDGE"},
		},
	})
	if err != nil {
		return nil, classify(err, "failed to get association")
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFound(
			"association not found: " + sourceID.String() + " -> " + destID.String())
	}
	return parseEdgeItem(out.Item)
}

// QueryEdges returns one page of edges incident to a node on the requested facet
func (r *AssociationRepository) QueryEdges(ctx context.Context, q ports.EdgeQuery) (ports.Page[*entities.Association], error) {
	indexName := r.gsi1Name
	pkName := "GSI1PK"
	pkValue := "OUT#" + q.NodeID.String()
	if q.Direction == ports.DirectionIncoming {
		indexName = r.gsi2Name
		pkName = "GSI2PK"
		pkValue = "IN#" + q.NodeID.String()
	}

	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return ports.Page[*entities.Association]{}, pkgerrors.NewValidation("invalid cursor")
	}

	limit := int32(q.Limit)
	if limit <= 0 {
		limit = 50
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", pkName)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
		ExclusiveStartKey: startKey,
		Limit:             aws.Int32(limit),
	})
	if err != nil {
		return ports.Page[*entities.Association]{}, classify(err, "failed to query associations")
	}

	edges := make([]*entities.Association, 0, len(out.Items))
	for _, item := range out.Items {
		edge, err := parseEdgeItem(item)
		if err != nil {
			r.logger.Warn("Failed to parse edge item", zap.Error(err))
			continue
		}
		edges = append(edges, edge)
	}

	page := ports.Page[*entities.Association]{Items: edges}
	if len(out.LastEvaluatedKey) > 0 {
		page.HasMore = true
		page.NextCursor = encodeCursor(out.LastEvaluatedKey)
	}
	return page, nil
}

// DeleteEdge removes the edge item and decrements the ceiling counter. Both
// index facets disappear with the single item, so no facet can dangle.
func (r *AssociationRepository) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"PK": &types.AttributeValueMemberS{Value: edgePK(sourceID, destID)},
					"SK": &types.AttributeValueMemberS{Value: "EDGE"},
				},
				ConditionExpression: aws.String("attribute_exists(PK)"),
			}},
			counterDecrement(r.tableName, edgeCounterPK),
		},
	})
	if err != nil {
		if reasons := cancellationReasons(err); reasonFailed(reasons, 0) {
			return pkgerrors.NewNotFound(
				"association not found: " + sourceID.String() + " -> " + destID.String())
		}
		return classify(err, "failed to delete association")
	}
	return nil
}

// parseEdgeItem converts a DynamoDB item to an Association
func parseEdgeItem(item map[string]types.AttributeValue) (*entities.Association, error) {
	var ei edgeItem
	if err := attributevalue.UnmarshalMap(item, &ei); err != nil {
		return nil, pkgerrors.NewInternal("failed to unmarshal edge item", err)
	}

	sourceID, err := valueobjects.NewNodeIDFromString(ei.SourceID)
	if err != nil {
		return nil, pkgerrors.NewInternal("corrupt edge item", err)
	}
	destID, err := valueobjects.NewNodeIDFromString(ei.DestID)
	if err != nil {
		return nil, pkgerrors.NewInternal("corrupt edge item", err)
	}
	createdAt, _ := time.Parse(timeFormat, ei.CreatedAt)

	return entities.ReconstructAssociation(
		sourceID,
		destID,
		entities.AssociationType(ei.AssocType),
		ei.SourceName,
		ei.DestName,
		createdAt,
	), nil
}
