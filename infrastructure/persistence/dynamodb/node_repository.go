package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

const timeFormat = time.RFC3339Nano

// NodeRepository implements the node provider contract over a single DynamoDB
// table. Name uniqueness and the category ceiling are enforced with one
// transactional write: the node item, a category-scoped name item, and a
// conditional counter update all commit or none do, so a race between two
// same-name creations has exactly one winner.
type NodeRepository struct {
	client    DBClient
	tableName string
	gsi1Name  string // category + creation time ordering; edge by-source facet
	gsi2Name  string // category + name ordering; edge by-destination facet
	logger    *zap.Logger
}

// Compile-time interface check
var _ ports.NodeRepository = (*NodeRepository)(nil)

// NewNodeRepository creates a new NodeRepository
func NewNodeRepository(client DBClient, tableName, gsi1Name, gsi2Name string, logger *zap.Logger) *NodeRepository {
	return &NodeRepository{
		client:    client,
		tableName: tableName,
		gsi1Name:  gsi1Name,
		gsi2Name:  gsi2Name,
		logger:    logger,
	}
}

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	PK         string            `dynamodbav:"PK"`
	SK         string            `dynamodbav:"SK"`
	EntityType string            `dynamodbav:"EntityType"`
	NodeID     string            `dynamodbav:"NodeID"`
	Category   string            `dynamodbav:"Category"`
	Subtype    string            `dynamodbav:"Subtype"`
	Name       string            `dynamodbav:"Name"`
	SourceURI  string            `dynamodbav:"SourceURI"`
	Properties map[string]string `dynamodbav:"Properties"`
	Origin     string            `dynamodbav:"Origin"`
	CreatedAt  string            `dynamodbav:"CreatedAt"`
	UpdatedAt  string            `dynamodbav:"UpdatedAt"`

	GSI1PK string `dynamodbav:"GSI1PK"` // CATEGORY#<category>
	GSI1SK string `dynamodbav:"GSI1SK"` // CREATED#<timestamp>#<id>
	GSI2PK string `dynamodbav:"GSI2PK"` // CATEGORY#<category>
	GSI2SK string `dynamodbav:"GSI2SK"` // NAME#<name>
}

// nameItem reserves a category-scoped name, giving duplicate detection a
// conditional write to fail on.
type nameItem struct {
	PK     string `dynamodbav:"PK"` // NAME#<category>#<name>
	SK     string `dynamodbav:"SK"` // NAME
	NodeID string `dynamodbav:"NodeID"`
}

func nodePK(id valueobjects.NodeID) string { return "NODE#" + id.String() }

func namePK(category entities.Category, name string) string {
	return "NAME#" + string(category) + "#" + name
}

func nodeCounterPK(category entities.Category) string {
	return "COUNT#NODE#" + string(category)
}

// Put persists a new node transactionally
func (r *NodeRepository) Put(ctx context.Context, node *entities.Node) error {
	item := nodeItem{
		PK:         nodePK(node.ID()),
		SK:         "METADATA",
		EntityType: "NODE",
		NodeID:     node.ID().String(),
		Category:   string(node.Category()),
		Subtype:    node.Subtype(),
		Name:       node.Name(),
		SourceURI:  node.SourceURI(),
		Properties: node.Properties(),
		Origin:     string(node.Origin()),
		CreatedAt:  node.CreatedAt().UTC().Format(timeFormat),
		UpdatedAt:  node.UpdatedAt().UTC().Format(timeFormat),
		GSI1PK:     "CATEGORY#" + string(node.Category()),
		GSI1SK:     "CREATED#" + node.CreatedAt().UTC().Format(timeFormat) + "#" + node.ID().String(),
		GSI2PK:     "CATEGORY#" + string(node.Category()),
		GSI2SK:     "NAME#" + node.Name(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternal("failed to marshal node", err)
	}
	nameAV, err := attributevalue.MarshalMap(nameItem{
		PK:     namePK(node.Category(), node.Name()),
		SK:     "NAME",
		NodeID: node.ID().String(),
	})
	if err != nil {
		return pkgerrors.NewInternal("failed to marshal name reservation", err)
	}

	transactItems := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		}},
		{Put: &types.Put{
			TableName:           aws.String(r.tableName),
			Item:                nameAV,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		}},
	}

	if node.CountsAgainstCeiling() {
		ceiling, _ := entities.CapacityCeiling(node.Category())
		transactItems = append(transactItems, counterIncrement(r.tableName, nodeCounterPK(node.Category()), ceiling))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if reasons := cancellationReasons(err); reasons != nil {
			if reasonFailed(reasons, 1) {
				return pkgerrors.NewDuplicateName(
					"name already in use for category " + string(node.Category()) + ": " + node.Name())
			}
			if reasonFailed(reasons, 2) {
				return pkgerrors.NewCapacityExceeded(
					"category " + string(node.Category()) + " reached its ceiling of manually created nodes")
			}
		}
		return classify(err, "failed to persist node")
	}

	r.logger.Debug("Node persisted",
		zap.String("nodeID", node.ID().String()),
		zap.String("category", string(node.Category())),
	)
	return nil
}

// Get retrieves a node by identifier
func (r *NodeRepository) Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, classify(err, "failed to get node")
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFound("node not found: " + id.String())
	}
	return parseNodeItem(out.Item)
}

// GetByName resolves a category-scoped name through its reservation item
func (r *NodeRepository) GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: namePK(category, name)},
			"SK": &types.AttributeValueMemberS{Value: "NAME"},
		},
	})
	if err != nil {
		return nil, classify(err, "failed to resolve node name")
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFound("node not found: " + string(category) + "/" + name)
	}

	var ni nameItem
	if err := attributevalue.UnmarshalMap(out.Item, &ni); err != nil {
		return nil, pkgerrors.NewInternal("failed to unmarshal name reservation", err)
	}
	id, err := valueobjects.NewNodeIDFromString(ni.NodeID)
	if err != nil {
		return nil, pkgerrors.NewInternal("corrupt name reservation", err)
	}
	return r.Get(ctx, id)
}

// Query returns one page of a category listing. The GSI sort key embeds the
// node identifier as a tiebreaker, so the ordering is stable for a fixed sort
// field even as nodes are created concurrently.
func (r *NodeRepository) Query(ctx context.Context, q ports.NodeQuery) (ports.Page[*entities.Node], error) {
	indexName := r.gsi1Name
	pkName := "GSI1PK"
	if q.SortField == ports.SortByName {
		indexName = r.gsi2Name
		pkName = "GSI2PK"
	}

	keyCond := expression.Key(pkName).Equal(expression.Value("CATEGORY#" + string(q.Category)))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if q.NameContains != "" {
		builder = builder.WithFilter(expression.Contains(expression.Name("Name"), q.NameContains))
	}
	expr, err := builder.Build()
	if err != nil {
		return ports.Page[*entities.Node]{}, pkgerrors.NewInternal("failed to build query expression", err)
	}

	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return ports.Page[*entities.Node]{}, pkgerrors.NewValidation("invalid cursor")
	}

	limit := int32(q.Limit)
	if limit <= 0 {
		limit = 50
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		Limit:                     aws.Int32(limit),
		ScanIndexForward:          aws.Bool(q.SortOrder != ports.Descending),
	})
	if err != nil {
		return ports.Page[*entities.Node]{}, classify(err, "failed to query nodes")
	}

	nodes := make([]*entities.Node, 0, len(out.Items))
	for _, item := range out.Items {
		node, err := parseNodeItem(item)
		if err != nil {
			r.logger.Warn("Failed to parse node item", zap.Error(err))
			continue
		}
		nodes = append(nodes, node)
	}

	page := ports.Page[*entities.Node]{Items: nodes}
	if len(out.LastEvaluatedKey) > 0 {
		page.HasMore = true
		page.NextCursor = encodeCursor(out.LastEvaluatedKey)
	}
	return page, nil
}

// UpdateProperties merges the delta into the stored item and returns the
// updated node. Unmentioned keys are untouched by construction: the update
// expression only sets the keys present in the delta.
func (r *NodeRepository) UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error) {
	now := time.Now().UTC().Format(timeFormat)
	update := expression.Set(expression.Name("UpdatedAt"), expression.Value(now))
	for k, v := range delta {
		update = update.Set(expression.Name("Properties."+k), expression.Value(v))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build update expression", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(id)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewNotFound("node not found: " + id.String())
		}
		return nil, classify(err, "failed to update node properties")
	}
	return parseNodeItem(out.Attributes)
}

// Delete removes a node and its name reservation. The incident-edge check
// runs first; a concurrent edge creation racing past it surfaces later as a
// retryable cascade failure rather than a dangling reference, since the edge
// index always outlives a lost race here.
func (r *NodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	node, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	busy, err := r.hasIncidentEdges(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return pkgerrors.NewHasIncidentEdges("node still referenced by associations: " + id.String())
	}

	transactItems := []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: nodePK(id)},
				"SK": &types.AttributeValueMemberS{Value: "METADATA"},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		}},
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: namePK(node.Category(), node.Name())},
				"SK": &types.AttributeValueMemberS{Value: "NAME"},
			},
		}},
	}
	if node.CountsAgainstCeiling() {
		transactItems = append(transactItems, counterDecrement(r.tableName, nodeCounterPK(node.Category())))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if reasons := cancellationReasons(err); reasonFailed(reasons, 0) {
			return pkgerrors.NewNotFound("node not found: " + id.String())
		}
		return classify(err, "failed to delete node")
	}

	r.logger.Debug("Node deleted", zap.String("nodeID", id.String()))
	return nil
}

// hasIncidentEdges probes both edge facets for any remaining reference
func (r *NodeRepository) hasIncidentEdges(ctx context.Context, id valueobjects.NodeID) (bool, error) {
	probes := []struct {
		index string
		pk    string
		value string
	}{
		{r.gsi1Name, "GSI1PK", "OUT#" + id.String()},
		{r.gsi2Name, "GSI2PK", "IN#" + id.String()},
	}

	for _, probe := range probes {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(probe.index),
			KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", probe.pk)),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: probe.value},
			},
			Limit: aws.Int32(1),
		})
		if err != nil {
			return false, classify(err, "failed to check incident edges")
		}
		if len(out.Items) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// parseNodeItem converts a DynamoDB item to a Node
func parseNodeItem(item map[string]types.AttributeValue) (*entities.Node, error) {
	var ni nodeItem
	if err := attributevalue.UnmarshalMap(item, &ni); err != nil {
		return nil, pkgerrors.NewInternal("failed to unmarshal node item", err)
	}

	id, err := valueobjects.NewNodeIDFromString(ni.NodeID)
	if err != nil {
		return nil, pkgerrors.NewInternal("corrupt node item", err)
	}
	createdAt, _ := time.Parse(timeFormat, ni.CreatedAt)
	updatedAt, _ := time.Parse(timeFormat, ni.UpdatedAt)

	return entities.ReconstructNode(
		id,
		entities.Category(ni.Category),
		ni.Subtype,
		ni.Name,
		ni.SourceURI,
		ni.Properties,
		entities.Origin(ni.Origin),
		createdAt,
		updatedAt,
	), nil
}

// counterIncrement builds a ceiling-guarded counter bump
func counterIncrement(tableName, pk string, ceiling int) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: "COUNT"},
			},
			UpdateExpression:    aws.String("ADD #n :one"),
			ConditionExpression: aws.String("attribute_not_exists(#n) OR #n < :ceiling"),
			ExpressionAttributeNames: map[string]string{
				"#n": "N",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one":     &types.AttributeValueMemberN{Value: "1"},
				":ceiling": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ceiling)},
			},
		},
	}
}

// counterDecrement builds an unconditional counter decrement
func counterDecrement(tableName, pk string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: "COUNT"},
			},
			UpdateExpression: aws.String("ADD #n :minusOne"),
			ExpressionAttributeNames: map[string]string{
				"#n": "N",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":minusOne": &types.AttributeValueMemberN{Value: "-1"},
			},
		},
	}
}
