package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/domain/knowledge"
	"synapse-backend/domain/knowledge/valueobjects"
	pkgerrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/utils"
)

// NodeRepository implements ports.NodeRepository over the single table
type NodeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewNodeRepository creates a DynamoDB-backed node repository
func NewNodeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.NodeRepository {
	return &NodeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// nodeItem is the DynamoDB item structure for a node
type nodeItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	NodeID         string   `dynamodbav:"NodeID"`
	OwnerID        string   `dynamodbav:"OwnerID"`
	Title          string   `dynamodbav:"Title"`
	Body           string   `dynamodbav:"Body"`
	NodeType       string   `dynamodbav:"NodeType"`
	Source         string   `dynamodbav:"Source,omitempty"`
	Author         string   `dynamodbav:"Author,omitempty"`
	URL            string   `dynamodbav:"URL,omitempty"`
	Category       string   `dynamodbav:"Category,omitempty"`
	Tags           []string `dynamodbav:"Tags,omitemptyelem"`
	Importance     int      `dynamodbav:"Importance"`
	AccessCount    int      `dynamodbav:"AccessCount"`
	NeighborIDs    []string `dynamodbav:"NeighborIDs,omitemptyelem"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
	LastAccessedAt string   `dynamodbav:"LastAccessedAt"`
}

// Save persists a node with last-write-wins semantics
func (r *NodeRepository) Save(ctx context.Context, node *knowledge.Node) error {
	av, err := attributevalue.MarshalMap(toNodeItem(node))
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("failed to save node",
			zap.String("node_id", node.ID().String()),
			zap.Error(err))
		return storeError(ctx, "save node", err)
	}
	return nil
}

// FindByID looks the node up by id through GSI1 and enforces the
// NotFound/PermissionDenied contract against the requester
func (r *NodeRepository) FindByID(ctx context.Context, requesterID string, id valueobjects.NodeID) (*knowledge.Node, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: nodeGSI1PK(id.String())},
			":sk": &types.AttributeValueMemberS{Value: gsi1MetadataSK},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, storeError(ctx, "query node", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	if item.OwnerID != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("node")
	}
	return fromNodeItem(item)
}

// FindAllByOwner queries the owner partition for every node
func (r *NodeRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Node, error) {
	expr, err := ownerPrefixQuery(ownerID, "NODE#")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	nodes := make([]*knowledge.Node, 0)

	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, storeError(ctx, "query nodes", err)
		}

		for _, raw := range result.Items {
			var item nodeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable node item", zap.Error(err))
				continue
			}
			node, err := fromNodeItem(item)
			if err != nil {
				r.logger.Warn("skipping invalid node item",
					zap.String("node_id", item.NodeID),
					zap.Error(err))
				continue
			}
			nodes = append(nodes, node)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return nodes, nil
}

// Delete removes a node from the owner partition
func (r *NodeRepository) Delete(ctx context.Context, requesterID string, id valueobjects.NodeID) error {
	// Ownership and existence checks ride on FindByID
	if _, err := r.FindByID(ctx, requesterID, id); err != nil {
		return err
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(requesterID)},
			"SK": &types.AttributeValueMemberS{Value: nodeSK(id.String())},
		},
	})
	if err != nil {
		return storeError(ctx, "delete node", err)
	}
	return nil
}

func toNodeItem(node *knowledge.Node) nodeItem {
	neighborIDs := make([]string, 0, len(node.Neighbors()))
	for _, id := range node.Neighbors() {
		neighborIDs = append(neighborIDs, id.String())
	}

	return nodeItem{
		PK:             userPK(node.OwnerID()),
		SK:             nodeSK(node.ID().String()),
		GSI1PK:         nodeGSI1PK(node.ID().String()),
		GSI1SK:         gsi1MetadataSK,
		EntityType:     entityTypeNode,
		NodeID:         node.ID().String(),
		OwnerID:        node.OwnerID(),
		Title:          node.Title(),
		Body:           node.Body(),
		NodeType:       string(node.Type()),
		Source:         node.Source(),
		Author:         node.Author(),
		URL:            node.URL(),
		Category:       node.Category(),
		Tags:           node.Tags(),
		Importance:     node.Importance(),
		AccessCount:    node.AccessCount(),
		NeighborIDs:    neighborIDs,
		CreatedAt:      node.CreatedAt().Format(timeFormat),
		UpdatedAt:      node.UpdatedAt().Format(timeFormat),
		LastAccessedAt: node.LastAccessedAt().Format(timeFormat),
	}
}

func fromNodeItem(item nodeItem) (*knowledge.Node, error) {
	neighborIDs := make([]valueobjects.NodeID, 0, len(item.NeighborIDs))
	for _, raw := range item.NeighborIDs {
		id, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			continue
		}
		neighborIDs = append(neighborIDs, id)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node id in store: %w", err)
	}

	return knowledge.ReconstructNode(
		nodeID,
		item.OwnerID,
		knowledge.NodeAttributes{
			Title:      item.Title,
			Body:       item.Body,
			Type:       knowledge.NodeType(item.NodeType),
			Source:     item.Source,
			Author:     item.Author,
			URL:        item.URL,
			Category:   item.Category,
			Tags:       item.Tags,
			Importance: item.Importance,
		},
		item.AccessCount,
		neighborIDs,
		utils.ParseRFC3339(item.CreatedAt),
		utils.ParseRFC3339(item.UpdatedAt),
		utils.ParseRFC3339(item.LastAccessedAt),
	)
}
