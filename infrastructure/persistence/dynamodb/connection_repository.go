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

// ConnectionRepository implements ports.ConnectionRepository over the
// single table. Incident-edge queries scan the owner partition: edge
// counts are per-user and modest, and both endpoints live in the same
// partition anyway.
type ConnectionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewConnectionRepository creates a DynamoDB-backed edge repository
func NewConnectionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ConnectionRepository {
	return &ConnectionRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// connectionItem is the DynamoDB item structure for an edge
type connectionItem struct {
	PK           string  `dynamodbav:"PK"`
	SK           string  `dynamodbav:"SK"`
	GSI1PK       string  `dynamodbav:"GSI1PK"`
	GSI1SK       string  `dynamodbav:"GSI1SK"`
	EntityType   string  `dynamodbav:"EntityType"`
	ConnectionID string  `dynamodbav:"ConnectionID"`
	OwnerID      string  `dynamodbav:"OwnerID"`
	SourceID     string  `dynamodbav:"SourceID"`
	TargetID     string  `dynamodbav:"TargetID"`
	ConnType     string  `dynamodbav:"ConnType"`
	Strength     float64 `dynamodbav:"Strength"`
	Description  string  `dynamodbav:"Description,omitempty"`
	CreatedAt    string  `dynamodbav:"CreatedAt"`
	UpdatedAt    string  `dynamodbav:"UpdatedAt"`
}

// Save persists an edge with last-write-wins semantics
func (r *ConnectionRepository) Save(ctx context.Context, conn *knowledge.Connection) error {
	av, err := attributevalue.MarshalMap(toConnectionItem(conn))
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("failed to save connection",
			zap.String("connection_id", conn.ID().String()),
			zap.Error(err))
		return storeError(ctx, "save connection", err)
	}
	return nil
}

// FindByID looks the edge up by id through GSI1
func (r *ConnectionRepository) FindByID(ctx context.Context, requesterID string, id valueobjects.ConnectionID) (*knowledge.Connection, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: connectionGSI1PK(id.String())},
			":sk": &types.AttributeValueMemberS{Value: gsi1MetadataSK},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, storeError(ctx, "query connection", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("connection")
	}

	var item connectionItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	if item.OwnerID != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("connection")
	}
	return fromConnectionItem(item)
}

// FindByNode returns every edge incident to the node
func (r *ConnectionRepository) FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error) {
	all, err := r.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	incident := make([]*knowledge.Connection, 0)
	for _, conn := range all {
		if conn.Touches(nodeID) {
			incident = append(incident, conn)
		}
	}
	return incident, nil
}

// FindAllByOwner queries the owner partition for every edge
func (r *ConnectionRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Connection, error) {
	expr, err := ownerPrefixQuery(ownerID, "CONN#")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	conns := make([]*knowledge.Connection, 0)

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
			return nil, storeError(ctx, "query connections", err)
		}

		for _, raw := range result.Items {
			var item connectionItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable connection item", zap.Error(err))
				continue
			}
			conn, err := fromConnectionItem(item)
			if err != nil {
				r.logger.Warn("skipping invalid connection item",
					zap.String("connection_id", item.ConnectionID),
					zap.Error(err))
				continue
			}
			conns = append(conns, conn)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return conns, nil
}

// Delete removes one edge
func (r *ConnectionRepository) Delete(ctx context.Context, requesterID string, id valueobjects.ConnectionID) error {
	if _, err := r.FindByID(ctx, requesterID, id); err != nil {
		return err
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(requesterID)},
			"SK": &types.AttributeValueMemberS{Value: connectionSK(id.String())},
		},
	})
	if err != nil {
		return storeError(ctx, "delete connection", err)
	}
	return nil
}

// DeleteByNode removes every edge incident to the node and returns the
// removed edges. Each delete is independent; a partial failure leaves
// the remaining edges for a retry of the cascade.
func (r *ConnectionRepository) DeleteByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*knowledge.Connection, error) {
	incident, err := r.FindByNode(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}

	removed := make([]*knowledge.Connection, 0, len(incident))
	for _, conn := range incident {
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
				"SK": &types.AttributeValueMemberS{Value: connectionSK(conn.ID().String())},
			},
		})
		if err != nil {
			return removed, storeError(ctx, "delete connection", err)
		}
		removed = append(removed, conn)
	}
	return removed, nil
}

func toConnectionItem(conn *knowledge.Connection) connectionItem {
	return connectionItem{
		PK:           userPK(conn.OwnerID()),
		SK:           connectionSK(conn.ID().String()),
		GSI1PK:       connectionGSI1PK(conn.ID().String()),
		GSI1SK:       gsi1MetadataSK,
		EntityType:   entityTypeConnection,
		ConnectionID: conn.ID().String(),
		OwnerID:      conn.OwnerID(),
		SourceID:     conn.SourceID().String(),
		TargetID:     conn.TargetID().String(),
		ConnType:     string(conn.Type()),
		Strength:     conn.Strength(),
		Description:  conn.Description(),
		CreatedAt:    conn.CreatedAt().Format(timeFormat),
		UpdatedAt:    conn.UpdatedAt().Format(timeFormat),
	}
}

func fromConnectionItem(item connectionItem) (*knowledge.Connection, error) {
	id, err := valueobjects.NewConnectionIDFromString(item.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("invalid connection id in store: %w", err)
	}
	sourceID, err := valueobjects.NewNodeIDFromString(item.SourceID)
	if err != nil {
		return nil, fmt.Errorf("invalid source id in store: %w", err)
	}
	targetID, err := valueobjects.NewNodeIDFromString(item.TargetID)
	if err != nil {
		return nil, fmt.Errorf("invalid target id in store: %w", err)
	}

	return knowledge.ReconstructConnection(
		id,
		item.OwnerID,
		sourceID,
		targetID,
		knowledge.ConnectionType(item.ConnType),
		item.Strength,
		item.Description,
		utils.ParseRFC3339(item.CreatedAt),
		utils.ParseRFC3339(item.UpdatedAt),
	)
}
