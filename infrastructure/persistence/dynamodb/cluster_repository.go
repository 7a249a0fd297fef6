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

// ClusterRepository implements ports.ClusterRepository over the single table
type ClusterRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewClusterRepository creates a DynamoDB-backed cluster repository
func NewClusterRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.ClusterRepository {
	return &ClusterRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// clusterItem is the DynamoDB item structure for a cluster
type clusterItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	ClusterID      string   `dynamodbav:"ClusterID"`
	OwnerID        string   `dynamodbav:"OwnerID"`
	Name           string   `dynamodbav:"Name"`
	Description    string   `dynamodbav:"Description,omitempty"`
	MemberIDs      []string `dynamodbav:"MemberIDs,omitemptyelem"`
	CenterID       string   `dynamodbav:"CenterID"`
	CoherenceScore float64  `dynamodbav:"CoherenceScore"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
}

// Save persists a cluster with last-write-wins semantics
func (r *ClusterRepository) Save(ctx context.Context, cluster *knowledge.Cluster) error {
	memberIDs := make([]string, 0, len(cluster.Members()))
	for _, id := range cluster.Members() {
		memberIDs = append(memberIDs, id.String())
	}

	item := clusterItem{
		PK:             userPK(cluster.OwnerID()),
		SK:             clusterSK(cluster.ID().String()),
		GSI1PK:         clusterGSI1PK(cluster.ID().String()),
		GSI1SK:         gsi1MetadataSK,
		EntityType:     entityTypeCluster,
		ClusterID:      cluster.ID().String(),
		OwnerID:        cluster.OwnerID(),
		Name:           cluster.Name(),
		Description:    cluster.Description(),
		MemberIDs:      memberIDs,
		CenterID:       cluster.CenterID().String(),
		CoherenceScore: cluster.CoherenceScore(),
		CreatedAt:      cluster.CreatedAt().Format(timeFormat),
		UpdatedAt:      cluster.UpdatedAt().Format(timeFormat),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cluster: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("failed to save cluster",
			zap.String("cluster_id", cluster.ID().String()),
			zap.Error(err))
		return storeError(ctx, "save cluster", err)
	}
	return nil
}

// FindByID looks the cluster up by id through GSI1
func (r *ClusterRepository) FindByID(ctx context.Context, requesterID string, id valueobjects.ClusterID) (*knowledge.Cluster, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: clusterGSI1PK(id.String())},
			":sk": &types.AttributeValueMemberS{Value: gsi1MetadataSK},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, storeError(ctx, "query cluster", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("cluster")
	}

	var item clusterItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cluster: %w", err)
	}
	if item.OwnerID != requesterID {
		return nil, pkgerrors.NewPermissionDeniedError("cluster")
	}
	return fromClusterItem(item)
}

// FindAllByOwner queries the owner partition for every cluster
func (r *ClusterRepository) FindAllByOwner(ctx context.Context, ownerID string) ([]*knowledge.Cluster, error) {
	expr, err := ownerPrefixQuery(ownerID, "CLUSTER#")
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	clusters := make([]*knowledge.Cluster, 0)

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
			return nil, storeError(ctx, "query clusters", err)
		}

		for _, raw := range result.Items {
			var item clusterItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("skipping unreadable cluster item", zap.Error(err))
				continue
			}
			cluster, err := fromClusterItem(item)
			if err != nil {
				r.logger.Warn("skipping invalid cluster item",
					zap.String("cluster_id", item.ClusterID),
					zap.Error(err))
				continue
			}
			clusters = append(clusters, cluster)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return clusters, nil
}

// Delete removes a cluster; member nodes are untouched
func (r *ClusterRepository) Delete(ctx context.Context, requesterID string, id valueobjects.ClusterID) error {
	if _, err := r.FindByID(ctx, requesterID, id); err != nil {
		return err
	}

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(requesterID)},
			"SK": &types.AttributeValueMemberS{Value: clusterSK(id.String())},
		},
	})
	if err != nil {
		return storeError(ctx, "delete cluster", err)
	}
	return nil
}

func fromClusterItem(item clusterItem) (*knowledge.Cluster, error) {
	id, err := valueobjects.NewClusterIDFromString(item.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster id in store: %w", err)
	}

	memberIDs := make([]valueobjects.NodeID, 0, len(item.MemberIDs))
	for _, raw := range item.MemberIDs {
		memberID, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			continue
		}
		memberIDs = append(memberIDs, memberID)
	}

	centerID, err := valueobjects.NewNodeIDFromString(item.CenterID)
	if err != nil {
		return nil, fmt.Errorf("invalid center id in store: %w", err)
	}

	return knowledge.ReconstructCluster(
		id,
		item.OwnerID,
		item.Name,
		item.Description,
		memberIDs,
		centerID,
		item.CoherenceScore,
		utils.ParseRFC3339(item.CreatedAt),
		utils.ParseRFC3339(item.UpdatedAt),
	)
}
