package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/application/services"
	"synapse-backend/domain/similarity"
	"synapse-backend/infrastructure/config"
	"synapse-backend/infrastructure/messaging/eventbridge"
	"synapse-backend/infrastructure/persistence/dynamodb"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/observability"
)

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig loads the default AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
}

// ProvideDynamoDBClient creates the DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates the EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates the CloudWatch client, nil when
// metrics are disabled so publishing becomes a no-op
func ProvideCloudWatchClient(awsCfg aws.Config, cfg *config.Config) *awscloudwatch.Client {
	if !cfg.EnableMetrics {
		return nil
	}
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the metrics publisher
func ProvideMetrics(cfg *config.Config, client *awscloudwatch.Client) *observability.Metrics {
	return observability.NewMetrics(cfg.MetricsNamespace, client)
}

// ProvideNodeRepository creates the DynamoDB node repository
func ProvideNodeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.NodeRepository {
	return dynamodb.NewNodeRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideConnectionRepository creates the DynamoDB edge repository
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConnectionRepository {
	return dynamodb.NewConnectionRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideClusterRepository creates the DynamoDB cluster repository
func ProvideClusterRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ClusterRepository {
	return dynamodb.NewClusterRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideScorer creates the similarity scorer with the default
// marker-based relation classifier
func ProvideScorer() *similarity.Scorer {
	return similarity.NewScorer(nil)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		// Development fallback so the API runs out of the box
		return auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: "development-secret-change-in-production",
			Issuer:    cfg.JWTIssuer,
			Audience:  []string{cfg.JWTAudience},
		})
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{cfg.JWTAudience},
	})
}

// ProvideConnectionService creates the connection service
func ProvideConnectionService(
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.ConnectionService {
	return services.NewConnectionService(nodeRepo, connRepo, publisher, logger)
}

// ProvideAutoLinkService creates the auto-link scanner
func ProvideAutoLinkService(
	nodeRepo ports.NodeRepository,
	connSvc *services.ConnectionService,
	scorer *similarity.Scorer,
	logger *zap.Logger,
) *services.AutoLinkService {
	return services.NewAutoLinkService(nodeRepo, connSvc, scorer, logger)
}

// ProvideNodeService creates the node service. In Lambda the auto-link
// scan runs in the separate worker fed by EventBridge, so the
// in-process linker is withheld there.
func ProvideNodeService(
	cfg *config.Config,
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	clusterRepo ports.ClusterRepository,
	publisher ports.EventPublisher,
	linker *services.AutoLinkService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.NodeService {
	if cfg.IsLambda {
		linker = nil
	}
	return services.NewNodeService(nodeRepo, connRepo, clusterRepo, publisher, linker, metrics, logger)
}

// ProvideSearchService creates the search service
func ProvideSearchService(nodeRepo ports.NodeRepository, metrics *observability.Metrics, logger *zap.Logger) *services.SearchService {
	return services.NewSearchService(nodeRepo, metrics, logger)
}

// ProvideGraphService creates the graph service
func ProvideGraphService(nodeRepo ports.NodeRepository, connRepo ports.ConnectionRepository, logger *zap.Logger) *services.GraphService {
	return services.NewGraphService(nodeRepo, connRepo, logger)
}

// ProvideClusterService creates the cluster service
func ProvideClusterService(
	nodeRepo ports.NodeRepository,
	connRepo ports.ConnectionRepository,
	clusterRepo ports.ClusterRepository,
	logger *zap.Logger,
) *services.ClusterService {
	return services.NewClusterService(nodeRepo, connRepo, clusterRepo, logger)
}
