// Package di wires the application together. Providers follow the
// wire style; Container assembly is kept explicit so binaries can pick
// between the event-driven and in-process auto-link paths.
package di

import (
	"context"

	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/application/services"
	"synapse-backend/infrastructure/config"
	"synapse-backend/pkg/auth"
	"synapse-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	NodeRepo    ports.NodeRepository
	ConnRepo    ports.ConnectionRepository
	ClusterRepo ports.ClusterRepository
	Publisher   ports.EventPublisher

	NodeService       *services.NodeService
	ConnectionService *services.ConnectionService
	AutoLinkService   *services.AutoLinkService
	SearchService     *services.SearchService
	GraphService      *services.GraphService
	ClusterService    *services.ClusterService

	JWTValidator *auth.JWTValidator
	Metrics      *observability.Metrics
}

// NewContainer builds the full dependency graph against AWS
// infrastructure. In Lambda the auto-link scan runs in the separate
// worker fed by EventBridge; elsewhere node writes trigger it on a
// background goroutine in this process.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg, cfg)

	metrics := ProvideMetrics(cfg, cloudWatchClient)
	nodeRepo := ProvideNodeRepository(dynamoClient, cfg, logger)
	connRepo := ProvideConnectionRepository(dynamoClient, cfg, logger)
	clusterRepo := ProvideClusterRepository(dynamoClient, cfg, logger)
	publisher := ProvideEventPublisher(eventBridgeClient, cfg, logger)

	connSvc := ProvideConnectionService(nodeRepo, connRepo, publisher, logger)
	linker := ProvideAutoLinkService(nodeRepo, connSvc, ProvideScorer(), logger)

	nodeSvc := ProvideNodeService(cfg, nodeRepo, connRepo, clusterRepo, publisher, linker, metrics, logger)

	validator, err := ProvideJWTValidator(cfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:            cfg,
		Logger:            logger,
		NodeRepo:          nodeRepo,
		ConnRepo:          connRepo,
		ClusterRepo:       clusterRepo,
		Publisher:         publisher,
		NodeService:       nodeSvc,
		ConnectionService: connSvc,
		AutoLinkService:   linker,
		SearchService:     ProvideSearchService(nodeRepo, metrics, logger),
		GraphService:      ProvideGraphService(nodeRepo, connRepo, logger),
		ClusterService:    ProvideClusterService(nodeRepo, connRepo, clusterRepo, logger),
		JWTValidator:      validator,
		Metrics:           metrics,
	}, nil
}
