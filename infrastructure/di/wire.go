//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"synapse-backend/infrastructure/config"
)

// SuperSet lists every provider for wire's generator. NewContainer is
// the hand-maintained equivalent used by the binaries; keep the two in
// sync when adding providers.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideNodeRepository,
	ProvideConnectionRepository,
	ProvideClusterRepository,
	ProvideEventPublisher,
	ProvideScorer,
	ProvideJWTValidator,
	ProvideConnectionService,
	ProvideAutoLinkService,
	ProvideNodeService,
	ProvideSearchService,
	ProvideGraphService,
	ProvideClusterService,
)

// InitializeContainer builds the container through wire
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet, wire.Struct(new(Container), "*"))
	return nil, nil
}
