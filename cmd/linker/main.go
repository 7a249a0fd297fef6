// Package main implements the auto-link worker. It consumes node
// lifecycle events from EventBridge and runs the similarity scan
// outside the request path, so node writes never wait on link
// generation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"synapse-backend/application/services"
	"synapse-backend/domain/knowledge/valueobjects"
	"synapse-backend/infrastructure/config"
	"synapse-backend/infrastructure/di"
)

var (
	linker *services.AutoLinkService
	logger *zap.Logger
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.IsLambda = true

	container, err := di.NewContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	linker = container.AutoLinkService
	logger = container.Logger
}

// nodeEventDetail is the payload shape of node.created and
// node.content_updated events on the bus
type nodeEventDetail struct {
	NodeID  string `json:"node_id"`
	OwnerID string `json:"owner_id"`
}

func handleEvent(ctx context.Context, event awsevents.EventBridgeEvent) error {
	switch event.DetailType {
	case "node.created", "node.content_updated":
	default:
		logger.Debug("ignoring event", zap.String("detail_type", event.DetailType))
		return nil
	}

	var detail nodeEventDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return fmt.Errorf("failed to parse event detail: %w", err)
	}

	nodeID, err := valueobjects.NewNodeIDFromString(detail.NodeID)
	if err != nil {
		return fmt.Errorf("invalid node id in event: %w", err)
	}

	logger.Info("auto-link scan triggered",
		zap.String("node_id", detail.NodeID),
		zap.String("detail_type", event.DetailType))

	// Scan errors are logged, not returned: a retry storm against a
	// deleted node helps nobody, and the scan is best-effort anyway
	if err := linker.ScanNode(ctx, detail.OwnerID, nodeID); err != nil {
		logger.Warn("auto-link scan failed",
			zap.String("node_id", detail.NodeID),
			zap.Error(err))
	}
	return nil
}

func main() {
	lambda.Start(handleEvent)
}
