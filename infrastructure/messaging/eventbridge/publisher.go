// Package eventbridge publishes domain events to an EventBridge bus.
// The auto-link worker consumes node lifecycle events from the bus so
// link generation never runs inside the request path.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"synapse-backend/application/ports"
	"synapse-backend/domain/events"
)

// EventSource identifies this service on the bus
const EventSource = "synapse.backend"

// maxBatchSize is the PutEvents API limit
const maxBatchSize = 10

// Publisher implements ports.EventPublisher over EventBridge
type Publisher struct {
	client  *awseventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client *awseventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends the events to the bus in batches. Individual entry
// failures are reported as one aggregate error; callers treat
// publishing as best-effort.
func (p *Publisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, event := range evts {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Warn("skipping unmarshalable event",
				zap.String("event_type", event.GetEventType()),
				zap.Error(err))
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(EventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
		})
	}

	var failed int
	for start := 0; start < len(entries); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		result, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
			Entries: entries[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		failed += int(result.FailedEntryCount)
	}

	if failed > 0 {
		return fmt.Errorf("failed to publish %d of %d events", failed, len(entries))
	}
	return nil
}
