package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"circulation/internal/domain/entity"
	"circulation/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// googlePubSubPublisher publishes circulation events to a Cloud Pub/Sub
// topic. Events of one member share an ordering key so subscribers see that
// member's loans in commit order.
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
	logger    *slog.Logger
}

// NewGooglePubSubPublisher connects to projectID and fails fast when topicID
// does not exist.
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "create pubsub client")
	}

	topic := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if err := ensureTopic(ctx, client, topic); err != nil {
		_ = client.Close()

		return nil, err
	}

	publisher := client.Publisher(topicID)
	publisher.EnableMessageOrdering = true

	logger.Info("Circulation events go to Cloud Pub/Sub", slog.String("topic", topic))

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

func ensureTopic(ctx context.Context, client *pubsub.Client, topic string) error {
	_, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
	if err != nil {
		return errors.Wrapf(err, "topic %s is not reachable", topic)
	}

	return nil
}

// PublishCirculationEvent blocks until the server acknowledges the message.
func (p *googlePubSubPublisher) PublishCirculationEvent(ctx context.Context, event *entity.CirculationEvent) error {
	env, err := encodeEvent(event)
	if err != nil {
		return err
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:        env.data,
		Attributes:  env.attributes,
		OrderingKey: env.orderingKey,
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		// A failed publish pauses its ordering key.
		p.publisher.ResumePublish(env.orderingKey)

		return errors.Wrapf(err, "publish %s event for record %d", event.Type, event.RecordID)
	}

	p.logger.DebugContext(ctx, "Circulation event published",
		slog.String("topic", p.topic),
		slog.String("type", string(event.Type)),
		slog.Int64("record_id", event.RecordID),
		slog.String("server_id", serverID),
	)

	return nil
}

// Close flushes pending messages and releases the client.
func (p *googlePubSubPublisher) Close() error {
	p.publisher.Stop()

	return errors.WithStack(p.client.Close())
}
