package gcppubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cargas/mq/mq"
)

type recordMQ struct {
	genericService *GenericPubSubService[mq.RecordMessage]
	action         mq.Action
}

func TopicID(action mq.Action) string {
	return fmt.Sprintf("cargas-record-%s", action)
}

func NewRecordMessageQueue(ctx context.Context, client *pubsub.Client, action mq.Action, logger *zap.Logger) (*recordMQ, error) {
	gs, err := NewGenericPubSubService[mq.RecordMessage](ctx, client, TopicID(action), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create record %s service: %w", action, err)
	}
	return &recordMQ{genericService: gs, action: action}, nil
}

func (q *recordMQ) GetAction() mq.Action { return q.action }
func (q *recordMQ) Publish(msg mq.RecordMessage) error { return q.genericService.Publish(msg) }
func (q *recordMQ) Subscribe(topic mq.Topic) (uuid.UUID, <-chan mq.RecordMessage, error) {
	return q.genericService.Subscribe(topic)
}
func (q *recordMQ) DeSubscribe(id uuid.UUID) error { return q.genericService.DeSubscribe(id) }

type GCPRecordMessageQueueWrapper struct {
	RecordMQArray [mq.ActionCnt]*recordMQ
	client        *pubsub.Client
}

func (wrapper *GCPRecordMessageQueueWrapper) GetRecordMessageQueue(action mq.Action) mq.RecordMessageQueue {
	if action < 0 || action >= mq.ActionCnt || wrapper.RecordMQArray[action] == nil {
		return nil
	}
	return wrapper.RecordMQArray[action]
}

func (wrapper *GCPRecordMessageQueueWrapper) Close() {
	for _, q := range wrapper.RecordMQArray {
		if q != nil {
			q.genericService.Close()
		}
	}
	if wrapper.client != nil {
		wrapper.client.Close()
	}
}

// NewGCPRecordMessageQueueWrapper connects to projectID; the Pub/Sub
// emulator is used when PUBSUB_EMULATOR_HOST is set.
func NewGCPRecordMessageQueueWrapper(ctx context.Context, projectID string, logger *zap.Logger) (mq.RecordMessageQueueWrapper, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project id is required for the pubsub queue")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Pub/Sub client for project %s: %w", projectID, err)
	}

	wrapper := &GCPRecordMessageQueueWrapper{client: client}
	for action := mq.ActionCreate; action < mq.ActionCnt; action++ {
		q, err := NewRecordMessageQueue(ctx, client, action, logger)
		if err != nil {
			wrapper.Close()
			return nil, err
		}
		wrapper.RecordMQArray[action] = q
	}
	return wrapper, nil
}
