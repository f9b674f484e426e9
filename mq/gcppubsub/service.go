package gcppubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cargas/libs/logging"
	"cargas/mq/mq"
)

const topicAttribute = "topic"

type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// GenericPubSubService publishes M to one Pub/Sub topic and serves
// attribute-filtered subscriptions on it.
type GenericPubSubService[M mq.TopicProvider] struct {
	client              *pubsub.Client
	topic               *pubsub.Topic
	activeSubscriptions map[uuid.UUID]*subscriptionInfo
	subscriptionsMutex  sync.Mutex
	ctx                 context.Context
	logger              *zap.Logger
}

// NewGenericPubSubService makes sure topicID exists, creating it if needed.
func NewGenericPubSubService[M mq.TopicProvider](ctx context.Context, client *pubsub.Client, topicID string, logger *zap.Logger) (*GenericPubSubService[M], error) {
	if client == nil {
		return nil, errors.New("GCP Pub/Sub client is nil")
	}
	logger = logging.OrNop(logger)

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		logger.Info("created Pub/Sub topic", zap.String("topic", topicID))
	}

	return &GenericPubSubService[M]{
		client:              client,
		topic:               topic,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
		ctx:                 ctx,
		logger:              logger,
	}, nil
}

// Publish waits for the server ack so callers see publish failures.
func (s *GenericPubSubService[M]) Publish(msg M) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	result := s.topic.Publish(s.ctx, &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{topicAttribute: string(msg.GetTopic())},
	})
	if _, err := result.Get(s.ctx); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", s.topic.ID(), err)
	}
	return nil
}

// subscriptionFilter selects messages of one record topic; TopicAll has no
// filter.
func subscriptionFilter(topic mq.Topic) string {
	if topic == mq.TopicAll {
		return ""
	}
	return fmt.Sprintf("attributes.%s = \"%s\"", topicAttribute, topic)
}

// Subscribe creates a GCP subscription that is deleted again when the
// subscriber goes away.
func (s *GenericPubSubService[M]) Subscribe(topic mq.Topic) (uuid.UUID, <-chan M, error) {
	subscriptionID := uuid.New()
	gcpSubName := fmt.Sprintf("sub-%s-%s", s.topic.ID(), subscriptionID.String())

	gcpSub, err := s.client.CreateSubscription(s.ctx, gcpSubName, pubsub.SubscriptionConfig{
		Topic:            s.topic,
		Filter:           subscriptionFilter(topic),
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s: %w", gcpSubName, err)
	}

	msgChan := make(chan M, 5)
	receiveCtx, cancel := context.WithCancel(s.ctx)

	s.subscriptionsMutex.Lock()
	s.activeSubscriptions[subscriptionID] = &subscriptionInfo{gcpSubscription: gcpSub, cancel: cancel}
	s.subscriptionsMutex.Unlock()

	go func() {
		defer func() {
			s.subscriptionsMutex.Lock()
			delete(s.activeSubscriptions, subscriptionID)
			s.subscriptionsMutex.Unlock()

			if err := gcpSub.Delete(context.Background()); err != nil {
				s.logger.Warn("failed to delete GCP subscription", zap.String("subscription", gcpSub.ID()), zap.Error(err))
			}
			close(msgChan)
		}()

		err := gcpSub.Receive(receiveCtx, func(ctx context.Context, pubsubMsg *pubsub.Message) {
			pubsubMsg.Ack()

			var msg M
			if err := json.Unmarshal(pubsubMsg.Data, &msg); err != nil {
				s.logger.Warn("dropping undecodable message", zap.Stringer("subscriber", subscriptionID), zap.Error(err))
				return
			}
			select {
			case msgChan <- msg:
			case <-time.After(2 * time.Second):
				s.logger.Warn("subscriber is not reading, dropping message", zap.Stringer("subscriber", subscriptionID))
			case <-receiveCtx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Pub/Sub receive loop stopped", zap.Stringer("subscriber", subscriptionID), zap.Error(err))
		}
	}()

	return subscriptionID, msgChan, nil
}

// DeSubscribe cancels the receiver; cleanup happens in its goroutine.
func (s *GenericPubSubService[M]) DeSubscribe(id uuid.UUID) error {
	s.subscriptionsMutex.Lock()
	info, ok := s.activeSubscriptions[id]
	if ok {
		info.cancel()
	}
	s.subscriptionsMutex.Unlock()

	if !ok {
		return fmt.Errorf("subscription ID %s not found on topic %s", id, s.topic.ID())
	}
	return nil
}

func (s *GenericPubSubService[M]) Close() {
	s.subscriptionsMutex.Lock()
	defer s.subscriptionsMutex.Unlock()
	for _, info := range s.activeSubscriptions {
		info.cancel()
	}
	s.topic.Stop()
}
