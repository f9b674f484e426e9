package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"cargas/libs/logging"
	"cargas/mq/mq"
)

const exchangeName = "cargas_record_events"

// routingKey is "<topic>.<action>"; TopicAll binds with a wildcard.
func routingKey(topic mq.Topic, action mq.Action) string {
	if topic == mq.TopicAll {
		return "*." + action.String()
	}
	return string(topic) + "." + action.String()
}

type consumer struct {
	ch     *amqp.Channel
	out    chan mq.RecordMessage
	cancel context.CancelFunc
}

// rabbitRecordMessageQueue implements mq.RecordMessageQueue over a topic
// exchange. Each subscriber gets its own channel and exclusive queue.
type rabbitRecordMessageQueue struct {
	action  mq.Action
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger

	mu        sync.Mutex
	consumers map[uuid.UUID]*consumer
}

func NewRabbitRecordMessageQueue(action mq.Action, conn *amqp.Connection, logger *zap.Logger) (*rabbitRecordMessageQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		ch.Close()
		return nil, err
	}
	return &rabbitRecordMessageQueue{
		action:    action,
		conn:      conn,
		channel:   ch,
		logger:    logging.OrNop(logger),
		consumers: make(map[uuid.UUID]*consumer),
	}, nil
}

func (q *rabbitRecordMessageQueue) GetAction() mq.Action {
	return q.action
}

func (q *rabbitRecordMessageQueue) Publish(msg mq.RecordMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(ctx,
		exchangeName,                    // exchange
		routingKey(msg.Topic, q.action), // routing key
		false,                           // mandatory
		false,                           // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   msg.At,
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (q *rabbitRecordMessageQueue) Subscribe(topic mq.Topic) (uuid.UUID, <-chan mq.RecordMessage, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	queueName, err := declareSubscriberQueue(ch, routingKey(topic, q.action))
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	deliveries, err := ch.ConsumeWithContext(ctx,
		queueName, // queue
		"",        // consumer
		true,      // auto-ack
		true,      // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		cancel()
		ch.Close()
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	id := uuid.New()
	c := &consumer{ch: ch, out: make(chan mq.RecordMessage, 16), cancel: cancel}
	q.mu.Lock()
	q.consumers[id] = c
	q.mu.Unlock()

	go q.forward(ctx, id, c, deliveries)
	return id, c.out, nil
}

func (q *rabbitRecordMessageQueue) forward(ctx context.Context, id uuid.UUID, c *consumer, deliveries <-chan amqp.Delivery) {
	defer close(c.out)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			var msg mq.RecordMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				q.logger.Warn("dropping undecodable record message", zap.Stringer("subscriber", id), zap.Error(err))
				continue
			}
			select {
			case c.out <- msg:
			case <-time.After(time.Second):
				q.logger.Warn("record message consumer is not reading, dropping message", zap.Stringer("subscriber", id))
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (q *rabbitRecordMessageQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	c, ok := q.consumers[id]
	delete(q.consumers, id)
	q.mu.Unlock()
	if !ok {
		return fmt.Errorf("consumer with ID %s not found for %s queue", id, q.action)
	}
	c.cancel()
	c.ch.Close()
	return nil
}

func (q *rabbitRecordMessageQueue) close() {
	q.mu.Lock()
	ids := make([]uuid.UUID, 0, len(q.consumers))
	for id := range q.consumers {
		ids = append(ids, id)
	}
	q.mu.Unlock()
	for _, id := range ids {
		q.DeSubscribe(id)
	}
	q.channel.Close()
}

type rabbitRecordMessageQueueWrapper struct {
	RecordMQArray [mq.ActionCnt]*rabbitRecordMessageQueue
	conn          *amqp.Connection
}

// NewRabbitRecordMessageQueueWrapper owns conn and closes it on Close.
func NewRabbitRecordMessageQueueWrapper(conn *amqp.Connection, logger *zap.Logger) (mq.RecordMessageQueueWrapper, error) {
	wrapper := &rabbitRecordMessageQueueWrapper{conn: conn}
	for action := mq.ActionCreate; action < mq.ActionCnt; action++ {
		q, err := NewRabbitRecordMessageQueue(action, conn, logger)
		if err != nil {
			wrapper.Close()
			return nil, fmt.Errorf("failed to create record %s mq: %w", action, err)
		}
		wrapper.RecordMQArray[action] = q
	}
	return wrapper, nil
}

func (wrapper *rabbitRecordMessageQueueWrapper) GetRecordMessageQueue(action mq.Action) mq.RecordMessageQueue {
	if action < 0 || action >= mq.ActionCnt || wrapper.RecordMQArray[action] == nil {
		return nil
	}
	return wrapper.RecordMQArray[action]
}

func (wrapper *rabbitRecordMessageQueueWrapper) Close() {
	for _, q := range wrapper.RecordMQArray {
		if q != nil {
			q.close()
		}
	}
	if wrapper.conn != nil {
		wrapper.conn.Close()
	}
}
