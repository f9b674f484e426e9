package mq

import (
	"github.com/google/uuid"
)

// TopicProvider is implemented by messages routed by topic.
type TopicProvider interface {
	GetTopic() Topic
}

// RecordMessageQueueWrapper holds one queue per action.
type RecordMessageQueueWrapper interface {
	GetRecordMessageQueue(action Action) RecordMessageQueue
	Close()
}

type RecordMessageQueue interface {
	GetAction() Action
	Publish(msg RecordMessage) error
	// Subscribe to one topic; TopicAll receives every topic.
	Subscribe(topic Topic) (uuid.UUID, <-chan RecordMessage, error)
	DeSubscribe(id uuid.UUID) error
}

// Mode selects the queue implementation.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeGoChan    Mode = "go_chan"
	ModeRabbitMQ  Mode = "rabbitmq"
	ModeGCPPubSub Mode = "gcp_pub_sub"
)
