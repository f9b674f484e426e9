package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Subscriber is anything that can be subscribed to by topic.
type Subscriber[M any] interface {
	Subscribe(Topic) (uuid.UUID, <-chan M, error)
	DeSubscribe(id uuid.UUID) error
}

// SubscribeProcessor subscribes service to topic and forwards transformed
// messages to outputStream until ctx is done or the service closes the
// subscription. It does not close outputStream; the returned channel is
// closed once forwarding has stopped.
func SubscribeProcessor[S Subscriber[M], M any, O any](
	ctx context.Context,
	topic Topic,
	service S,
	transformFunc func(msg M) (O, bool, error),
	outputStream chan<- O,
) (<-chan struct{}, error) {
	uid, inputCh, err := service.Subscribe(topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %q: %w", topic, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// the service may already have dropped the subscription on shutdown
		defer service.DeSubscribe(uid)

		for {
			select {
			case msg, ok := <-inputCh:
				if !ok {
					return
				}
				output, skip, err := transformFunc(msg)
				if err != nil || skip {
					continue
				}
				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}

// SubscribeAllActions merges the create, update and delete queues of
// wrapper for topic into outputStream, closing it when every forwarder has
// stopped.
func SubscribeAllActions[O any](
	ctx context.Context,
	wrapper RecordMessageQueueWrapper,
	topic Topic,
	transformFunc func(msg RecordMessage) (O, bool, error),
	outputStream chan<- O,
) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for action := ActionCreate; action < ActionCnt; action++ {
		queue := wrapper.GetRecordMessageQueue(action)
		if queue == nil {
			continue
		}
		done, err := SubscribeProcessor(ctx, topic, queue, transformFunc, outputStream)
		if err != nil {
			cancel()
			wg.Wait()
			close(outputStream)
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
		}()
	}
	go func() {
		wg.Wait()
		cancel()
		close(outputStream)
	}()
	return nil
}

// Publish routes msg to the queue of its action. A nil wrapper drops it.
func Publish(wrapper RecordMessageQueueWrapper, msg RecordMessage) error {
	if wrapper == nil {
		return nil
	}
	queue := wrapper.GetRecordMessageQueue(msg.Action)
	if queue == nil {
		return fmt.Errorf("no queue for action %s", msg.Action)
	}
	return queue.Publish(msg)
}
