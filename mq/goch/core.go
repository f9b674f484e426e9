package goch

import (
	"sync"

	"github.com/google/uuid"

	"cargas/mq/mq"
)

const defaultSubscriberBuffer = 16

type subscriber[M any] struct {
	topic mq.Topic
	ch    chan M
}

// fanOutQueueCore copies every published message to each subscriber of its
// topic. A subscriber that cannot keep up loses messages rather than
// stalling the others.
type fanOutQueueCore[M mq.TopicProvider] struct {
	publishChan chan M
	subscribers map[uuid.UUID]*subscriber[M]
	quit        chan struct{}
	bufferSize  int

	mu       sync.RWMutex
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newFanOutQueueCore[M mq.TopicProvider](bufferSize int) *fanOutQueueCore[M] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	core := &fanOutQueueCore[M]{
		publishChan: make(chan M, bufferSize),
		subscribers: make(map[uuid.UUID]*subscriber[M]),
		quit:        make(chan struct{}),
		bufferSize:  bufferSize,
	}
	core.wg.Add(1)
	go core.fanOutRoutine()
	return core
}

func (c *fanOutQueueCore[M]) fanOutRoutine() {
	defer c.wg.Done()
	for {
		select {
		case msg := <-c.publishChan:
			c.dispatch(msg)
		case <-c.quit:
			return
		}
	}
}

func (c *fanOutQueueCore[M]) dispatch(msg M) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topic := msg.GetTopic()
	for _, sub := range c.subscribers {
		if sub.topic != mq.TopicAll && sub.topic != topic {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
		}
	}
}

// Publish blocks until the fan-out routine accepts msg or the core stops.
func (c *fanOutQueueCore[M]) Publish(msg M) error {
	select {
	case <-c.quit:
		return ErrQueueStopped
	default:
	}
	select {
	case c.publishChan <- msg:
		return nil
	case <-c.quit:
		return ErrQueueStopped
	}
}

func (c *fanOutQueueCore[M]) Subscribe(topic mq.Topic) (uuid.UUID, <-chan M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.quit:
		return uuid.Nil, nil, ErrQueueStopped
	default:
	}

	size := c.bufferSize
	if size == 0 {
		size = defaultSubscriberBuffer
	}
	id := uuid.New()
	c.subscribers[id] = &subscriber[M]{topic: topic, ch: make(chan M, size)}
	return id, c.subscribers[id].ch, nil
}

func (c *fanOutQueueCore[M]) DeSubscribe(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subscribers[id]
	if !ok {
		return ErrSubscriberNotFound
	}
	delete(c.subscribers, id)
	close(sub.ch)
	return nil
}

// Stop ends the fan-out routine and closes every subscriber channel. It is
// safe to call more than once.
func (c *fanOutQueueCore[M]) Stop() {
	c.stopOnce.Do(func() {
		close(c.quit)
		c.wg.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		for id, sub := range c.subscribers {
			close(sub.ch)
			delete(c.subscribers, id)
		}
	})
}

type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const (
	ErrQueueStopped       QueueError = "message queue is stopped"
	ErrSubscriberNotFound QueueError = "subscriber not found"
)
