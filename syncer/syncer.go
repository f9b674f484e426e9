// Package syncer binds driver assignment to the denormalized plate and
// phone fields of loads and restrictions, and decides create versus update
// when records are saved.
package syncer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/fleet"
	"cargas/libs/logging"
	"cargas/mq/mq"
	"cargas/notify"
	"cargas/refs"
)

type Synchronizer struct {
	store   db.Store
	refs    *refs.Store
	fleet   *fleet.Lookup
	events  mq.RecordMessageQueueWrapper
	trigger notify.Trigger
	logger  *zap.Logger
	now     func() time.Time

	// serializes the find-then-write of contact reconciliation
	contactMu sync.Mutex
}

type Option func(*Synchronizer)

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) { s.logger = logging.OrNop(logger) }
}

// WithEvents publishes a record message after every successful write.
func WithEvents(events mq.RecordMessageQueueWrapper) Option {
	return func(s *Synchronizer) { s.events = events }
}

func WithTrigger(trigger notify.Trigger) Option {
	return func(s *Synchronizer) { s.trigger = trigger }
}

func New(store db.Store, lookup *fleet.Lookup, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if lookup == nil {
		lookup = fleet.NewLookup(nil, s.logger)
	}
	s.fleet = lookup
	s.refs = refs.NewStore(store, s.logger)
	return s
}

func (s *Synchronizer) Refs() *refs.Store {
	return s.refs
}

func (s *Synchronizer) Fleet() *fleet.Lookup {
	return s.fleet
}

// Now reads the synchronizer clock.
func (s *Synchronizer) Now() time.Time {
	return s.now()
}

// publish never fails the write that preceded it.
func (s *Synchronizer) publish(topic mq.Topic, action mq.Action, id string, fill func(*mq.RecordMessage)) {
	msg := mq.RecordMessage{Topic: topic, Action: action, ID: id, At: s.now()}
	if fill != nil {
		fill(&msg)
	}
	if err := mq.Publish(s.events, msg); err != nil {
		s.logger.Warn("failed to publish record event",
			zap.String("topic", string(topic)),
			zap.Stringer("action", action),
			zap.String("id", id),
			zap.Error(err))
	}
}
