package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/libs/diff"
	"cargas/mq/mq"
)

// NewLoad opens a draft for a new load. The protocol code is fixed here and
// survives every later save.
func (s *Synchronizer) NewLoad() db.LoadDraft {
	return db.LoadDraft{
		Load: db.Load{
			ProtocolCode: db.NewProtocolCode(s.now()),
			SystemStatus: db.DefaultSystemStatus,
		},
		IsNew: true,
	}
}

// EditLoad opens a draft over a stored load.
func (s *Synchronizer) EditLoad(ctx context.Context, id string) (db.LoadDraft, error) {
	load, err := s.store.GetLoad(ctx, id)
	if err != nil {
		return db.LoadDraft{}, err
	}
	return db.LoadDraft{Load: *load}, nil
}

func normalizeLoad(l *db.Load) {
	l.OriginName = strings.TrimSpace(l.OriginName)
	l.DestinationName = strings.TrimSpace(l.DestinationName)
	l.DriverName = strings.TrimSpace(l.DriverName)
	l.TruckPlate = strings.TrimSpace(l.TruckPlate)
	l.TrailerPlate = strings.TrimSpace(l.TrailerPlate)
	l.DriverPhone = strings.TrimSpace(l.DriverPhone)
	if l.SystemStatus == "" {
		l.SystemStatus = db.DefaultSystemStatus
	}
}

// SaveLoad creates the load when the draft is new and updates it
// otherwise. On update the stored protocol code wins over the draft's.
func (s *Synchronizer) SaveLoad(ctx context.Context, draft db.LoadDraft) (*db.Load, error) {
	load := draft.Load
	normalizeLoad(&load)

	if draft.IsNew {
		s.enrichLoad(ctx, &load, "")
		if load.ProtocolCode == "" {
			load.ProtocolCode = db.NewProtocolCode(s.now())
		}
		if err := db.ValidateLoad(load); err != nil {
			return nil, err
		}
		if err := s.store.CreateLoad(ctx, &load); err != nil {
			return nil, fmt.Errorf("failed to create load: %w", err)
		}
		s.logger.Info("load created", zap.String("id", load.ID), zap.String("protocol", load.ProtocolCode))
		s.publish(mq.TopicLoad, mq.ActionCreate, load.ID, func(m *mq.RecordMessage) {
			m.ProtocolCode = load.ProtocolCode
			m.DriverName = load.DriverName
		})
		return &load, nil
	}

	if load.ID == "" {
		return nil, db.NewValidationError("id", "an existing load needs its id")
	}
	existing, err := s.store.GetLoad(ctx, load.ID)
	if err != nil {
		return nil, err
	}
	if existing.ProtocolCode != "" {
		load.ProtocolCode = existing.ProtocolCode
	}
	s.enrichLoad(ctx, &load, existing.DriverName)
	if err := db.ValidateLoad(load); err != nil {
		return nil, err
	}
	changes, err := diff.ChangedFields(*existing, load)
	if err != nil {
		return nil, fmt.Errorf("failed to diff load %s: %w", load.ID, err)
	}
	if err := s.store.UpdateLoad(ctx, &load); err != nil {
		return nil, fmt.Errorf("failed to update load %s: %w", load.ID, err)
	}
	s.logger.Info("load updated", zap.String("id", load.ID), zap.Strings("changes", changes))
	s.publish(mq.TopicLoad, mq.ActionUpdate, load.ID, func(m *mq.RecordMessage) {
		m.ProtocolCode = load.ProtocolCode
		m.DriverName = load.DriverName
		m.Changes = changes
	})
	return &load, nil
}

// DeleteLoad is idempotent.
func (s *Synchronizer) DeleteLoad(ctx context.Context, id string) error {
	if err := s.store.DeleteLoad(ctx, id); err != nil {
		return fmt.Errorf("failed to delete load %s: %w", id, err)
	}
	s.publish(mq.TopicLoad, mq.ActionDelete, id, nil)
	return nil
}

// ListLoads fetches every load and filters the snapshot in memory.
func (s *Synchronizer) ListLoads(ctx context.Context, filter db.LoadFilter) ([]db.Load, error) {
	loads, err := s.store.ListLoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	return filter.Apply(loads), nil
}

func (s *Synchronizer) NewRestriction() db.RestrictionDraft {
	return db.RestrictionDraft{IsNew: true}
}

func (s *Synchronizer) EditRestriction(ctx context.Context, id string) (db.RestrictionDraft, error) {
	r, err := s.store.GetRestriction(ctx, id)
	if err != nil {
		return db.RestrictionDraft{}, err
	}
	return db.RestrictionDraft{Restriction: *r}, nil
}

// SaveRestriction validates before touching the store.
func (s *Synchronizer) SaveRestriction(ctx context.Context, draft db.RestrictionDraft) (*db.Restriction, error) {
	r := draft.Restriction
	r.DriverName = strings.TrimSpace(r.DriverName)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
	if err := db.ValidateRestriction(r); err != nil {
		return nil, err
	}

	if draft.IsNew {
		s.enrichRestriction(ctx, &r, "")
		if err := s.store.CreateRestriction(ctx, &r); err != nil {
			return nil, fmt.Errorf("failed to create restriction: %w", err)
		}
		s.publish(mq.TopicRestriction, mq.ActionCreate, r.ID, func(m *mq.RecordMessage) {
			m.DriverName = r.DriverName
		})
		return &r, nil
	}

	if r.ID == "" {
		return nil, db.NewValidationError("id", "an existing restriction needs its id")
	}
	existing, err := s.store.GetRestriction(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	s.enrichRestriction(ctx, &r, existing.DriverName)
	changes, err := diff.ChangedFields(*existing, r)
	if err != nil {
		return nil, fmt.Errorf("failed to diff restriction %s: %w", r.ID, err)
	}
	if err := s.store.UpdateRestriction(ctx, &r); err != nil {
		return nil, fmt.Errorf("failed to update restriction %s: %w", r.ID, err)
	}
	s.publish(mq.TopicRestriction, mq.ActionUpdate, r.ID, func(m *mq.RecordMessage) {
		m.DriverName = r.DriverName
		m.Changes = changes
	})
	return &r, nil
}

func (s *Synchronizer) DeleteRestriction(ctx context.Context, id string) error {
	if err := s.store.DeleteRestriction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete restriction %s: %w", id, err)
	}
	s.publish(mq.TopicRestriction, mq.ActionDelete, id, nil)
	return nil
}

func (s *Synchronizer) ListRestrictions(ctx context.Context, filter db.RestrictionFilter) ([]db.Restriction, error) {
	restrictions, err := s.store.ListRestrictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list restrictions: %w", err)
	}
	return filter.Apply(restrictions), nil
}

// SaveContact keeps one contact per driver name: an existing contact
// (matched ignoring case) gets the new phone, otherwise one is created.
// Saves race only across processes.
func (s *Synchronizer) SaveContact(ctx context.Context, driverName, phone string) (*db.Contact, error) {
	if strings.TrimSpace(driverName) == "" {
		return nil, db.NewValidationError("driverName", "must not be empty")
	}
	phone = strings.TrimSpace(phone)

	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	existing, err := s.refs.FindByDriverName(ctx, driverName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Phone = phone
		if err := s.refs.UpdateContact(ctx, existing); err != nil {
			return nil, err
		}
		s.publish(mq.TopicContact, mq.ActionUpdate, existing.ID, func(m *mq.RecordMessage) {
			m.DriverName = existing.DriverName
			m.Changes = []string{"phone"}
		})
		return existing, nil
	}

	contact, err := s.refs.CreateContact(ctx, driverName, phone)
	if err != nil {
		return nil, err
	}
	s.publish(mq.TopicContact, mq.ActionCreate, contact.ID, func(m *mq.RecordMessage) {
		m.DriverName = contact.DriverName
	})
	return contact, nil
}

func (s *Synchronizer) DeleteContact(ctx context.Context, id string) error {
	if err := s.refs.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.publish(mq.TopicContact, mq.ActionDelete, id, nil)
	return nil
}

func kindTopic(kind db.Kind) mq.Topic {
	if kind == db.KindDestination {
		return mq.TopicDestination
	}
	return mq.TopicOrigin
}

func (s *Synchronizer) AddReference(ctx context.Context, kind db.Kind, name string) (*db.Reference, error) {
	ref, err := s.refs.Add(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	s.publish(kindTopic(kind), mq.ActionCreate, ref.ID, nil)
	return ref, nil
}

func (s *Synchronizer) DeleteReference(ctx context.Context, kind db.Kind, id string) error {
	if err := s.refs.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.publish(kindTopic(kind), mq.ActionDelete, id, nil)
	return nil
}
