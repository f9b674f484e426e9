package mem

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	dbt "cargas/db/db"
)

// inMemoryStore is an in-memory implementation of dbt.Store, the local
// counterpart of the remote list backends.
type inMemoryStore struct {
	references   map[dbt.Kind]*orderedTable[dbt.Reference]
	contacts     *orderedTable[dbt.Contact]
	loads        *orderedTable[dbt.Load]
	restrictions *orderedTable[dbt.Restriction]

	mu sync.RWMutex
}

// NewInMemoryStore creates and returns a new, empty in-memory store.
func NewInMemoryStore() dbt.Store {
	return &inMemoryStore{
		references: map[dbt.Kind]*orderedTable[dbt.Reference]{
			dbt.KindOrigin:      newOrderedTable[dbt.Reference](),
			dbt.KindDestination: newOrderedTable[dbt.Reference](),
		},
		contacts:     newOrderedTable[dbt.Contact](),
		loads:        newOrderedTable[dbt.Load](),
		restrictions: newOrderedTable[dbt.Restriction](),
	}
}

func newID() string {
	return uuid.New().String()
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (s *inMemoryStore) referenceTable(kind dbt.Kind) (*orderedTable[dbt.Reference], error) {
	table, ok := s.references[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	return table, nil
}

// ListReferences returns the references of a kind in insertion order.
func (s *inMemoryStore) ListReferences(ctx context.Context, kind dbt.Kind) ([]dbt.Reference, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, err := s.referenceTable(kind)
	if err != nil {
		return nil, err
	}
	return table.list(), nil
}

// CreateReference stores a new reference. Duplicate names are accepted.
func (s *inMemoryStore) CreateReference(ctx context.Context, kind dbt.Kind, ref *dbt.Reference) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.referenceTable(kind)
	if err != nil {
		return err
	}
	ref.ID = newID()
	table.insert(ref.ID, *ref)
	return nil
}

func (s *inMemoryStore) DeleteReference(ctx context.Context, kind dbt.Kind, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.referenceTable(kind)
	if err != nil {
		return err
	}
	table.remove(id)
	return nil
}

func (s *inMemoryStore) ListContacts(ctx context.Context) ([]dbt.Contact, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts.list(), nil
}

func (s *inMemoryStore) CreateContact(ctx context.Context, contact *dbt.Contact) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	contact.ID = newID()
	s.contacts.insert(contact.ID, *contact)
	return nil
}

func (s *inMemoryStore) UpdateContact(ctx context.Context, contact *dbt.Contact) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.contacts.replace(contact.ID, *contact) {
		return &dbt.NotFoundError{Entity: "contact", ID: contact.ID}
	}
	return nil
}

func (s *inMemoryStore) DeleteContact(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts.remove(id)
	return nil
}

func (s *inMemoryStore) ListLoads(ctx context.Context) ([]dbt.Load, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads.list(), nil
}

func (s *inMemoryStore) GetLoad(ctx context.Context, id string) (*dbt.Load, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	load, ok := s.loads.get(id)
	if !ok {
		return nil, &dbt.NotFoundError{Entity: "load", ID: id}
	}
	return &load, nil
}

func (s *inMemoryStore) CreateLoad(ctx context.Context, load *dbt.Load) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	load.ID = newID()
	s.loads.insert(load.ID, *load)
	return nil
}

func (s *inMemoryStore) UpdateLoad(ctx context.Context, load *dbt.Load) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loads.replace(load.ID, *load) {
		return &dbt.NotFoundError{Entity: "load", ID: load.ID}
	}
	return nil
}

func (s *inMemoryStore) DeleteLoad(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads.remove(id)
	return nil
}

func (s *inMemoryStore) ListRestrictions(ctx context.Context) ([]dbt.Restriction, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restrictions.list(), nil
}

func (s *inMemoryStore) GetRestriction(ctx context.Context, id string) (*dbt.Restriction, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	restriction, ok := s.restrictions.get(id)
	if !ok {
		return nil, &dbt.NotFoundError{Entity: "restriction", ID: id}
	}
	return &restriction, nil
}

func (s *inMemoryStore) CreateRestriction(ctx context.Context, restriction *dbt.Restriction) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	restriction.ID = newID()
	s.restrictions.insert(restriction.ID, *restriction)
	return nil
}

func (s *inMemoryStore) UpdateRestriction(ctx context.Context, restriction *dbt.Restriction) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.restrictions.replace(restriction.ID, *restriction) {
		return &dbt.NotFoundError{Entity: "restriction", ID: restriction.ID}
	}
	return nil
}

func (s *inMemoryStore) DeleteRestriction(ctx context.Context, id string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restrictions.remove(id)
	return nil
}
