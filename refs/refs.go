// Package refs holds the user-maintained reference lists: origins,
// destinations and driver contacts.
package refs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/libs/logging"
)

type Store struct {
	backend db.ReferenceDBWrapper
	logger  *zap.Logger
}

func NewStore(backend db.ReferenceDBWrapper, logger *zap.Logger) *Store {
	return &Store{backend: backend, logger: logging.OrNop(logger)}
}

// List returns the entries of kind in backend insertion order.
func (s *Store) List(ctx context.Context, kind db.Kind) ([]db.Reference, error) {
	if !kind.Valid() {
		return nil, db.NewValidationError("kind", fmt.Sprintf("unknown reference kind %q", kind))
	}
	refs, err := s.backend.ListReferences(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", kind, err)
	}
	return refs, nil
}

// Add appends a new entry. Duplicate names are allowed; blank ones are not.
func (s *Store) Add(ctx context.Context, kind db.Kind, name string) (*db.Reference, error) {
	if !kind.Valid() {
		return nil, db.NewValidationError("kind", fmt.Sprintf("unknown reference kind %q", kind))
	}
	if err := db.ValidateReferenceName(name); err != nil {
		return nil, err
	}
	ref := &db.Reference{Name: strings.TrimSpace(name)}
	if err := s.backend.CreateReference(ctx, kind, ref); err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", kind, err)
	}
	s.logger.Debug("reference added", zap.String("kind", string(kind)), zap.String("id", ref.ID))
	return ref, nil
}

// Delete removes an entry; an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, kind db.Kind, id string) error {
	if !kind.Valid() {
		return db.NewValidationError("kind", fmt.Sprintf("unknown reference kind %q", kind))
	}
	if err := s.backend.DeleteReference(ctx, kind, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) Contacts(ctx context.Context) ([]db.Contact, error) {
	contacts, err := s.backend.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// FindByDriverName returns the first contact whose driver name equals name,
// ignoring case. It returns nil when there is none.
func (s *Store) FindByDriverName(ctx context.Context, name string) (*db.Contact, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if contacts[i].SameDriver(name) {
			return &contacts[i], nil
		}
	}
	return nil, nil
}

func (s *Store) CreateContact(ctx context.Context, driverName, phone string) (*db.Contact, error) {
	if strings.TrimSpace(driverName) == "" {
		return nil, db.NewValidationError("driverName", "driver name is required")
	}
	contact := &db.Contact{DriverName: strings.TrimSpace(driverName), Phone: strings.TrimSpace(phone)}
	if err := s.backend.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (s *Store) UpdateContact(ctx context.Context, contact *db.Contact) error {
	if err := s.backend.UpdateContact(ctx, contact); err != nil {
		return fmt.Errorf("failed to update contact %s: %w", contact.ID, err)
	}
	return nil
}

func (s *Store) DeleteContact(ctx context.Context, id string) error {
	if err := s.backend.DeleteContact(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	return nil
}
