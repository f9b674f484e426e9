package sp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cargas/config"
	"cargas/db/db"
	"cargas/libs/diff"
	"cargas/libs/logging"
)

// Store implements db.Store over the lists named in config.
type Store struct {
	client *Client
	lists  config.SharePointLists
	logger *zap.Logger
}

func NewStore(client *Client, lists config.SharePointLists, logger *zap.Logger) *Store {
	return &Store{client: client, lists: lists, logger: logging.OrNop(logger)}
}

var _ db.Store = (*Store)(nil)

func (s *Store) referenceList(kind db.Kind) (string, error) {
	switch kind {
	case db.KindOrigin:
		return s.lists.Origins, nil
	case db.KindDestination:
		return s.lists.Destinations, nil
	}
	return "", fmt.Errorf("unknown reference kind %q", kind)
}

func (s *Store) ListReferences(ctx context.Context, kind db.Kind) ([]db.Reference, error) {
	list, err := s.referenceList(kind)
	if err != nil {
		return nil, err
	}
	items, err := s.client.ListItems(ctx, list)
	if err != nil {
		return nil, err
	}
	refs := make([]db.Reference, 0, len(items))
	for _, item := range items {
		refs = append(refs, referenceFromItem(item))
	}
	return refs, nil
}

func (s *Store) CreateReference(ctx context.Context, kind db.Kind, ref *db.Reference) error {
	list, err := s.referenceList(kind)
	if err != nil {
		return err
	}
	id, err := s.client.CreateItem(ctx, list, map[string]interface{}{fieldTitle: ref.Name})
	if err != nil {
		return err
	}
	ref.ID = id
	return nil
}

func (s *Store) DeleteReference(ctx context.Context, kind db.Kind, id string) error {
	list, err := s.referenceList(kind)
	if err != nil {
		return err
	}
	return s.client.DeleteItem(ctx, list, id)
}

func (s *Store) ListContacts(ctx context.Context) ([]db.Contact, error) {
	items, err := s.client.ListItems(ctx, s.lists.Contacts)
	if err != nil {
		return nil, err
	}
	contacts := make([]db.Contact, 0, len(items))
	for _, item := range items {
		contacts = append(contacts, contactFromItem(item))
	}
	return contacts, nil
}

func (s *Store) CreateContact(ctx context.Context, contact *db.Contact) error {
	id, err := s.client.CreateItem(ctx, s.lists.Contacts, contactFields(*contact))
	if err != nil {
		return err
	}
	contact.ID = id
	return nil
}

func (s *Store) UpdateContact(ctx context.Context, contact *db.Contact) error {
	return s.client.UpdateFields(ctx, s.lists.Contacts, contact.ID, contactFields(*contact))
}

func (s *Store) DeleteContact(ctx context.Context, id string) error {
	return s.client.DeleteItem(ctx, s.lists.Contacts, id)
}

func (s *Store) ListLoads(ctx context.Context) ([]db.Load, error) {
	items, err := s.client.ListItems(ctx, s.lists.Loads)
	if err != nil {
		return nil, err
	}
	loads := make([]db.Load, 0, len(items))
	for _, item := range items {
		loads = append(loads, loadFromItem(item))
	}
	return loads, nil
}

func (s *Store) GetLoad(ctx context.Context, id string) (*db.Load, error) {
	item, err := s.client.GetItem(ctx, s.lists.Loads, id)
	if err != nil {
		return nil, err
	}
	load := loadFromItem(*item)
	return &load, nil
}

func (s *Store) CreateLoad(ctx context.Context, load *db.Load) error {
	id, err := s.client.CreateItem(ctx, s.lists.Loads, loadFields(*load))
	if err != nil {
		return err
	}
	load.ID = id
	return nil
}

// UpdateLoad reads the current item and patches only the columns that
// differ from it.
func (s *Store) UpdateLoad(ctx context.Context, load *db.Load) error {
	current, err := s.GetLoad(ctx, load.ID)
	if err != nil {
		return err
	}
	changed, err := diff.ChangedFields(*current, *load)
	if err != nil {
		return fmt.Errorf("failed to diff load %s: %w", load.ID, err)
	}
	if len(changed) == 0 {
		return nil
	}
	patch := patchFields(changed, loadColumns, func(name string) interface{} { return loadValue(*load, name) })
	s.logger.Debug("patching load", zap.String("id", load.ID), zap.Strings("fields", changed))
	return s.client.UpdateFields(ctx, s.lists.Loads, load.ID, patch)
}

func (s *Store) DeleteLoad(ctx context.Context, id string) error {
	return s.client.DeleteItem(ctx, s.lists.Loads, id)
}

func (s *Store) ListRestrictions(ctx context.Context) ([]db.Restriction, error) {
	items, err := s.client.ListItems(ctx, s.lists.Restrictions)
	if err != nil {
		return nil, err
	}
	restrictions := make([]db.Restriction, 0, len(items))
	for _, item := range items {
		restrictions = append(restrictions, restrictionFromItem(item))
	}
	return restrictions, nil
}

func (s *Store) GetRestriction(ctx context.Context, id string) (*db.Restriction, error) {
	item, err := s.client.GetItem(ctx, s.lists.Restrictions, id)
	if err != nil {
		return nil, err
	}
	r := restrictionFromItem(*item)
	return &r, nil
}

func (s *Store) CreateRestriction(ctx context.Context, restriction *db.Restriction) error {
	fields := restrictionFields(*restriction)
	if restriction.EndDate == "" {
		delete(fields, fieldEndDate)
	}
	id, err := s.client.CreateItem(ctx, s.lists.Restrictions, fields)
	if err != nil {
		return err
	}
	restriction.ID = id
	return nil
}

func (s *Store) UpdateRestriction(ctx context.Context, restriction *db.Restriction) error {
	current, err := s.GetRestriction(ctx, restriction.ID)
	if err != nil {
		return err
	}
	changed, err := diff.ChangedFields(*current, *restriction)
	if err != nil {
		return fmt.Errorf("failed to diff restriction %s: %w", restriction.ID, err)
	}
	if len(changed) == 0 {
		return nil
	}
	patch := patchFields(changed, restrictionColumns, func(name string) interface{} { return restrictionValue(*restriction, name) })
	return s.client.UpdateFields(ctx, s.lists.Restrictions, restriction.ID, patch)
}

func (s *Store) DeleteRestriction(ctx context.Context, id string) error {
	return s.client.DeleteItem(ctx, s.lists.Restrictions, id)
}
