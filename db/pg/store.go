package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "cargas/db/db"
)

// GORMStore is the PostgreSQL implementation of dbt.Store.
type GORMStore struct {
	db *gorm.DB
}

func NewGORMStore(db *gorm.DB) dbt.Store {
	return &GORMStore{db: db}
}

// parseID maps ids that cannot exist in a uuid column to not-found.
func parseID(entity, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, &dbt.NotFoundError{Entity: entity, ID: id}
	}
	return parsed, nil
}

func (s *GORMStore) ListReferences(ctx context.Context, kind dbt.Kind) ([]dbt.Reference, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	var models []ReferenceModel
	result := s.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("created_at, id").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list %s references: %w", kind, result.Error)
	}
	refs := make([]dbt.Reference, 0, len(models))
	for _, m := range models {
		refs = append(refs, dbt.Reference{ID: m.ID.String(), Name: m.Name})
	}
	return refs, nil
}

func (s *GORMStore) CreateReference(ctx context.Context, kind dbt.Kind, ref *dbt.Reference) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reference kind %q", kind)
	}
	model := ReferenceModel{ID: uuid.New(), Kind: string(kind), Name: ref.Name}
	if result := s.db.WithContext(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("failed to create %s reference: %w", kind, result.Error)
	}
	ref.ID = model.ID.String()
	return nil
}

func (s *GORMStore) DeleteReference(ctx context.Context, kind dbt.Kind, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	result := s.db.WithContext(ctx).Where("id = ? AND kind = ?", parsed, string(kind)).Delete(&ReferenceModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s reference %s: %w", kind, id, result.Error)
	}
	return nil
}

func (s *GORMStore) ListContacts(ctx context.Context) ([]dbt.Contact, error) {
	var models []ContactModel
	if result := s.db.WithContext(ctx).Order("created_at, id").Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", result.Error)
	}
	contacts := make([]dbt.Contact, 0, len(models))
	for _, m := range models {
		contacts = append(contacts, dbt.Contact{ID: m.ID.String(), DriverName: m.DriverName, Phone: m.Phone})
	}
	return contacts, nil
}

func (s *GORMStore) CreateContact(ctx context.Context, contact *dbt.Contact) error {
	model := ContactModel{ID: uuid.New(), DriverName: contact.DriverName, Phone: contact.Phone}
	if result := s.db.WithContext(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("failed to create contact: %w", result.Error)
	}
	contact.ID = model.ID.String()
	return nil
}

func (s *GORMStore) UpdateContact(ctx context.Context, contact *dbt.Contact) error {
	id, err := parseID("contact", contact.ID)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&ContactModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"driver_name": contact.DriverName, "phone": contact.Phone})
	if result.Error != nil {
		return fmt.Errorf("failed to update contact %s: %w", contact.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &dbt.NotFoundError{Entity: "contact", ID: contact.ID}
	}
	return nil
}

func (s *GORMStore) DeleteContact(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if result := s.db.WithContext(ctx).Delete(&ContactModel{}, "id = ?", parsed); result.Error != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, result.Error)
	}
	return nil
}

func (s *GORMStore) ListLoads(ctx context.Context) ([]dbt.Load, error) {
	var models []LoadModel
	if result := s.db.WithContext(ctx).Order("created_at, id").Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to list loads: %w", result.Error)
	}
	loads := make([]dbt.Load, 0, len(models))
	for _, m := range models {
		loads = append(loads, m.toLoad())
	}
	return loads, nil
}

func (s *GORMStore) GetLoad(ctx context.Context, id string) (*dbt.Load, error) {
	parsed, err := parseID("load", id)
	if err != nil {
		return nil, err
	}
	var model LoadModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", parsed)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &dbt.NotFoundError{Entity: "load", ID: id}
		}
		return nil, fmt.Errorf("failed to get load %s: %w", id, result.Error)
	}
	load := model.toLoad()
	return &load, nil
}

func (s *GORMStore) CreateLoad(ctx context.Context, load *dbt.Load) error {
	model := loadToModel(load, uuid.New())
	if result := s.db.WithContext(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("failed to create load: %w", result.Error)
	}
	load.ID = model.ID.String()
	return nil
}

// UpdateLoad replaces every column; Select("*") makes GORM write zero
// values such as a cleared driver.
func (s *GORMStore) UpdateLoad(ctx context.Context, load *dbt.Load) error {
	id, err := parseID("load", load.ID)
	if err != nil {
		return err
	}
	model := loadToModel(load, id)
	result := s.db.WithContext(ctx).Model(&LoadModel{ID: id}).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to update load %s: %w", load.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &dbt.NotFoundError{Entity: "load", ID: load.ID}
	}
	return nil
}

func (s *GORMStore) DeleteLoad(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if result := s.db.WithContext(ctx).Delete(&LoadModel{}, "id = ?", parsed); result.Error != nil {
		return fmt.Errorf("failed to delete load %s: %w", id, result.Error)
	}
	return nil
}

func (s *GORMStore) ListRestrictions(ctx context.Context) ([]dbt.Restriction, error) {
	var models []RestrictionModel
	if result := s.db.WithContext(ctx).Order("created_at, id").Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to list restrictions: %w", result.Error)
	}
	restrictions := make([]dbt.Restriction, 0, len(models))
	for _, m := range models {
		restrictions = append(restrictions, m.toRestriction())
	}
	return restrictions, nil
}

func (s *GORMStore) GetRestriction(ctx context.Context, id string) (*dbt.Restriction, error) {
	parsed, err := parseID("restriction", id)
	if err != nil {
		return nil, err
	}
	var model RestrictionModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", parsed)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &dbt.NotFoundError{Entity: "restriction", ID: id}
		}
		return nil, fmt.Errorf("failed to get restriction %s: %w", id, result.Error)
	}
	r := model.toRestriction()
	return &r, nil
}

func (s *GORMStore) CreateRestriction(ctx context.Context, restriction *dbt.Restriction) error {
	model := restrictionToModel(restriction, uuid.New())
	if result := s.db.WithContext(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("failed to create restriction: %w", result.Error)
	}
	restriction.ID = model.ID.String()
	return nil
}

func (s *GORMStore) UpdateRestriction(ctx context.Context, restriction *dbt.Restriction) error {
	id, err := parseID("restriction", restriction.ID)
	if err != nil {
		return err
	}
	model := restrictionToModel(restriction, id)
	result := s.db.WithContext(ctx).Model(&RestrictionModel{ID: id}).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to update restriction %s: %w", restriction.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &dbt.NotFoundError{Entity: "restriction", ID: restriction.ID}
	}
	return nil
}

func (s *GORMStore) DeleteRestriction(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if result := s.db.WithContext(ctx).Delete(&RestrictionModel{}, "id = ?", parsed); result.Error != nil {
		return fmt.Errorf("failed to delete restriction %s: %w", id, result.Error)
	}
	return nil
}
