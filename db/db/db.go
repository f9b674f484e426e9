package db

import (
	"context"
)

// ReferenceDBWrapper persists origins, destinations and driver contacts.
//
// Deletes are idempotent: removing an unknown id returns nil.
type ReferenceDBWrapper interface {
	// Reference lists
	ListReferences(ctx context.Context, kind Kind) ([]Reference, error)
	CreateReference(ctx context.Context, kind Kind, ref *Reference) error
	DeleteReference(ctx context.Context, kind Kind, id string) error
	// Contacts
	ListContacts(ctx context.Context) ([]Contact, error)
	CreateContact(ctx context.Context, contact *Contact) error
	UpdateContact(ctx context.Context, contact *Contact) error
	DeleteContact(ctx context.Context, id string) error
}

// RecordDBWrapper persists loads and restrictions.
//
// Create assigns the id on the passed record. Update returns a
// *NotFoundError when the id is unknown to the backing store. Deletes are
// idempotent.
type RecordDBWrapper interface {
	// Loads
	ListLoads(ctx context.Context) ([]Load, error)
	GetLoad(ctx context.Context, id string) (*Load, error)
	CreateLoad(ctx context.Context, load *Load) error
	UpdateLoad(ctx context.Context, load *Load) error
	DeleteLoad(ctx context.Context, id string) error
	// Restrictions
	ListRestrictions(ctx context.Context) ([]Restriction, error)
	GetRestriction(ctx context.Context, id string) (*Restriction, error)
	CreateRestriction(ctx context.Context, restriction *Restriction) error
	UpdateRestriction(ctx context.Context, restriction *Restriction) error
	DeleteRestriction(ctx context.Context, id string) error
}

// Store bundles both halves; every backend implements it.
type Store interface {
	ReferenceDBWrapper
	RecordDBWrapper
}
