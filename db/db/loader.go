package db

import (
	"context"
	"strings"
	"time"

	"github.com/vikstrous/dataloadgen"
)

type dataLoaderKey string

const (
	DataLoaderKeyContact dataLoaderKey = "contact_data_loader"
)

// ContactDataLoader batches contact-by-driver lookups issued while
// enriching many loads at once, so the contact list is fetched once per
// batch window instead of once per load.
//
//	loader, ok := ginCtx.Value(string(db.DataLoaderKeyContact)).(*db.ContactDataLoader)
type ContactDataLoader struct {
	ByDriverName *dataloadgen.Loader[string, *Contact]
}

func NewContactDataLoader(dbWrapper ReferenceDBWrapper) *ContactDataLoader {
	return &ContactDataLoader{
		ByDriverName: dataloadgen.NewMappedLoader(
			contactsByDriverName(dbWrapper),
			dataloadgen.WithWait(2*time.Millisecond),
		),
	}
}

// Phone returns the contact phone for a driver, or "" when there is none.
func (l *ContactDataLoader) Phone(ctx context.Context, driverName string) (string, error) {
	if strings.TrimSpace(driverName) == "" {
		return "", nil
	}
	contact, err := l.ByDriverName.Load(ctx, NormalizeDriverKey(driverName))
	if err != nil || contact == nil {
		return "", err
	}
	return contact.Phone, nil
}

// NormalizeDriverKey is the key contacts are matched by.
func NormalizeDriverKey(driverName string) string {
	return strings.ToLower(strings.TrimSpace(driverName))
}

func contactsByDriverName(dbWrapper ReferenceDBWrapper) func(ctx context.Context, keys []string) (map[string]*Contact, error) {
	return func(ctx context.Context, keys []string) (map[string]*Contact, error) {
		contacts, err := dbWrapper.ListContacts(ctx)
		if err != nil {
			return nil, err
		}
		byKey := make(map[string]*Contact, len(contacts))
		for i := range contacts {
			key := NormalizeDriverKey(contacts[i].DriverName)
			if _, exists := byKey[key]; !exists {
				byKey[key] = &contacts[i]
			}
		}
		// every requested key gets an entry; nil means no contact
		result := make(map[string]*Contact, len(keys))
		for _, k := range keys {
			result[k] = byKey[k]
		}
		return result, nil
	}
}
