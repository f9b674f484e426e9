package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upAddLookupIndexes, downAddLookupIndexes)
}

func upAddLookupIndexes(ctx context.Context, tx *sql.Tx) error {
	// Contact reconciliation matches driver names ignoring case
	_, err := tx.ExecContext(ctx, `CREATE INDEX idx_contacts_driver_name_lower ON cargas.contacts(LOWER(driver_name));`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_loads_pickup_date ON cargas.loads(pickup_date);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_loads_driver_name ON cargas.loads(driver_name);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_restrictions_driver_name ON cargas.restrictions(driver_name);`)
	if err != nil {
		return err
	}

	return nil
}

func downAddLookupIndexes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DROP INDEX IF EXISTS cargas.idx_contacts_driver_name_lower;
		DROP INDEX IF EXISTS cargas.idx_loads_pickup_date;
		DROP INDEX IF EXISTS cargas.idx_loads_driver_name;
		DROP INDEX IF EXISTS cargas.idx_restrictions_driver_name;
	`)
	return err
}
