package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInitTables, downInitTables)
}

func upInitTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS cargas;`)
	if err != nil {
		return err
	}

	// Origins and destinations share one table keyed by kind
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE cargas.reference_entries (
			id UUID PRIMARY KEY,
			kind VARCHAR(32) NOT NULL,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `CREATE INDEX idx_reference_entries_kind ON cargas.reference_entries(kind);`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE cargas.contacts (
			id UUID PRIMARY KEY,
			driver_name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	// Loads carry names and plates verbatim, no foreign keys
	_, err = tx.ExecContext(ctx, `
		CREATE TABLE cargas.loads (
			id UUID PRIMARY KEY,
			protocol_code VARCHAR(32) NOT NULL,
			origin_name VARCHAR(255) NOT NULL,
			destination_name VARCHAR(255) NOT NULL,
			pickup_date VARCHAR(10) NOT NULL,
			scheduled_time VARCHAR(5) NOT NULL DEFAULT '',
			product VARCHAR(32) NOT NULL,
			driver_name VARCHAR(255) NOT NULL DEFAULT '',
			truck_plate VARCHAR(16) NOT NULL DEFAULT '',
			trailer_plate VARCHAR(16) NOT NULL DEFAULT '',
			driver_phone VARCHAR(32) NOT NULL DEFAULT '',
			horse_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
			system_status VARCHAR(64) NOT NULL DEFAULT 'Pendente',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE cargas.restrictions (
			id UUID PRIMARY KEY,
			driver_name VARCHAR(255) NOT NULL,
			truck_plate VARCHAR(16) NOT NULL DEFAULT '',
			trailer_plate VARCHAR(16) NOT NULL DEFAULT '',
			start_date VARCHAR(10) NOT NULL,
			end_date VARCHAR(10),
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	return nil
}

func downInitTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"restrictions", "loads", "contacts", "reference_entries"} {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS cargas.`+table+`;`); err != nil {
			return err
		}
	}
	return nil
}
