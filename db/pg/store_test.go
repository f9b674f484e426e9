package pg

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargas/config"
	dbt "cargas/db/db"
	_ "cargas/migration"
)

// setupTest migrates the database named by DATABASE_URL and returns a store
// over it. Tables are emptied when the test ends.
func setupTest(t *testing.T) dbt.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(context.Background(), sqlDB, "../../migration"))

	testDB, err := InitPostgresGORM(CreateDSN(config.DatabaseConfig{DSN: dsn, Schema: config.AppName}))
	require.NoError(t, err)
	t.Cleanup(func() {
		testDB.Exec("DELETE FROM restrictions;")
		testDB.Exec("DELETE FROM loads;")
		testDB.Exec("DELETE FROM contacts;")
		testDB.Exec("DELETE FROM reference_entries;")
		CloseGORM(testDB)
	})
	return NewGORMStore(testDB)
}

func TestCreateDSN(t *testing.T) {
	assert.Equal(t,
		"host=db user=app search_path=cargas",
		CreateDSN(config.DatabaseConfig{DSN: "host=db user=app"}))
	assert.Equal(t,
		"postgres://app@db/app?sslmode=disable&search_path=frete",
		CreateDSN(config.DatabaseConfig{DSN: "postgres://app@db/app?sslmode=disable", Schema: "frete"}))
	assert.Equal(t,
		"postgres://app@db/app?search_path=cargas",
		CreateDSN(config.DatabaseConfig{DSN: "postgres://app@db/app"}))
	assert.Equal(t,
		"host=db search_path=other",
		CreateDSN(config.DatabaseConfig{DSN: "host=db search_path=other"}), "an explicit search_path wins")
}

func TestReferencesRoundTrip(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	first := &dbt.Reference{Name: "Ilhéus"}
	second := &dbt.Reference{Name: "Itabuna"}
	require.NoError(t, store.CreateReference(ctx, dbt.KindOrigin, first))
	require.NoError(t, store.CreateReference(ctx, dbt.KindOrigin, second))
	require.NoError(t, store.CreateReference(ctx, dbt.KindDestination, &dbt.Reference{Name: "Santos"}))

	origins, err := store.ListReferences(ctx, dbt.KindOrigin)
	require.NoError(t, err)
	require.Len(t, origins, 2)
	assert.Equal(t, "Ilhéus", origins[0].Name)
	assert.Equal(t, "Itabuna", origins[1].Name)

	require.NoError(t, store.DeleteReference(ctx, dbt.KindOrigin, first.ID))
	require.NoError(t, store.DeleteReference(ctx, dbt.KindOrigin, first.ID))
	require.NoError(t, store.DeleteReference(ctx, dbt.KindOrigin, "not-a-uuid"))

	origins, err = store.ListReferences(ctx, dbt.KindOrigin)
	require.NoError(t, err)
	require.Len(t, origins, 1)
	assert.Equal(t, second.ID, origins[0].ID)
}

func TestContactUpdate(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	contact := &dbt.Contact{DriverName: "João Silva", Phone: "73999990000"}
	require.NoError(t, store.CreateContact(ctx, contact))

	contact.Phone = "73988887777"
	require.NoError(t, store.UpdateContact(ctx, contact))

	contacts, err := store.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "73988887777", contacts[0].Phone)

	err = store.UpdateContact(ctx, &dbt.Contact{ID: "00000000-0000-0000-0000-000000000001", DriverName: "x"})
	assert.True(t, dbt.IsNotFound(err))
	err = store.UpdateContact(ctx, &dbt.Contact{ID: "bogus", DriverName: "x"})
	assert.True(t, dbt.IsNotFound(err))
}

func TestLoadUpdateWritesClearedFields(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	load := &dbt.Load{
		ProtocolCode:    "C123456",
		OriginName:      "Ilhéus",
		DestinationName: "Santos",
		PickupDate:      "2026-03-10",
		ScheduledTime:   "08:30",
		Product:         dbt.ProductManteiga,
		DriverName:      "João Silva",
		TruckPlate:      "ABC1D23",
		TrailerPlate:    "XYZ9K87",
		DriverPhone:     "73999990000",
		HorseConfirmed:  true,
		SystemStatus:    dbt.DefaultSystemStatus,
	}
	require.NoError(t, store.CreateLoad(ctx, load))
	require.NotEmpty(t, load.ID)

	load.DriverName = ""
	load.TruckPlate = ""
	load.TrailerPlate = ""
	load.HorseConfirmed = false
	require.NoError(t, store.UpdateLoad(ctx, load))

	got, err := store.GetLoad(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, *load, *got)

	missing := *load
	missing.ID = "00000000-0000-0000-0000-000000000002"
	assert.True(t, dbt.IsNotFound(store.UpdateLoad(ctx, &missing)))

	_, err = store.GetLoad(ctx, "bogus")
	assert.True(t, dbt.IsNotFound(err))

	require.NoError(t, store.DeleteLoad(ctx, load.ID))
	require.NoError(t, store.DeleteLoad(ctx, load.ID))
	_, err = store.GetLoad(ctx, load.ID)
	assert.True(t, dbt.IsNotFound(err))
}

func TestRestrictionEndDateIsOptional(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()

	r := &dbt.Restriction{DriverName: "Maria Souza", StartDate: "2026-03-01", EndDate: "2026-03-05", Reason: "Férias"}
	require.NoError(t, store.CreateRestriction(ctx, r))

	r.EndDate = ""
	require.NoError(t, store.UpdateRestriction(ctx, r))

	got, err := store.GetRestriction(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.EndDate)
	assert.Equal(t, "Férias", got.Reason)

	all, err := store.ListRestrictions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
