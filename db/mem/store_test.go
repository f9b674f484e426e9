package mem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "cargas/db/db"
	"cargas/db/mem"
)

// setupTest creates a fresh store for each test.
func setupTest() dbt.Store {
	return mem.NewInMemoryStore()
}

func TestReferencesKeepInsertionOrderAndDuplicates(t *testing.T) {
	store := setupTest()
	ctx := context.Background()

	for _, name := range []string{"Ilhéus", "Itabuna", "Ilhéus"} {
		ref := &dbt.Reference{Name: name}
		require.NoError(t, store.CreateReference(ctx, dbt.KindOrigin, ref))
		assert.NotEmpty(t, ref.ID)
	}

	origins, err := store.ListReferences(ctx, dbt.KindOrigin)
	require.NoError(t, err)
	require.Len(t, origins, 3)
	assert.Equal(t, "Ilhéus", origins[0].Name)
	assert.Equal(t, "Itabuna", origins[1].Name)
	assert.Equal(t, "Ilhéus", origins[2].Name)

	destinations, err := store.ListReferences(ctx, dbt.KindDestination)
	require.NoError(t, err)
	assert.Empty(t, destinations, "kinds must not share rows")
}

func TestDeleteReferenceIsIdempotent(t *testing.T) {
	store := setupTest()
	ctx := context.Background()

	ref := &dbt.Reference{Name: "Jundiaí"}
	require.NoError(t, store.CreateReference(ctx, dbt.KindDestination, ref))

	require.NoError(t, store.DeleteReference(ctx, dbt.KindDestination, ref.ID))
	assert.NoError(t, store.DeleteReference(ctx, dbt.KindDestination, ref.ID), "second delete is a no-op")
	assert.NoError(t, store.DeleteReference(ctx, dbt.KindDestination, "unknown"))

	destinations, err := store.ListReferences(ctx, dbt.KindDestination)
	require.NoError(t, err)
	assert.Empty(t, destinations)
}

func TestUnknownReferenceKind(t *testing.T) {
	store := setupTest()
	_, err := store.ListReferences(context.Background(), dbt.Kind("port"))
	assert.Error(t, err)
}

func TestLoadLifecycle(t *testing.T) {
	store := setupTest()
	ctx := context.Background()

	load := &dbt.Load{
		ProtocolCode:    "C123456",
		OriginName:      "Ilhéus",
		DestinationName: "Jundiaí",
		PickupDate:      "2024-03-01",
		ScheduledTime:   "08:00",
		Product:         dbt.ProductLicor,
		SystemStatus:    dbt.DefaultSystemStatus,
	}
	require.NoError(t, store.CreateLoad(ctx, load))
	require.NotEmpty(t, load.ID)

	got, err := store.GetLoad(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, *load, *got)

	// mutating the returned copy must not leak into the store
	got.OriginName = "changed"
	again, err := store.GetLoad(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ilhéus", again.OriginName)

	load.DriverName = "João Silva"
	require.NoError(t, store.UpdateLoad(ctx, load))
	loads, err := store.ListLoads(ctx)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, "João Silva", loads[0].DriverName)

	require.NoError(t, store.DeleteLoad(ctx, load.ID))
	assert.NoError(t, store.DeleteLoad(ctx, load.ID), "deleting twice does not error")
	loads, err = store.ListLoads(ctx)
	require.NoError(t, err)
	assert.Empty(t, loads)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	store := setupTest()
	ctx := context.Background()

	err := store.UpdateLoad(ctx, &dbt.Load{ID: "missing"})
	assert.True(t, dbt.IsNotFound(err))

	err = store.UpdateRestriction(ctx, &dbt.Restriction{ID: "missing"})
	assert.True(t, dbt.IsNotFound(err))

	err = store.UpdateContact(ctx, &dbt.Contact{ID: "missing"})
	assert.True(t, dbt.IsNotFound(err))

	_, err = store.GetLoad(ctx, "missing")
	assert.True(t, dbt.IsNotFound(err))
}

func TestRestrictionAndContactCRUD(t *testing.T) {
	store := setupTest()
	ctx := context.Background()

	restriction := &dbt.Restriction{DriverName: "Ana", StartDate: "2024-03-01", Reason: "férias"}
	require.NoError(t, store.CreateRestriction(ctx, restriction))
	restriction.EndDate = "2024-03-10"
	require.NoError(t, store.UpdateRestriction(ctx, restriction))
	got, err := store.GetRestriction(ctx, restriction.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", got.EndDate)
	require.NoError(t, store.DeleteRestriction(ctx, restriction.ID))
	require.NoError(t, store.DeleteRestriction(ctx, restriction.ID))

	contact := &dbt.Contact{DriverName: "Ana", Phone: "5573911111111"}
	require.NoError(t, store.CreateContact(ctx, contact))
	contact.Phone = "5573922222222"
	require.NoError(t, store.UpdateContact(ctx, contact))
	contacts, err := store.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "5573922222222", contacts[0].Phone)
}

func TestCancelledContext(t *testing.T) {
	store := setupTest()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListLoads(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
