package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cargas/db/db"
	"cargas/db/mem"
)

func testLoads() []db.Load {
	return []db.Load{
		{
			ProtocolCode:    "C000001",
			OriginName:      "Ilhéus",
			DestinationName: "Jundiaí",
			PickupDate:      "2024-03-01",
			ScheduledTime:   "08:00",
			Product:         db.ProductLicor,
			DriverName:      "João Silva",
			TruckPlate:      "ABC1D23",
			HorseConfirmed:  true,
			SystemStatus:    db.DefaultSystemStatus,
		},
		{
			ProtocolCode:    "C000002",
			OriginName:      "Itabuna",
			DestinationName: "Santos",
			PickupDate:      "2024-03-02",
			Product:         db.ProductManteiga,
			SystemStatus:    db.DefaultSystemStatus,
			Notes:           "sem motorista",
		},
	}
}

func setupContacts(t *testing.T) *db.ContactDataLoader {
	store := mem.NewInMemoryStore()
	require.NoError(t, store.CreateContact(context.Background(), &db.Contact{DriverName: "joão silva", Phone: "5573999999999"}))
	return db.NewContactDataLoader(store)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	f, err = ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	_, err = ParseFormat("pdf")
	assert.True(t, db.IsValidation(err))

	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "cargas_20240301_083000.csv", FormatCSV.FileName(at))
}

func TestRowsFillMissingPhones(t *testing.T) {
	rows, err := Rows(context.Background(), testLoads(), setupContacts(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5573999999999", rows[0][7], "phone comes from the contact")
	assert.Equal(t, "Sim", rows[0][10])
	assert.Empty(t, rows[1][7])
	assert.Equal(t, "Não", rows[1][10])
	assert.Equal(t, "sem motorista", rows[1][12])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, FormatCSV, testLoads(), setupContacts(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Headers, records[0])
	assert.Equal(t, "C000001", records[1][0])
	assert.Equal(t, "Jundiaí", records[1][2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, FormatXLSX, testLoads(), setupContacts(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "João Silva", rows[1][6])
	assert.Equal(t, "5573999999999", rows[1][7])
}

func TestRowsContactFailure(t *testing.T) {
	store := mem.NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rows(ctx, testLoads(), db.NewContactDataLoader(store))
	assert.Error(t, err)
}
