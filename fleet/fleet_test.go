package fleet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargas/db/db"
)

var sampleFleet = StaticSource{
	{DriverName: "João Silva", TruckPlate: "ABC1D23", TrailerPlate: "XYZ9K87"},
	{DriverName: "Maria Souza", TruckPlate: "JOA4E56", TrailerPlate: "QWE1R23"},
	{DriverName: "Pedro Lima", TruckPlate: "PED7F89", TrailerPlate: "ASD4F56"},
}

type failingSource struct{}

func (failingSource) Fetch(ctx context.Context) ([]Record, error) {
	return nil, &db.TransportError{Op: "GET fleet", Err: errors.New("connection refused")}
}

type countingSource struct {
	StaticSource
	calls int
}

func (c *countingSource) Fetch(ctx context.Context) ([]Record, error) {
	c.calls++
	return c.StaticSource.Fetch(ctx)
}

func TestSearchMatchesDriverAndPlate(t *testing.T) {
	lookup := NewLookup(sampleFleet, nil)
	ctx := context.Background()

	names := func(term string) []string {
		var out []string
		for r := range lookup.Search(ctx, term) {
			out = append(out, r.DriverName)
		}
		return out
	}

	assert.Equal(t, []string{"João Silva"}, names("JOÃO"))
	// plate match, accents are not folded
	assert.Equal(t, []string{"Maria Souza"}, names("joa"))
	assert.Equal(t, []string{"João Silva", "Maria Souza"}, names("s"))
	assert.Equal(t, []string{"Pedro Lima"}, names("ped7"))
	assert.Len(t, names(""), 3)
	assert.Empty(t, names("nobody"))
}

func TestSearchIsLazyAndStopsEarly(t *testing.T) {
	source := &countingSource{StaticSource: sampleFleet}
	lookup := NewLookup(source, nil)

	seq := lookup.Search(context.Background(), "")
	assert.Equal(t, 0, source.calls, "nothing fetched before iteration")

	first := slices.Collect(func(yield func(Record) bool) {
		for r := range seq {
			yield(r)
			return
		}
	})
	assert.Len(t, first, 1)
	assert.Equal(t, 1, source.calls)

	// no caching between calls
	lookup.FindByName(context.Background(), "Pedro Lima")
	assert.Equal(t, 2, source.calls)
}

func TestFindByName(t *testing.T) {
	lookup := NewLookup(sampleFleet, nil)
	r, ok := lookup.FindByName(context.Background(), "  joão silva ")
	require.True(t, ok)
	assert.Equal(t, "ABC1D23", r.TruckPlate)
	assert.Equal(t, "XYZ9K87", r.TrailerPlate)

	_, ok = lookup.FindByName(context.Background(), "João")
	assert.False(t, ok, "equality, not substring")

	_, ok = lookup.FindByName(context.Background(), "")
	assert.False(t, ok)
}

func TestFailingSourceDegradesToEmpty(t *testing.T) {
	lookup := NewLookup(failingSource{}, nil)
	ctx := context.Background()

	assert.Nil(t, lookup.Snapshot(ctx))
	assert.Empty(t, slices.Collect(lookup.Search(ctx, "joão")))
	_, ok := lookup.FindByName(ctx, "João Silva")
	assert.False(t, ok)
}

func TestParseWebhookRows(t *testing.T) {
	body := []byte(`[
		{"MOTORISTA": "João Silva", "CAVALO": "ABC1D23", "CARRETA": "XYZ9K87", "DESCRICAO_TRUNCADA": "SCANIA R450", "FROTA": 12},
		{"motorista": "Maria Souza", "cavalo": "JOA4E56", "carreta": null},
		{"CAVALO": "ORF0000"}
	]`)
	records, err := ParseWebhookRows(body)
	require.NoError(t, err)
	require.Len(t, records, 2, "rows without a driver are skipped")

	assert.Equal(t, "João Silva", records[0].DriverName)
	assert.Equal(t, "SCANIA R450", records[0].Description)
	assert.Equal(t, "12", records[0].Extra["FROTA"])
	assert.Equal(t, "Maria Souza", records[1].DriverName)
	assert.Equal(t, "", records[1].TrailerPlate)
	assert.Nil(t, records[1].Extra)

	wrapped, err := ParseWebhookRows([]byte(`{"data":[{"MOTORISTA":"Ana","CAVALO":"A","CARRETA":"B"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "Ana", wrapped[0].DriverName)

	_, err = ParseWebhookRows([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseWebhookRowsKeepsLargeNumbersPlain(t *testing.T) {
	records, err := ParseWebhookRows([]byte(`[{"MOTORISTA": "João Silva", "TELEFONE": 5573999999999, "PESO": 27.5}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5573999999999", records[0].Extra["TELEFONE"])
	assert.Equal(t, "27.5", records[0].Extra["PESO"])
}

func TestWebhookSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"MOTORISTA":"João Silva","CAVALO":"ABC1D23","CARRETA":"XYZ9K87"}]`))
	}))
	defer server.Close()

	lookup := NewLookup(NewWebhookSource(server.URL, server.Client()), nil)
	r, ok := lookup.FindByName(context.Background(), "João Silva")
	require.True(t, ok)
	assert.Equal(t, "ABC1D23", r.TruckPlate)
}

func TestWebhookSourceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow inactive", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewWebhookSource(server.URL, server.Client()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, db.IsTransport(err))
}

func TestPGViewSourceRejectsUnsafeViewName(t *testing.T) {
	_, err := NewPGViewSource(nil, "vw_frota; DROP TABLE loads")
	assert.Error(t, err)
	_, err = NewPGViewSource(nil, "frota.vw_frota")
	assert.NoError(t, err)
}
