package sp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"cargas/auth"
	"cargas/config"
	"cargas/db/db"
)

const testSite = "site-1"

type staticToken struct{}

func (staticToken) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}, nil
}

// fakeGraph serves the list item endpoints from memory, two items per
// page.
type fakeGraph struct {
	mu      sync.Mutex
	lists   map[string]map[string]map[string]interface{}
	nextID  int
	patches []map[string]interface{}
	status  int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{lists: make(map[string]map[string]map[string]interface{})}
}

func (g *fakeGraph) seed(list string, fields map[string]interface{}) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insert(list, fields)
}

func (g *fakeGraph) insert(list string, fields map[string]interface{}) string {
	g.nextID++
	id := strconv.Itoa(g.nextID)
	if g.lists[list] == nil {
		g.lists[list] = make(map[string]map[string]interface{})
	}
	g.lists[list][id] = fields
	return id
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if g.status != 0 {
		w.WriteHeader(g.status)
		return
	}
	rest, ok := strings.CutPrefix(r.URL.Path, "/sites/"+testSite+"/lists/")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	parts := strings.Split(rest, "/")
	list := parts[0]
	items := g.lists[list]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		ids := make([]string, 0, len(items))
		for id := range items {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, _ := strconv.Atoi(ids[i])
			b, _ := strconv.Atoi(ids[j])
			return a < b
		})
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		page := map[string]interface{}{}
		var value []Item
		for i := skip; i < len(ids) && i < skip+2; i++ {
			value = append(value, Item{ID: ids[i], Fields: items[ids[i]]})
		}
		page["value"] = value
		if skip+2 < len(ids) {
			page["@odata.nextLink"] = fmt.Sprintf("http://%s%s?expand=fields&skip=%d", r.Host, r.URL.Path, skip+2)
		}
		json.NewEncoder(w).Encode(page)
	case len(parts) == 2 && r.Method == http.MethodPost:
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		id := g.insert(list, body.Fields)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Item{ID: id, Fields: body.Fields})
	case len(parts) == 3 && r.Method == http.MethodGet:
		fields, ok := items[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(Item{ID: parts[2], Fields: fields})
	case len(parts) == 3 && r.Method == http.MethodDelete:
		if _, ok := items[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(items, parts[2])
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 4 && parts[3] == "fields" && r.Method == http.MethodPatch:
		fields, ok := items[parts[2]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var patch map[string]interface{}
		json.NewDecoder(r.Body).Decode(&patch)
		g.patches = append(g.patches, patch)
		for k, v := range patch {
			fields[k] = v
		}
		json.NewEncoder(w).Encode(fields)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupTest(t *testing.T) (*Store, *fakeGraph) {
	t.Helper()
	graph := newFakeGraph()
	srv := httptest.NewServer(graph)
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, testSite, auth.NewSession(staticToken{}), nil)
	return NewStore(client, config.Default().SharePoint.Lists, nil), graph
}

func TestListReferencesFollowsPages(t *testing.T) {
	store, graph := setupTest(t)
	for _, name := range []string{"Ilhéus", "Itabuna", "Uruçuca"} {
		graph.seed("Origens", map[string]interface{}{"Title": name})
	}

	origins, err := store.ListReferences(context.Background(), db.KindOrigin)
	require.NoError(t, err)
	require.Len(t, origins, 3)
	assert.Equal(t, "Ilhéus", origins[0].Name)
	assert.Equal(t, "Uruçuca", origins[2].Name)
}

func TestReferenceCreateAndIdempotentDelete(t *testing.T) {
	store, _ := setupTest(t)
	ctx := context.Background()

	ref := &db.Reference{Name: "Jundiaí"}
	require.NoError(t, store.CreateReference(ctx, db.KindDestination, ref))
	assert.NotEmpty(t, ref.ID)

	require.NoError(t, store.DeleteReference(ctx, db.KindDestination, ref.ID))
	require.NoError(t, store.DeleteReference(ctx, db.KindDestination, ref.ID), "404 on delete is swallowed")

	destinations, err := store.ListReferences(ctx, db.KindDestination)
	require.NoError(t, err)
	assert.Empty(t, destinations)
}

func TestLoadNotesAcceptBothSpellings(t *testing.T) {
	store, graph := setupTest(t)
	graph.seed("Cargas", map[string]interface{}{"Title": "C000001", "Observacao": "plain"})
	graph.seed("Cargas", map[string]interface{}{"Title": "C000002", "Observação": "accented", "DataColeta": "2024-03-01T03:00:00Z", "CavaloConfirmado": true})

	loads, err := store.ListLoads(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "plain", loads[0].Notes)
	assert.Equal(t, "accented", loads[1].Notes)
	assert.Equal(t, "2024-03-01", loads[1].PickupDate)
	assert.True(t, loads[1].HorseConfirmed)
	assert.Equal(t, "C000002", loads[1].ProtocolCode)
}

func TestUpdateLoadPatchesOnlyChangedFields(t *testing.T) {
	store, graph := setupTest(t)
	ctx := context.Background()

	load := &db.Load{
		ProtocolCode:    "C000003",
		OriginName:      "Ilhéus",
		DestinationName: "Jundiaí",
		PickupDate:      "2024-03-01",
		ScheduledTime:   "08:00",
		Product:         db.ProductLicor,
		SystemStatus:    db.DefaultSystemStatus,
	}
	require.NoError(t, store.CreateLoad(ctx, load))

	load.DriverName = "João Silva"
	load.TruckPlate = "ABC1D23"
	require.NoError(t, store.UpdateLoad(ctx, load))

	require.Len(t, graph.patches, 1)
	assert.Equal(t, map[string]interface{}{"Motorista": "João Silva", "Cavalo": "ABC1D23"}, graph.patches[0])

	require.NoError(t, store.UpdateLoad(ctx, load))
	assert.Len(t, graph.patches, 1, "an unchanged load sends no patch")

	got, err := store.GetLoad(ctx, load.ID)
	require.NoError(t, err)
	assert.Equal(t, *load, *got)
}

func TestUpdateMissingItemIsNotFound(t *testing.T) {
	store, _ := setupTest(t)
	ctx := context.Background()

	err := store.UpdateLoad(ctx, &db.Load{ID: "404"})
	assert.True(t, db.IsNotFound(err))
	err = store.UpdateContact(ctx, &db.Contact{ID: "404", DriverName: "x"})
	assert.True(t, db.IsNotFound(err))
}

func TestRestrictionEndDateCleared(t *testing.T) {
	store, graph := setupTest(t)
	ctx := context.Background()

	r := &db.Restriction{DriverName: "Maria", StartDate: "2024-03-01", EndDate: "2024-03-05", Reason: "Férias"}
	require.NoError(t, store.CreateRestriction(ctx, r))

	r.EndDate = ""
	require.NoError(t, store.UpdateRestriction(ctx, r))
	require.Len(t, graph.patches, 1)
	v, ok := graph.patches[0]["DataFim"]
	assert.True(t, ok)
	assert.Nil(t, v)

	got, err := store.GetRestriction(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.EndDate)
}

func TestServerErrorIsTransport(t *testing.T) {
	store, graph := setupTest(t)
	graph.status = http.StatusBadGateway

	_, err := store.ListContacts(context.Background())
	require.Error(t, err)
	assert.True(t, db.IsTransport(err))
}

func TestClientCredentialsEndToEnd(t *testing.T) {
	var tokenCalls int
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()
	graph := newFakeGraph()
	graphSrv := httptest.NewServer(graph)
	defer graphSrv.Close()

	session := auth.NewClientCredentialsSession("tenant", "client", "secret", tokenSrv.URL)
	store := NewStore(NewClient(graphSrv.URL, testSite, session, nil), config.Default().SharePoint.Lists, nil)

	ctx := context.Background()
	require.NoError(t, store.CreateContact(ctx, &db.Contact{DriverName: "João Silva", Phone: "5573999999999"}))
	contacts, err := store.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "5573999999999", contacts[0].Phone)
	assert.Equal(t, 1, tokenCalls, "token is cached across requests")
}

func TestTokenFailureIsAuthError(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer tokenSrv.Close()

	session := auth.NewClientCredentialsSession("tenant", "client", "bad", tokenSrv.URL)
	store := NewStore(NewClient("http://127.0.0.1:1", testSite, session, nil), config.Default().SharePoint.Lists, nil)

	_, err := store.ListLoads(context.Background())
	require.Error(t, err)
	assert.True(t, db.IsAuth(err))
	assert.False(t, db.IsTransport(err))
}

func TestForward(t *testing.T) {
	graph := newFakeGraph()
	srv := httptest.NewServer(graph)
	defer srv.Close()
	client := NewClient(srv.URL, testSite, auth.NewSession(staticToken{}), nil)
	id := graph.seed("Cargas", map[string]interface{}{"Title": "C000009"})
	ctx := context.Background()

	res, err := client.Forward(ctx, http.MethodPut, "Cargas", id, []byte(`{"Motorista":"Ana"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	res, err = client.Forward(ctx, http.MethodGet, "Cargas", id, nil)
	require.NoError(t, err)
	var item Item
	require.NoError(t, json.Unmarshal(res.Body, &item))
	assert.Equal(t, "Ana", item.Fields["Motorista"])

	res, err = client.Forward(ctx, http.MethodDelete, "Cargas", "999", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status, "the proxy relays upstream status")

	_, err = client.Forward(ctx, http.MethodPut, "Cargas", "", nil)
	assert.True(t, db.IsValidation(err))
}

func TestListResolver(t *testing.T) {
	cfg := config.Default().SharePoint
	cfg.Extra = map[string]string{"frota": "FrotaManual"}
	r := NewListResolver(cfg)

	list, ok := r.Resolve("loads")
	assert.True(t, ok)
	assert.Equal(t, "Cargas", list)
	list, ok = r.Resolve("cargas")
	assert.True(t, ok)
	assert.Equal(t, "Cargas", list)
	list, ok = r.Resolve("Frota")
	assert.True(t, ok)
	assert.Equal(t, "FrotaManual", list)
	_, ok = r.Resolve("../drives")
	assert.False(t, ok)
}
