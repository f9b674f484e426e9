package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"cargas/auth"
	"cargas/config"
	"cargas/db/mem"
	"cargas/db/sp"
	"cargas/syncer"
)

type staticToken struct{}

func (staticToken) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}, nil
}

func TestProxyForwardsConfiguredLists(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotMethod, gotPath, gotAuth, gotBody string
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"7","fields":{"Title":"C000007"}}`))
	}))
	defer graph.Close()

	cfg := config.Default().SharePoint
	client := sp.NewClient(graph.URL, "site-1", auth.NewSession(staticToken{}), nil)
	store := mem.NewInMemoryStore()
	router := NewRouter(ServiceConfig{IsDev: true}, Deps{
		Synchronizer: syncer.New(store, nil),
		Store:        store,
		Proxy:        client,
		Lists:        sp.NewListResolver(cfg),
	})

	req := httptest.NewRequest(http.MethodPut, "/api/sp/loads/7", strings.NewReader(`{"Motorista":"Ana"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/sites/site-1/lists/Cargas/items/7/fields", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.JSONEq(t, `{"Motorista":"Ana"}`, gotBody)
	assert.JSONEq(t, `{"id":"7","fields":{"Title":"C000007"}}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/sp/segredos", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
