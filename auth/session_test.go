package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"cargas/db/db"
)

type fakeFetcher struct {
	calls  int
	expiry time.Time
	err    error
}

func (f *fakeFetcher) Token(ctx context.Context) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{AccessToken: "tok", Expiry: f.expiry}, nil
}

func TestAccessTokenIsCachedUntilMargin(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{expiry: now.Add(time.Hour)}
	session := NewSession(fetcher, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tok, err := session.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	}
	assert.Equal(t, 1, fetcher.calls)

	// inside the 5 minute margin: refresh early
	now = now.Add(56 * time.Minute)
	_, err := session.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestAccessTokenFailureIsAuthError(t *testing.T) {
	session := NewSession(&fakeFetcher{err: errors.New("invalid_client")})
	_, err := session.AccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, db.IsAuth(err))
	assert.False(t, db.IsTransport(err))
}

func TestInvalidateForcesRefresh(t *testing.T) {
	fetcher := &fakeFetcher{expiry: time.Now().Add(time.Hour)}
	session := NewSession(fetcher)
	ctx := context.Background()

	_, err := session.AccessToken(ctx)
	require.NoError(t, err)
	session.Invalidate()
	_, err = session.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestClientCredentialsAgainstTokenEndpoint(t *testing.T) {
	var tokenCalls int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "app", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "graph-token",
			"token_type":   "Bearer",
			"expires_in":   3599,
		})
	}))
	defer tokenServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer graph-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	session := NewClientCredentialsSession("tenant", "app", "secret", tokenServer.URL)
	client := session.Client()
	for i := 0; i < 2; i++ {
		resp, err := client.Get(api.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestClientSurfacesAuthError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer tokenServer.Close()

	session := NewClientCredentialsSession("tenant", "app", "wrong", tokenServer.URL)
	_, err := session.Client().Get("http://127.0.0.1:1/never")
	require.Error(t, err)
	assert.True(t, db.IsAuth(err))
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestTransportClosesBodyWhenTokenFails(t *testing.T) {
	session := NewSession(&fakeFetcher{err: errors.New("invalid_client")})
	body := &closeTracker{Reader: strings.NewReader(`{"fields":{}}`)}
	req, err := http.NewRequest(http.MethodPost, "http://127.0.0.1:1/items", body)
	require.NoError(t, err)

	_, err = (&Transport{Session: session}).RoundTrip(req)
	require.Error(t, err)
	assert.True(t, db.IsAuth(err))
	assert.True(t, body.closed)
}
