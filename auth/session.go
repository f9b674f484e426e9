package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"cargas/db/db"
	"cargas/libs/logging"
)

const (
	// RefreshMargin is how long before expiry a cached token is replaced.
	RefreshMargin = 5 * time.Minute
	GraphScope    = "https://graph.microsoft.com/.default"
)

// TokenFetcher obtains a fresh token from the identity provider.
type TokenFetcher interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Session holds the server-side service credential. It is created once by
// the process and handed to every component that talks to Graph.
type Session struct {
	fetcher TokenFetcher
	now     func() time.Time
	logger  *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logging.OrNop(logger) }
}

// NewSession wraps an arbitrary fetcher.
func NewSession(fetcher TokenFetcher, opts ...Option) *Session {
	s := &Session{
		fetcher: fetcher,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClientCredentialsSession targets the Azure AD v2 token endpoint of
// tenantID. tokenURL overrides the endpoint when non-empty.
func NewClientCredentialsSession(tenantID, clientID, clientSecret, tokenURL string, opts ...Option) *Session {
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{GraphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return NewSession(cfg, opts...)
}

// AccessToken returns a cached token while it is valid for at least
// RefreshMargin more, and fetches a new one otherwise. Fetch failures are
// returned as *db.AuthError.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(RefreshMargin).Before(s.expiry) {
		return s.token, nil
	}

	s.logger.Debug("refreshing service token")
	tok, err := s.fetcher.Token(ctx)
	if err != nil {
		s.token = ""
		return "", &db.AuthError{Err: err}
	}
	if tok.AccessToken == "" {
		s.token = ""
		return "", &db.AuthError{Err: fmt.Errorf("token endpoint returned an empty access token")}
	}

	s.token = tok.AccessToken
	s.expiry = tok.Expiry
	if s.expiry.IsZero() {
		// no expires_in: treat as short-lived so the next call after the
		// margin refreshes
		s.expiry = s.now().Add(RefreshMargin + time.Minute)
	}
	s.logger.Info("service token refreshed", zap.Time("expiry", s.expiry))
	return s.token, nil
}

// Invalidate drops the cached token, e.g. after the upstream answered 401.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiry = time.Time{}
}

// Transport adds the bearer token to every request.
type Transport struct {
	Session *Session
	Base    http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Session.AccessToken(req.Context())
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}

// Client returns an http.Client that authenticates through s.
func (s *Session) Client() *http.Client {
	return &http.Client{Transport: &Transport{Session: s}}
}
