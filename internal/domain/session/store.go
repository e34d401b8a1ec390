package session

import (
	"context"
	"errors"
	"sync"

	"spareparts/internal/core/apperror"
	"spareparts/internal/core/token"
	"spareparts/pkg/logger"
)

// Store holds the signed-in user and the selected station.
//
// The token and the user are kept consistent: after FetchMe either both are
// present or the token has been cleared.
type Store struct {
	api    API
	tokens *token.Holder
	log    *logger.Logger

	mu       sync.RWMutex
	user     *User
	selected string // "" means no station selected
}

// NewStore creates a signed-out Store. tokens is the same Holder the request
// pipeline reads.
func NewStore(api API, tokens *token.Holder, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		api:    api,
		tokens: tokens,
		log:    log.WithComponent("session_store"),
	}
}

// FetchMe refreshes the user from the identity endpoint. Without a stored
// token it fails with NO_CREDENTIALS and makes no call. Any failure clears
// the token.
func (s *Store) FetchMe(ctx context.Context) (*User, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, apperror.NewNoCredentials()
	}

	u, err := s.api.Me(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warnw("failed to fetch user info", "error", err)
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.log.WithContext(ctx).Errorw("failed to clear token", "error", cerr)
		}
		return nil, err
	}

	s.SetUser(*u)
	return s.User(), nil
}

// Login exchanges credentials for a token, persists it, then loads the
// profile through FetchMe.
func (s *Store) Login(ctx context.Context, creds Credentials) (*User, error) {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		s.log.WithContext(ctx).Warnw("login failed", "username", creds.Username, "error", err)
		return nil, err
	}
	if res == nil || res.Access == "" {
		return nil, apperror.NewDecode("login response", errors.New("no access token"))
	}

	if err := s.tokens.Set(ctx, res.Access); err != nil {
		return nil, err
	}
	return s.FetchMe(ctx)
}

// Logout tells the backend (best effort) and then always drops the user,
// the selected station and the token. Only a failure to clear local storage
// is returned.
func (s *Store) Logout(ctx context.Context) (err error) {
	defer func() {
		s.mu.Lock()
		s.user = nil
		s.selected = ""
		s.mu.Unlock()
		err = s.tokens.Clear(ctx)
	}()

	if lerr := s.api.Logout(ctx); lerr != nil {
		s.log.WithContext(ctx).Warnw("logout error", "error", lerr)
	}
	return nil
}

// Bootstrap restores the session at application start: it refreshes the
// user when a token is stored and is a no-op otherwise.
func (s *Store) Bootstrap(ctx context.Context) (*User, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil || tok == "" {
		return nil, err
	}
	return s.FetchMe(ctx)
}

// SetUser replaces the user. The selected station defaults to the user's
// site when none is selected yet.
func (s *Store) SetUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	if s.selected == "" {
		s.selected = u.Site
	}
}

// SetSelectedStation overwrites the selected station.
func (s *Store) SetSelectedStation(station string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = station
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SelectedStation returns the selected station, "" when none.
func (s *Store) SelectedStation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// CurrentViewType is ViewOwn when a user with a site is signed in and that
// site is selected, ViewOther otherwise.
func (s *Store) CurrentViewType() ViewType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user != nil && s.user.Site != "" && s.selected == s.user.Site {
		return ViewOwn
	}
	return ViewOther
}

// TokenInfo inspects the stored token. ok is false when no token is stored.
func (s *Store) TokenInfo(ctx context.Context) (info token.Info, ok bool, err error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil || tok == "" {
		return token.Info{}, false, err
	}
	info, err = token.Inspect(tok)
	if err != nil {
		return token.Info{}, true, err
	}
	return info, true, nil
}
