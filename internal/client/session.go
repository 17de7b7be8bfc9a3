package client

import (
	"context"
	"errors"
	"sync"
)

// Session tracks whether a token is stored. Its state is recomputed from
// the TokenStore on Refresh, so another process writing the same store is
// picked up on the next Refresh.
type Session struct {
	api    *API
	tokens TokenStore

	mu       sync.RWMutex
	loggedIn bool
}

// NewSession derives the initial state from tokens.
func NewSession(api *API, tokens TokenStore) *Session {
	s := &Session{api: api, tokens: tokens}
	s.Refresh()
	return s
}

// Refresh recomputes the logged-in state and returns it.
func (s *Session) Refresh() bool {
	token, err := s.tokens.Load()
	loggedIn := err == nil && token != ""

	s.mu.Lock()
	s.loggedIn = loggedIn
	s.mu.Unlock()
	return loggedIn
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Signup registers and stores the issued token.
func (s *Session) Signup(ctx context.Context, name, email, password string) (*Account, error) {
	token, account, err := s.api.Signup(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return account, s.store(token)
}

// Login authenticates and stores the issued token.
func (s *Session) Login(ctx context.Context, email, password string) (*Account, error) {
	token, account, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return account, s.store(token)
}

// Logout revokes the token on the server and discards it locally. The local
// token is discarded even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if discardErr := s.Discard(); discardErr != nil {
		return discardErr
	}
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// Discard drops the stored token without contacting the server.
func (s *Session) Discard() error {
	err := s.tokens.Clear()
	s.Refresh()
	return err
}

func (s *Session) store(token string) error {
	if err := s.tokens.Save(token); err != nil {
		return err
	}
	s.Refresh()
	return nil
}
