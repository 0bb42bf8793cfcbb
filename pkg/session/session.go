// Package session holds the persisted state of one client session: the guest
// flag, the signed-in user and the bearer token used against the remote
// service. Nothing is cached in memory; every read goes to storage so a change
// made through another Session value, or another process, is seen immediately.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/storage"
)

const (
	UserKey  = "user"
	TokenKey = "token"
	GuestKey = "isGuest"
)

// ErrNoToken is returned by Token when the session is not signed in.
var ErrNoToken = errors.New("session has no access token")

// User is the principal the remote service authenticated.
type User struct {
	ID    model.ID `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
}

// Revoker invalidates the session's token on the remote side.
type Revoker interface {
	Logout(ctx context.Context) error
}

type Option func(*Session)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

type Session struct {
	store  storage.Storage
	logger *slog.Logger
}

func New(store storage.Storage, opts ...Option) *Session {
	s := &Session{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGuest switches the session to guest mode. Any signed-in identity is kept
// so ending the session still revokes it.
func (s *Session) StartGuest() error {
	if err := s.store.Set(GuestKey, []byte("true")); err != nil {
		return fmt.Errorf("session: start guest: %w", err)
	}
	return nil
}

// SignIn stores the user and token and leaves guest mode.
func (s *Session) SignIn(user User, token string) error {
	if token == "" {
		return fmt.Errorf("session: sign in: %w", ErrNoToken)
	}
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := s.store.Set(UserKey, b); err != nil {
		return fmt.Errorf("session: sign in: %w", err)
	}
	if err := s.store.Set(TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("session: sign in: %w", err)
	}
	if err := s.store.Remove(GuestKey); err != nil {
		return fmt.Errorf("session: sign in: %w", err)
	}
	return nil
}

// End logs out of the remote service when a token is present and then clears
// every session key. A failed remote logout is logged and does not stop the
// local cleanup.
func (s *Session) End(ctx context.Context, r Revoker) error {
	if r != nil && s.IsAuthenticated() {
		if err := r.Logout(ctx); err != nil {
			s.logger.Error("logout failed", "error", err)
		}
	}

	var errs []error
	for _, key := range []string{UserKey, TokenKey, GuestKey} {
		if err := s.store.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("session: end: %w", err)
	}
	return nil
}

// IsGuest reads the persisted guest flag. An unreadable flag counts as not set.
func (s *Session) IsGuest() bool {
	v, ok, err := s.store.Get(GuestKey)
	if err != nil {
		s.logger.Warn("could not read guest flag", "error", err)
		return false
	}
	return ok && string(v) == "true"
}

func (s *Session) IsAuthenticated() bool {
	tok, err := s.AccessToken()
	return err == nil && tok != ""
}

// AccessToken returns the stored bearer token, or "" when signed out.
func (s *Session) AccessToken() (string, error) {
	v, ok, err := s.store.Get(TokenKey)
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(v), nil
}

// User returns the signed-in user, or nil when there is none or the stored
// record cannot be decoded.
func (s *Session) User() (*User, error) {
	v, ok, err := s.store.Get(UserKey)
	if err != nil {
		return nil, fmt.Errorf("session: read user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal(v, &u); err != nil {
		s.logger.Warn("discarding unreadable user record", "error", err)
		return nil, nil
	}
	return &u, nil
}

// Token implements oauth2.TokenSource. It is consulted on every outgoing
// request, so signing in or out takes effect without rebuilding clients.
func (s *Session) Token() (*oauth2.Token, error) {
	tok, err := s.AccessToken()
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
