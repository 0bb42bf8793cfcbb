package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksync/pkg/storage"
)

type fakeRevoker struct {
	calls int
	err   error
}

func (f *fakeRevoker) Logout(context.Context) error {
	f.calls++
	return f.err
}

func TestNewSessionIsSignedOut(t *testing.T) {
	s := New(storage.NewMemory())

	assert.False(t, s.IsGuest())
	assert.False(t, s.IsAuthenticated())

	u, err := s.User()
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestGuestThenSignIn(t *testing.T) {
	s := New(storage.NewMemory())

	require.NoError(t, s.StartGuest())
	assert.True(t, s.IsGuest())

	require.NoError(t, s.SignIn(User{ID: "7", Name: "Ada", Email: "ada@example.com"}, "secret"))
	assert.False(t, s.IsGuest(), "signing in leaves guest mode")
	assert.True(t, s.IsAuthenticated())

	u, err := s.User()
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u.Name)

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "secret", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestSignInRequiresToken(t *testing.T) {
	s := New(storage.NewMemory())
	assert.ErrorIs(t, s.SignIn(User{Name: "x"}, ""), ErrNoToken)
}

func TestStateIsReadThroughStorage(t *testing.T) {
	store := storage.NewMemory()
	a := New(store)
	b := New(store)

	require.NoError(t, a.StartGuest())
	assert.True(t, b.IsGuest())

	require.NoError(t, store.Remove(GuestKey))
	assert.False(t, a.IsGuest())
}

func TestEndRevokesAndClears(t *testing.T) {
	s := New(storage.NewMemory())
	require.NoError(t, s.SignIn(User{Name: "Ada"}, "secret"))
	require.NoError(t, s.StartGuest())

	r := &fakeRevoker{}
	require.NoError(t, s.End(context.Background(), r))

	assert.Equal(t, 1, r.calls)
	assert.False(t, s.IsGuest())
	assert.False(t, s.IsAuthenticated())
	u, err := s.User()
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestEndClearsEvenWhenLogoutFails(t *testing.T) {
	s := New(storage.NewMemory())
	require.NoError(t, s.SignIn(User{Name: "Ada"}, "secret"))

	r := &fakeRevoker{err: errors.New("network down")}
	require.NoError(t, s.End(context.Background(), r))
	assert.False(t, s.IsAuthenticated())
}

func TestEndSkipsLogoutForGuests(t *testing.T) {
	s := New(storage.NewMemory())
	require.NoError(t, s.StartGuest())

	r := &fakeRevoker{}
	require.NoError(t, s.End(context.Background(), r))
	assert.Zero(t, r.calls)
	assert.False(t, s.IsGuest())
}

func TestUnreadableUserIsIgnored(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(UserKey, []byte("{not json")))

	u, err := New(store).User()
	require.NoError(t, err)
	assert.Nil(t, u)
}
