package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesRoundTrip(t *testing.T) {
	s := NewFiles(memfs.New(), "state")

	_, ok, err := s.Get("guestTasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("guestTasks", []byte(`[]`)))
	got, ok, err := s.Get("guestTasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Set("guestTasks", []byte(`[{"id":"a"}]`)))
	got, _, err = s.Get("guestTasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, s.Remove("guestTasks"))
	_, ok, err = s.Get("guestTasks")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilesRemoveMissing(t *testing.T) {
	s := NewMemory()
	assert.NoError(t, s.Remove("nothing"))
}

func TestFilesKeysAreIsolated(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set("token", []byte("abc")))
	require.NoError(t, s.Set("isGuest", []byte("true")))

	v, _, err := s.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestFilesRejectsBadKeys(t *testing.T) {
	s := NewMemory()
	for _, key := range []string{"", "..", "a/b", "../escape"} {
		err := s.Set(key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFilesOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := NewOSFiles(dir)
	require.NoError(t, s.Set("user", []byte(`{"name":"ada"}`)))

	b, err := os.ReadFile(dir + "/user.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"ada"}`, string(b))
}

// brokenFS fails every write so the ErrIO mapping can be observed.
type brokenFS struct {
	billy.Filesystem
}

func (brokenFS) OpenFile(string, int, os.FileMode) (billy.File, error) {
	return nil, errors.New("quota exceeded")
}

func TestFilesWrapsIOErrors(t *testing.T) {
	s := NewFiles(brokenFS{memfs.New()}, "")
	err := s.Set("guestTasks", []byte(`[]`))
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "quota exceeded")
}
