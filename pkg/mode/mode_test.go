package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type flag struct {
	guest bool
	reads int
}

func (f *flag) IsGuest() bool {
	f.reads++
	return f.guest
}

func TestSessionSelectorFollowsFlag(t *testing.T) {
	f := &flag{}
	s := NewSessionSelector(f)

	assert.Equal(t, Remote, s.CurrentMode())
	f.guest = true
	assert.Equal(t, Local, s.CurrentMode())
	f.guest = false
	assert.Equal(t, Remote, s.CurrentMode())
	assert.Equal(t, 3, f.reads, "the flag is read on every call")
}

func TestFixed(t *testing.T) {
	assert.Equal(t, Local, Fixed(Local).CurrentMode())
	assert.Equal(t, Remote, Fixed(Remote).CurrentMode())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "remote", Remote.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
