// Package mode decides which backend is authoritative for the current session.
package mode

type Mode int

const (
	Remote Mode = iota
	Local
)

func (m Mode) String() string {
	switch m {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Selector reports the current mode. Implementations must read the underlying
// flag on every call; callers rely on a flag change being visible to the very
// next operation.
type Selector interface {
	CurrentMode() Mode
}

// GuestFlag is the session state a Selector is derived from.
type GuestFlag interface {
	IsGuest() bool
}

// SessionSelector selects Local while the session's guest flag is set.
type SessionSelector struct {
	flag GuestFlag
}

func NewSessionSelector(flag GuestFlag) *SessionSelector {
	return &SessionSelector{flag: flag}
}

func (s *SessionSelector) CurrentMode() Mode {
	if s.flag.IsGuest() {
		return Local
	}
	return Remote
}

// Fixed always reports the same mode.
type Fixed Mode

func (f Fixed) CurrentMode() Mode { return Mode(f) }
