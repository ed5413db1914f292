package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SignInsAllowed uint64
	SignInsRefused uint64
	UsersCreated   uint64
	UsersUpdated   uint64
	UsersDeleted   uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	signInsAllowed uint64
	signInsRefused uint64
	usersCreated   uint64
	usersUpdated   uint64
	usersDeleted   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SignInsAllowed: atomic.LoadUint64(&m.signInsAllowed),
		SignInsRefused: atomic.LoadUint64(&m.signInsRefused),
		UsersCreated:   atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:   atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:   atomic.LoadUint64(&m.usersDeleted),
	}
}

// IncSignInAllowed increments the allowed sign-in counter.
func (m *InMemoryRecorder) IncSignInAllowed() {
	atomic.AddUint64(&m.signInsAllowed, 1)
}

// IncSignInRefused increments the refused sign-in counter.
func (m *InMemoryRecorder) IncSignInRefused() {
	atomic.AddUint64(&m.signInsRefused, 1)
}

// IncUserCreated increments the user creation counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments the user update counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments the user deletion counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}
