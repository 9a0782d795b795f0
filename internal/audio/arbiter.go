package audio

import (
	"sync"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
)

// Arbiter grants exclusive use of the microphone to one owner at a time.
type Arbiter struct {
	mu     sync.Mutex
	holder string
}

// NewArbiter creates an arbiter with no holder.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// SharedArbiter is the process-wide microphone lease.
var SharedArbiter = NewArbiter()

// Acquire grants the lease to owner. Re-acquiring an owned lease succeeds.
func (a *Arbiter) Acquire(owner string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.holder != "" && a.holder != owner {
		return errors.New(nil).
			Component("audio").
			Category(errors.CategoryState).
			Context("holder", a.holder).
			Context("error", "microphone is in use by another recording").
			Build()
	}
	a.holder = owner
	return nil
}

// Release gives the lease back if owner holds it.
func (a *Arbiter) Release(owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder == owner {
		a.holder = ""
	}
}

// Holder returns the current lease owner, or "" when free.
func (a *Arbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}
