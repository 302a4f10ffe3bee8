package scene

import (
	"fmt"
	"sync"
)

// Kind classifies the GPU-class resources a scene owns.
type Kind int

const (
	KindGeometry Kind = iota
	KindMaterial
	KindTexture

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindMaterial:
		return "material"
	case KindTexture:
		return "texture"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Ledger counts live resources so leaks and double releases are observable.
type Ledger struct {
	mu       sync.Mutex
	live     [kindCount]int
	acquired [kindCount]int
	doubles  int
}

func NewLedger() *Ledger { return &Ledger{} }

// Resource is one acquired slot. Release is exactly-once.
type Resource struct {
	ledger   *Ledger
	kind     Kind
	label    string
	released bool
}

// Acquire records a new live resource. A nil ledger hands out untracked
// resources.
func (l *Ledger) Acquire(k Kind, label string) *Resource {
	r := &Resource{ledger: l, kind: k, label: label}
	if l == nil {
		return r
	}
	l.mu.Lock()
	l.live[k]++
	l.acquired[k]++
	l.mu.Unlock()
	return r
}

// Release frees the slot. It reports false, and counts a double release, if
// the resource was already released.
func (r *Resource) Release() bool {
	if r == nil {
		return false
	}
	l := r.ledger
	if l == nil {
		if r.released {
			return false
		}
		r.released = true
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.released {
		l.doubles++
		return false
	}
	r.released = true
	l.live[r.kind]--
	return true
}

func (r *Resource) Released() bool {
	if r == nil {
		return true
	}
	if r.ledger == nil {
		return r.released
	}
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	return r.released
}

func (r *Resource) Label() string { return r.label }

// Live is the number of unreleased resources of kind k.
func (l *Ledger) Live(k Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live[k]
}

// LiveTotal sums Live over every kind.
func (l *Ledger) LiveTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, v := range l.live {
		n += v
	}
	return n
}

// Acquired is the number of resources of kind k ever handed out.
func (l *Ledger) Acquired(k Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired[k]
}

// Doubles counts Release calls on already released resources.
func (l *Ledger) Doubles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doubles
}
