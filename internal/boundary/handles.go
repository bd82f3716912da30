package boundary

import (
	"sync"

	"github.com/lingtianyulong/img-proc/internal/processing"
)

// Handle is an opaque token for one live processing context.
// The low 32 bits hold slot index + 1, the high 32 bits the slot generation.
// The zero Handle is never issued.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() (uint32, bool) {
	low := uint32(h)
	if low == 0 {
		return 0, false
	}
	return low - 1, true
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

type slot struct {
	gen  uint32
	ctx  *processing.Context
	busy bool
}

// registry is an arena of slots. A closed slot bumps its generation so
// every handle that referred to it stops resolving.
type registry struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int
}

func (r *registry) insert(ctx *processing.Context) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot{gen: 1})
	}

	s := &r.slots[index]
	s.ctx = ctx
	s.busy = false
	r.live++
	return makeHandle(index, s.gen)
}

// lookup returns the live slot for h. Caller holds r.mu.
func (r *registry) lookup(h Handle) (*slot, error) {
	index, ok := h.index()
	if !ok || int(index) >= len(r.slots) {
		return nil, ErrInvalidHandle
	}
	s := &r.slots[index]
	if s.ctx == nil || s.gen != h.generation() {
		return nil, ErrInvalidHandle
	}
	return s, nil
}

// acquire marks h busy and returns its context with a release func
// that must be called when the operation finishes.
func (r *registry) acquire(h Handle) (*processing.Context, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return nil, nil, err
	}
	if s.busy {
		return nil, nil, ErrHandleBusy
	}
	s.busy = true

	index, _ := h.index()
	done := func() {
		r.mu.Lock()
		r.slots[index].busy = false
		r.mu.Unlock()
	}
	return s.ctx, done, nil
}

// remove invalidates h and returns the context it owned
func (r *registry) remove(h Handle) (*processing.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.busy {
		return nil, ErrHandleBusy
	}

	ctx := s.ctx
	s.ctx = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	index, _ := h.index()
	r.free = append(r.free, index)
	r.live--
	return ctx, nil
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
