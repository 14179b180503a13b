package main

import "errors"

// ErrStaleHandle is returned when a handle no longer names a live entity
var ErrStaleHandle = errors.New("stale entity handle")

// Handle is a weak, generation-checked reference to an entity in the arena.
// The zero Handle never resolves.
type Handle struct {
	Index uint32 `json:"i" msgpack:"i"`
	Gen   uint32 `json:"g" msgpack:"g"`
}

// IsZero reports whether h is the empty handle
func (h Handle) IsZero() bool {
	return h.Gen == 0
}

type slot struct {
	gen    uint32
	entity *Entity
}

// arena owns every entity; handles index into it
type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) insert(e *Entity) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[idx]
	s.gen++
	s.entity = e
	h := Handle{Index: idx, Gen: s.gen}
	e.ID = h
	return h
}

// get resolves h, returning nil for stale or zero handles
func (a *arena) get(h Handle) *Entity {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.Index]
	if s.gen != h.Gen {
		return nil
	}
	return s.entity
}

// remove frees the slot; outstanding handles to it go stale
func (a *arena) remove(h Handle) bool {
	if a.get(h) == nil {
		return false
	}
	s := &a.slots[h.Index]
	s.entity = nil
	// bump so the old generation can never match again
	s.gen++
	a.free = append(a.free, h.Index)
	return true
}
