package tabs

// Handle identifies a tab across its lifetime. The generation guards against
// slot reuse: a handle whose generation no longer matches its slot is stale
// and resolves to nothing.
type Handle struct {
	Slot       uint32
	Generation uint32
}

type slot struct {
	generation uint32
	tab        *Tab
}

// arena is a generation-counted slot store. Freed slots are recycled most
// recently freed first, with the generation bumped at free time so stale
// handles miss.
type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) allocate() Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return Handle{Slot: idx, Generation: a.slots[idx].generation}
	}

	a.slots = append(a.slots, slot{})
	return Handle{Slot: uint32(len(a.slots) - 1)}
}

// insert installs tab into the slot named by h. The handle must come from the
// paired allocate call; anything else is ignored.
func (a *arena) insert(h Handle, tab Tab) {
	if int(h.Slot) >= len(a.slots) {
		return
	}

	s := &a.slots[h.Slot]
	if s.generation != h.Generation {
		return
	}

	s.tab = &tab
}

func (a *arena) get(h Handle) (*Tab, bool) {
	if int(h.Slot) >= len(a.slots) {
		return nil, false
	}

	s := &a.slots[h.Slot]
	if s.generation != h.Generation || s.tab == nil {
		return nil, false
	}

	return s.tab, true
}

// remove clears the slot, bumps its generation, and recycles the index.
// The removed payload is returned so the caller can run teardown.
func (a *arena) remove(h Handle) (Tab, bool) {
	tab, ok := a.get(h)
	if !ok {
		return Tab{}, false
	}

	removed := *tab
	s := &a.slots[h.Slot]
	s.tab = nil
	s.generation++
	a.free = append(a.free, h.Slot)
	return removed, true
}

// len reports how many slots currently hold a tab.
func (a *arena) len() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].tab != nil {
			n++
		}
	}
	return n
}
