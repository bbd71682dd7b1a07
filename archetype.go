package depot

import (
	"iter"

	"github.com/TheBitDrifter/mask"
)

func newArchetype(w *World, id ArchetypeID, signature mask.Mask) *Archetype {
	return &Archetype{
		id:        id,
		signature: signature,
		members:   newMembership(),
		filters:   make(map[*Filter]struct{}),
		world:     w,
	}
}

// activate readies a new or pooled archetype for a signature
func (a *Archetype) activate(w *World, id ArchetypeID, signature mask.Mask) {
	a.id = id
	a.signature = signature
	a.state = archetypeLive
	a.length = 0
	a.world = w
	a.members.reset()
	if a.filters == nil {
		a.filters = make(map[*Filter]struct{})
	}
}

func (a *Archetype) ID() ArchetypeID {
	return a.id
}

// Mask returns the component signature of the archetype
func (a *Archetype) Mask() mask.Mask {
	return a.signature
}

// Len is the current member count
func (a *Archetype) Len() int {
	return a.length
}

func (a *Archetype) Mode() MembershipMode {
	return a.members.mode
}

func (a *Archetype) Pooled() bool {
	return a.state == archetypePooled
}

func (a *Archetype) Disposed() bool {
	return a.state == archetypeDisposed
}

// Contains reports whether the entity is currently a member
func (a *Archetype) Contains(e *Entity) bool {
	if a.state != archetypeLive {
		return false
	}
	return a.members.has(e.id.Index, e.indexInCurrentArchetype)
}

// Members yields member internal ids: slot order when Dense, ascending when Sparse
func (a *Archetype) Members() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for id, pos, ok := a.members.next(0); ok; id, pos, ok = a.members.next(pos) {
			if !yield(id) {
				return
			}
		}
	}
}

// Add makes the entity a member and its current archetype. In Dense mode the
// entity's cached slot is set to the position it was appended at. An entity
// still held by another archetype is rejected.
func (a *Archetype) Add(e *Entity) error {
	if err := a.checkLive("add", e); err != nil {
		return err
	}
	if a.members.has(e.id.Index, e.indexInCurrentArchetype) {
		return violation("add", a, e, "entity is already a member")
	}
	if e.currentArchetype != nil && e.currentArchetype != a {
		return violation("add", a, e, "entity belongs to another archetype")
	}
	a.length++
	if slot := a.members.insert(e.id.Index); slot >= 0 {
		e.indexInCurrentArchetype = slot
	}
	e.currentArchetypeID = a.id
	e.currentArchetype = a
	return nil
}

// Remove drops the entity, leaving it without a current archetype. In Dense
// mode the last member is swapped into the vacated slot and its cached slot
// updated. Removing the last member pools the archetype before Remove returns.
func (a *Archetype) Remove(e *Entity) error {
	if err := a.checkLive("remove", e); err != nil {
		return err
	}
	if !a.members.has(e.id.Index, e.indexInCurrentArchetype) {
		return violation("remove", a, e, "entity is not a member")
	}
	a.length--

	if a.members.mode == Dense {
		slot := e.indexInCurrentArchetype
		if movedID, moved := a.members.swapRemove(slot); moved {
			a.world.entities[movedID].indexInCurrentArchetype = slot
		}
	} else {
		a.members.unset(e.id.Index)
	}
	e.previousArchetypeID = a.id
	e.currentArchetypeID = noArchetype
	e.currentArchetype = nil

	if a.length == 0 {
		a.pool()
	}
	return nil
}

// Densify switches a Sparse archetype to Dense, assigning every member the
// slot it is packed into
func (a *Archetype) Densify() error {
	if err := a.checkLive("densify", nil); err != nil {
		return err
	}
	if a.members.mode == Dense {
		return nil
	}
	for slot, id := range a.members.densify() {
		a.world.entities[id].indexInCurrentArchetype = slot
	}
	a.world.log.Debug().
		Int32("archetype_id", int32(a.id)).
		Int("length", a.length).
		Msg("archetype densified")
	return nil
}

func (a *Archetype) pool() {
	w := a.world
	delete(w.archetypes, a.id)
	if id, ok := w.idsBySignature[a.signature]; ok && id == a.id {
		delete(w.idsBySignature, a.signature)
	}
	w.removedArchetypes = append(w.removedArchetypes, a)
	w.archetypesCount--

	a.state = archetypePooled
	a.members.reset()

	w.log.Debug().
		Int32("archetype_id", int32(a.id)).
		Int("filters", len(a.filters)).
		Msg("archetype pooled")
}

// Dispose resets the archetype for good. The object must not be used afterwards.
func (a *Archetype) Dispose() {
	a.state = archetypeDisposed
	a.id = disposedArchetype
	a.length = -1
	a.world = nil
	a.members.release()
	clear(a.filters)
	a.filters = nil
}

// AddFilter subscribes f. Subscribing twice is a no-op.
func (a *Archetype) AddFilter(f *Filter) {
	if a.filters == nil {
		return
	}
	a.filters[f] = struct{}{}
}

// RemoveFilter unsubscribes f. Unknown filters are ignored.
func (a *Archetype) RemoveFilter(f *Filter) {
	delete(a.filters, f)
}

func (a *Archetype) HasFilter(f *Filter) bool {
	_, ok := a.filters[f]
	return ok
}

func (a *Archetype) FilterCount() int {
	return len(a.filters)
}

// Filters yields the currently subscribed filters in no particular order
func (a *Archetype) Filters() iter.Seq[*Filter] {
	return func(yield func(*Filter) bool) {
		for f := range a.filters {
			if !yield(f) {
				return
			}
		}
	}
}

func (a *Archetype) checkLive(op string, e *Entity) error {
	switch a.state {
	case archetypePooled:
		return violation(op, a, e, "archetype is pooled")
	case archetypeDisposed:
		return violation(op, a, e, "archetype is disposed")
	}
	if e != nil && e.world != a.world {
		return violation(op, a, e, "entity belongs to another world")
	}
	return nil
}
