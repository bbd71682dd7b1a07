package depot

import "fmt"

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index, id.Generation)
}

// ID returns the immutable identity of the entity
func (e *Entity) ID() EntityID {
	return e.id
}

func (e *Entity) World() *World {
	return e.world
}

// Archetype returns the archetype the entity currently belongs to, or nil
func (e *Entity) Archetype() *Archetype {
	return e.currentArchetype
}

func (e *Entity) CurrentArchetypeID() ArchetypeID {
	return e.currentArchetypeID
}

func (e *Entity) PreviousArchetypeID() ArchetypeID {
	return e.previousArchetypeID
}

// Index is the slot of the entity inside its archetype's dense member array.
// The value is stale while the archetype is Sparse.
func (e *Entity) Index() int {
	return e.indexInCurrentArchetype
}

// Dirty reports whether a structural change for the entity is queued
func (e *Entity) Dirty() bool {
	return e.dirty
}

func (e *Entity) Disposed() bool {
	return e.disposed
}

// Valid reports whether the handle still names a live entity of its world
func (e *Entity) Valid() bool {
	if e == nil || e.disposed || e.world == nil {
		return false
	}
	current, err := e.world.Entity(e.id)
	return err == nil && current == e
}

// Move transfers the entity to dst, see World.Move
func (e *Entity) Move(dst *Archetype) error {
	return e.world.Move(e, dst)
}

// EnqueueMove transfers the entity now, or once the world unlocks
func (e *Entity) EnqueueMove(dst *Archetype) error {
	return e.world.EnqueueMove(e, dst)
}
