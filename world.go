package depot

import (
	"sync/atomic"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"github.com/rotisserie/eris"
)

var worldCounter atomic.Int32

func newWorld(schema table.Schema) *World {
	return &World{
		schema: schema,
		log: Config.logger.With().
			Str("component", "depot").
			Int32("world", worldCounter.Add(1)).
			Logger(),
		archetypes:      make(map[ArchetypeID]*Archetype),
		idsBySignature:  make(map[mask.Mask]ArchetypeID),
		nextArchetypeID: 1,
		opQueue:         newOpQueue(),
	}
}

// NewEntity allocates an entity that belongs to no archetype yet
func (w *World) NewEntity() *Entity {
	if n := len(w.freeEntityIDs); n > 0 {
		index := w.freeEntityIDs[n-1]
		w.freeEntityIDs = w.freeEntityIDs[:n-1]
		en := &Entity{
			world: w,
			id:    EntityID{Index: index, Generation: w.entities[index].id.Generation + 1},
		}
		w.entities[index] = en
		return en
	}
	en := &Entity{
		world: w,
		id:    EntityID{Index: uint32(len(w.entities))},
	}
	w.entities = append(w.entities, en)
	return en
}

// NewEntities creates n entities and places them in the archetype of the
// given component set. Without components they belong to no archetype. An
// archetype left empty because n is zero is pooled right away.
func (w *World) NewEntities(n int, components ...Component) ([]*Entity, error) {
	if w.Locked() {
		return nil, LockedWorldError{}
	}
	var arch *Archetype
	if len(components) > 0 {
		var err error
		arch, err = w.NewOrExistingArchetype(components...)
		if err != nil {
			return nil, err
		}
		if n <= 0 && arch.length == 0 {
			arch.pool()
		}
	}
	entities := make([]*Entity, max(n, 0))
	for i := range entities {
		en := w.NewEntity()
		if arch != nil {
			if err := arch.Add(en); err != nil {
				return nil, err
			}
		}
		entities[i] = en
	}
	return entities, nil
}

// EnqueueNewEntities creates the entities now, or once the world unlocks
func (w *World) EnqueueNewEntities(n int, components ...Component) error {
	if !w.Locked() {
		if _, err := w.NewEntities(n, components...); err != nil {
			return eris.Wrap(err, "failed to create entities directly")
		}
		return nil
	}
	w.opQueue.enqueueOp(operation{
		typ:    opCreate,
		amount: n,
		comps:  components,
	})
	return nil
}

// Entity resolves an id to its live handle
func (w *World) Entity(id EntityID) (*Entity, error) {
	if int(id.Index) >= len(w.entities) {
		return nil, EntityNotFoundError{ID: id}
	}
	en := w.entities[id.Index]
	if en == nil || en.disposed || en.id != id {
		return nil, EntityNotFoundError{ID: id}
	}
	return en, nil
}

// EntitiesCount returns the number of live entities
func (w *World) EntitiesCount() int {
	return len(w.entities) - len(w.freeEntityIDs)
}

// DestroyEntity removes the entity from its archetype and retires its id
func (w *World) DestroyEntity(e *Entity) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	if _, err := w.Entity(e.id); err != nil {
		return eris.Wrap(err, "failed to destroy entity")
	}
	if e.currentArchetype != nil {
		if err := e.currentArchetype.Remove(e); err != nil {
			return err
		}
	}
	e.disposed = true
	e.dirty = false
	w.freeEntityIDs = append(w.freeEntityIDs, e.id.Index)
	return nil
}

// EnqueueDestroyEntity destroys the entity now, or once the world unlocks
func (w *World) EnqueueDestroyEntity(e *Entity) error {
	if !w.Locked() {
		return w.DestroyEntity(e)
	}
	w.opQueue.EnqueueDestroy(e)
	return nil
}

// Move sequences src.Remove(e) then dst.Add(e). dst is validated before e
// leaves its current archetype.
func (w *World) Move(e *Entity, dst *Archetype) error {
	if w.Locked() {
		return LockedWorldError{}
	}
	if _, err := w.Entity(e.id); err != nil {
		return eris.Wrap(err, "failed to move entity")
	}
	if dst == e.currentArchetype {
		return nil
	}
	if err := dst.checkLive("move", e); err != nil {
		return err
	}
	if src := e.currentArchetype; src != nil {
		if err := src.Remove(e); err != nil {
			return err
		}
	}
	return dst.Add(e)
}

// EnqueueMove moves the entity now, or once the world unlocks. A queued move
// remembers the signature of dst, not dst itself, and resolves it again when
// the queue is flushed since dst may be pooled in between.
func (w *World) EnqueueMove(e *Entity, dst *Archetype) error {
	if !w.Locked() {
		return w.Move(e, dst)
	}
	if _, err := w.Entity(e.id); err != nil {
		return eris.Wrap(err, "failed to enqueue move")
	}
	if err := dst.checkLive("enqueue move", e); err != nil {
		return err
	}
	w.opQueue.EnqueueMove(e, dst.signature)
	return nil
}

// moveToSignature moves e into the archetype currently holding signature
func (w *World) moveToSignature(e *Entity, signature mask.Mask) error {
	if src := e.currentArchetype; src != nil && src.signature == signature {
		return nil
	}
	dst, err := w.archetypeFor(signature)
	if err != nil {
		return err
	}
	return w.Move(e, dst)
}

// NewOrExistingArchetype returns the live archetype for the component set. A
// missing one is taken from the free list when possible, else allocated.
//
// The returned archetype is live even while it has no members. It only joins
// the free list once its last member is removed, or when NewEntities is asked
// for zero entities of that component set.
func (w *World) NewOrExistingArchetype(components ...Component) (*Archetype, error) {
	return w.archetypeFor(w.signatureOf(components...))
}

func (w *World) archetypeFor(signature mask.Mask) (*Archetype, error) {
	if w.disposed() {
		return nil, eris.New("world is disposed")
	}
	if id, found := w.idsBySignature[signature]; found {
		return w.archetypes[id], nil
	}

	id := w.nextArchetypeID
	w.nextArchetypeID++

	var arch *Archetype
	if n := len(w.removedArchetypes); n > 0 {
		arch = w.removedArchetypes[n-1]
		w.removedArchetypes = w.removedArchetypes[:n-1]
		previousID := arch.id
		arch.activate(w, id, signature)
		w.log.Debug().
			Int32("archetype_id", int32(id)).
			Int32("previous_id", int32(previousID)).
			Msg("archetype reactivated")
	} else {
		arch = newArchetype(w, id, signature)
		w.log.Debug().
			Int32("archetype_id", int32(id)).
			Msg("archetype created")
	}
	w.reconcileFilters(arch)

	w.archetypes[id] = arch
	w.idsBySignature[signature] = id
	w.archetypesCount++
	return arch, nil
}

func (w *World) signatureOf(components ...Component) mask.Mask {
	var signature mask.Mask
	for _, component := range components {
		w.schema.Register(component)
		signature.Mark(w.schema.RowIndexFor(component))
	}
	return signature
}

// Archetype looks up a live archetype
func (w *World) Archetype(id ArchetypeID) (*Archetype, bool) {
	arch, ok := w.archetypes[id]
	return arch, ok
}

// ArchetypesCount is the number of live archetypes
func (w *World) ArchetypesCount() int {
	return w.archetypesCount
}

// PooledCount is the number of archetypes waiting on the free list
func (w *World) PooledCount() int {
	return len(w.removedArchetypes)
}

func (w *World) RowIndexFor(c Component) uint32 {
	return w.schema.RowIndexFor(c)
}

// Dispose tears the world down. Every archetype, live or pooled, is disposed.
func (w *World) Dispose() {
	live, pooled := len(w.archetypes), len(w.removedArchetypes)
	for _, arch := range w.archetypes {
		arch.Dispose()
	}
	for _, arch := range w.removedArchetypes {
		arch.Dispose()
	}
	for _, en := range w.entities {
		if en != nil {
			en.currentArchetype = nil
			en.currentArchetypeID = noArchetype
			en.disposed = true
		}
	}
	for _, f := range w.filters {
		f.dropped = true
	}
	w.archetypes = nil
	w.idsBySignature = nil
	w.removedArchetypes = nil
	w.archetypesCount = 0
	w.entities = nil
	w.freeEntityIDs = nil
	w.filters = nil
	w.log.Debug().
		Int("live_archetypes", live).
		Int("pooled_archetypes", pooled).
		Msg("world disposed")
}

func (w *World) disposed() bool {
	return w.archetypes == nil
}

func (w *World) Locked() bool {
	return w.locks > 0
}

// Lock starts a structural-change barrier. Locks nest.
func (w *World) Lock() {
	w.locks++
}

// Unlock releases one lock. Releasing the last one flushes queued
// operations; a failing operation panics since it means the queue was
// sequenced against a broken invariant.
func (w *World) Unlock() {
	if w.locks == 0 {
		return
	}
	w.locks--
	if w.locks > 0 {
		return
	}
	if err := w.processOperationQueue(); err != nil {
		panic(err)
	}
}
