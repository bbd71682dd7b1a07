/*
Package depot provides archetype-based entity storage for ECS worlds.

Entities sharing one exact component composition live together in an archetype,
so queries walk densely packed member lists instead of scattered records. Each
archetype keeps its members in one of two representations:

  - Sparse: a bitset keyed by entity internal id. Insert and remove are O(1)
    and no other entity is touched.
  - Dense: a packed slice of internal ids. Every member caches its slot, and
    removal swaps the last member into the hole and fixes that member's slot.

An archetype whose last member leaves is pooled: it drops out of the world
registry and waits on a free list until a new component signature reuses it.

Basic Usage:

	world := depot.Factory.NewWorld()

	position := depot.FactoryNewComponent[Position]()
	velocity := depot.FactoryNewComponent[Velocity]()

	entities, _ := world.NewEntities(100, position, velocity)

	moving := world.NewFilter([]depot.Component{position, velocity})
	cursor := depot.Factory.NewCursor(moving)
	for en := range cursor.Entities() {
		_ = en.ID()
	}

	// Composition changes move entities between archetypes.
	still, _ := world.NewOrExistingArchetype(position)
	_ = world.Move(entities[0], still)

All operations expect a single goroutine owning the world. Structural changes
requested while the world is locked (for example during cursor iteration) are
queued with the Enqueue variants and applied on the last Unlock.
*/
package depot
