package depot

import (
	"iter"
	"slices"
)

var _ iCursor = &Cursor{}

func newCursor(filter *Filter) *Cursor {
	return &Cursor{
		filter: filter,
		world:  filter.world,
	}
}

// Next advances to the next entity. The world stays locked from the first
// call until iteration ends or Reset is called.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.current != nil {
		id, resume, ok := c.current.members.next(c.memberPos)
		if ok {
			c.currentID = id
			c.memberPos = resume
			return true
		}
		c.archIndex++
		c.memberPos = 0
		c.current = nil
		if c.archIndex < len(c.matchedArchs) {
			c.current = c.matchedArchs[c.archIndex]
		}
	}
	c.Reset()
	return false
}

// Entity returns the entity the cursor points at
func (c *Cursor) Entity() *Entity {
	return c.world.entities[c.currentID]
}

// Archetype returns the archetype being walked, or nil outside iteration
func (c *Cursor) Archetype() *Archetype {
	return c.current
}

func (c *Cursor) Entities() iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		for c.Next() {
			if !yield(c.Entity()) {
				c.Reset()
				return
			}
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.matchedArchs = c.matchedArchs[:0]
	if !c.filter.dropped {
		for _, arch := range c.world.archetypes {
			if arch.HasFilter(c.filter) {
				c.matchedArchs = append(c.matchedArchs, arch)
			}
		}
	}
	slices.SortFunc(c.matchedArchs, func(a, b *Archetype) int {
		return int(a.id) - int(b.id)
	})
	c.archIndex = 0
	c.memberPos = 0
	c.current = nil
	if len(c.matchedArchs) > 0 {
		c.current = c.matchedArchs[0]
	}
	c.initialized = true
	c.world.Lock()
}

// Reset stops iteration and releases the world lock
func (c *Cursor) Reset() {
	if !c.initialized {
		return
	}
	c.archIndex = 0
	c.memberPos = 0
	c.current = nil
	c.matchedArchs = nil
	c.initialized = false
	c.world.Unlock()
}

// TotalMatched is the number of entities the cursor would visit
func (c *Cursor) TotalMatched() int {
	return c.filter.Count()
}
