package depot

import (
	"iter"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"
)

// ArchetypeID identifies a live archetype. Zero means "no archetype" and -1
// marks a disposed one.
type ArchetypeID int32

const (
	noArchetype       ArchetypeID = 0
	disposedArchetype ArchetypeID = -1
)

// MembershipMode selects the representation an archetype keeps its members in
type MembershipMode uint8

const (
	// Sparse keeps members in a bitset keyed by entity internal id
	Sparse MembershipMode = iota
	// Dense keeps members in a packed slice; each member caches its slot
	Dense
)

// EntityID addresses a slot in the world entity table
type EntityID struct {
	Index      uint32
	Generation uint32
}

// Entity is the handle of one logical entity
type Entity struct {
	world *World
	id    EntityID

	previousArchetypeID ArchetypeID
	currentArchetypeID  ArchetypeID
	currentArchetype    *Archetype

	// Only meaningful while currentArchetype is Dense.
	indexInCurrentArchetype int

	dirty    bool
	disposed bool
}

type archetypeState uint8

const (
	archetypeLive archetypeState = iota
	archetypePooled
	archetypeDisposed
)

// Archetype groups every entity sharing one exact component signature
type Archetype struct {
	id        ArchetypeID
	signature mask.Mask
	state     archetypeState
	length    int
	members   membership
	filters   map[*Filter]struct{}
	// Non-owning; cleared on Dispose.
	world *World
}

type membership struct {
	mode   MembershipMode
	sparse *bitset.BitSet
	dense  []uint32
}

// World owns the entity table and the archetype registry
type World struct {
	schema table.Schema
	log    zerolog.Logger

	entities      []*Entity
	freeEntityIDs []uint32

	archetypes        map[ArchetypeID]*Archetype
	idsBySignature    map[mask.Mask]ArchetypeID
	removedArchetypes []*Archetype
	archetypesCount   int
	nextArchetypeID   ArchetypeID

	filters []*Filter

	locks   int
	opQueue opQueue
}

// Filter is a query subscriber attached to every archetype whose signature
// contains all of its included components and none of its excluded ones
type Filter struct {
	world   *World
	include mask.Mask
	exclude mask.Mask
	dropped bool
}

type iCursor interface {
	Next() bool
	Entity() *Entity
	Entities() iter.Seq[*Entity]
	Reset()
}

// Cursor walks the members of every live archetype a filter is attached to
type Cursor struct {
	filter *Filter
	world  *World

	current      *Archetype
	archIndex    int
	memberPos    uint
	currentID    uint32
	initialized  bool
	matchedArchs []*Archetype
}
