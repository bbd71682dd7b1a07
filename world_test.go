package depot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrExistingArchetype(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	tests := []struct {
		name                string
		firstComponents     []Component
		secondComponents    []Component
		expectSameArchetype bool
	}{
		{"Identical components", []Component{posComp, velComp}, []Component{posComp, velComp}, true},
		{"Different order", []Component{posComp, velComp}, []Component{velComp, posComp}, true},
		{"Different components", []Component{posComp}, []Component{velComp}, false},
		{"Subset components", []Component{posComp, velComp}, []Component{posComp}, false},
		{"Superset components", []Component{posComp}, []Component{posComp, velComp, healthComp}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Factory.NewWorld()

			first, err := w.NewOrExistingArchetype(tt.firstComponents...)
			require.NoError(t, err)
			second, err := w.NewOrExistingArchetype(tt.secondComponents...)
			require.NoError(t, err)

			assert.Equal(t, tt.expectSameArchetype, first.ID() == second.ID())
			if tt.expectSameArchetype {
				assert.Equal(t, 1, w.ArchetypesCount())
			} else {
				assert.Equal(t, 2, w.ArchetypesCount())
			}
		})
	}
}

func TestNewEntities(t *testing.T) {
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	tests := []struct {
		name           string
		componentTypes []Component
		entityCount    int
		wantArchetype  bool
	}{
		{"No components", nil, 3, false},
		{"Single component", []Component{posComp}, 10, true},
		{"Multiple components", []Component{posComp, velComp}, 5, true},
		{"Large batch", []Component{posComp, velComp}, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Factory.NewWorld()

			entities, err := w.NewEntities(tt.entityCount, tt.componentTypes...)
			require.NoError(t, err)
			require.Len(t, entities, tt.entityCount)
			assert.Equal(t, tt.entityCount, w.EntitiesCount())

			for _, en := range entities {
				assert.True(t, en.Valid())
				if !tt.wantArchetype {
					assert.Nil(t, en.Archetype())
					assert.Equal(t, noArchetype, en.CurrentArchetypeID())
					continue
				}
				require.NotNil(t, en.Archetype())
				assert.Equal(t, en.Archetype().ID(), en.CurrentArchetypeID())
				assert.True(t, en.Archetype().Contains(en))
			}
			if tt.wantArchetype {
				assert.Equal(t, tt.entityCount, entities[0].Archetype().Len())
			}
		})
	}
}

func TestDestroyEntityRecyclesID(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	entities, err := w.NewEntities(3, posComp)
	require.NoError(t, err)
	arch := entities[0].Archetype()
	old := entities[1]

	require.NoError(t, w.DestroyEntity(old))

	assert.True(t, old.Disposed())
	assert.False(t, old.Valid())
	assert.Equal(t, 2, arch.Len())
	assert.Equal(t, 2, w.EntitiesCount())
	_, err = w.Entity(old.ID())
	assert.ErrorAs(t, err, &EntityNotFoundError{})

	reused := w.NewEntity()
	assert.Equal(t, old.ID().Index, reused.ID().Index)
	assert.Equal(t, old.ID().Generation+1, reused.ID().Generation)
	got, err := w.Entity(reused.ID())
	require.NoError(t, err)
	assert.Same(t, reused, got)

	assert.Error(t, w.DestroyEntity(old))
}

func TestMove(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(3, posComp)
	require.NoError(t, err)
	src := entities[0].Archetype()
	require.NoError(t, src.Densify())
	dst, err := w.NewOrExistingArchetype(posComp, velComp)
	require.NoError(t, err)
	require.NoError(t, dst.Densify())

	moved := entities[0]
	require.NoError(t, w.Move(moved, dst))

	assert.Same(t, dst, moved.Archetype())
	assert.Equal(t, dst.ID(), moved.CurrentArchetypeID())
	assert.Equal(t, src.ID(), moved.PreviousArchetypeID())
	assert.Equal(t, 0, moved.Index())
	assert.Equal(t, 2, src.Len())
	assert.Equal(t, 1, dst.Len())
	// The last member of src took the vacated slot.
	assert.Equal(t, 0, entities[2].Index())
	assert.Equal(t, 1, entities[1].Index())

	// Moving into the current archetype changes nothing.
	require.NoError(t, moved.Move(dst))
	assert.Equal(t, 1, dst.Len())
}

func TestMoveEmptiesAndPoolsSource(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(1, posComp)
	require.NoError(t, err)
	src := entities[0].Archetype()
	srcID := src.ID()
	dst, err := w.NewOrExistingArchetype(velComp)
	require.NoError(t, err)

	require.NoError(t, w.Move(entities[0], dst))

	_, found := w.Archetype(srcID)
	assert.False(t, found)
	assert.True(t, src.Pooled())
	assert.Equal(t, 1, w.ArchetypesCount())
	assert.Equal(t, 1, w.PooledCount())
}

func TestMoveToPooledArchetypeKeepsSource(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(2, posComp)
	require.NoError(t, err)
	src := entities[0].Archetype()
	lonely, err := w.NewEntities(1, velComp)
	require.NoError(t, err)
	pooled := lonely[0].Archetype()
	require.NoError(t, w.DestroyEntity(lonely[0]))
	require.True(t, pooled.Pooled())

	err = w.Move(entities[0], pooled)

	assert.True(t, IsInvariantViolation(err))
	assert.Same(t, src, entities[0].Archetype())
	assert.True(t, src.Contains(entities[0]))
	assert.Equal(t, 2, src.Len())
}

func TestReactivatePooledArchetype(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	posFilter := w.NewFilter([]Component{posComp})
	velFilter := w.NewFilter([]Component{velComp})

	entities, err := w.NewEntities(1, posComp)
	require.NoError(t, err)
	arch := entities[0].Archetype()
	oldID := arch.ID()
	require.True(t, arch.HasFilter(posFilter))

	require.NoError(t, w.DestroyEntity(entities[0]))
	require.True(t, arch.Pooled())
	require.True(t, arch.HasFilter(posFilter), "pooling leaves filters in place")

	reused, err := w.NewOrExistingArchetype(velComp)
	require.NoError(t, err)

	assert.Same(t, arch, reused)
	assert.NotEqual(t, oldID, reused.ID())
	assert.False(t, reused.Pooled())
	assert.Equal(t, 0, reused.Len())
	assert.Equal(t, Sparse, reused.Mode())
	assert.False(t, reused.HasFilter(posFilter))
	assert.True(t, reused.HasFilter(velFilter))
	assert.Equal(t, 0, w.PooledCount())
	assert.Equal(t, 1, w.ArchetypesCount())

	got, found := w.Archetype(reused.ID())
	require.True(t, found)
	assert.Same(t, reused, got)
}

func TestWorldDispose(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	live, err := w.NewEntities(2, posComp)
	require.NoError(t, err)
	gone, err := w.NewEntities(1, velComp)
	require.NoError(t, err)
	liveArch, pooledArch := live[0].Archetype(), gone[0].Archetype()
	require.NoError(t, w.DestroyEntity(gone[0]))
	f := w.NewFilter([]Component{posComp})

	w.Dispose()

	for _, arch := range []*Archetype{liveArch, pooledArch} {
		assert.True(t, arch.Disposed())
		assert.Equal(t, disposedArchetype, arch.ID())
		assert.Equal(t, -1, arch.Len())
	}
	assert.True(t, f.Dropped())
	assert.False(t, live[0].Valid())
	assert.Equal(t, 0, w.ArchetypesCount())
	_, err = w.NewOrExistingArchetype(posComp)
	assert.Error(t, err)
}

func TestWorldLocking(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(2, posComp)
	require.NoError(t, err)
	dst, err := w.NewOrExistingArchetype(velComp)
	require.NoError(t, err)

	w.Lock()
	w.Lock()
	assert.True(t, w.Locked())

	assert.ErrorAs(t, w.Move(entities[0], dst), &LockedWorldError{})
	_, err = w.NewEntities(1, posComp)
	assert.ErrorAs(t, err, &LockedWorldError{})

	require.NoError(t, entities[0].EnqueueMove(dst))
	require.NoError(t, w.EnqueueNewEntities(3, velComp))
	assert.True(t, entities[0].Dirty())
	assert.Equal(t, 0, dst.Len())

	w.Unlock()
	assert.True(t, w.Locked())
	assert.Equal(t, 0, dst.Len())

	w.Unlock()
	assert.False(t, w.Locked())
	assert.False(t, entities[0].Dirty())
	assert.Same(t, dst, entities[0].Archetype())
	assert.Equal(t, 4, dst.Len())
	assert.Equal(t, 1, entities[1].Archetype().Len())
}

func TestEnqueueDestroyCancelsPendingMove(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(2, posComp)
	require.NoError(t, err)
	src := entities[0].Archetype()
	dst, err := w.NewOrExistingArchetype(velComp)
	require.NoError(t, err)

	w.Lock()
	require.NoError(t, w.EnqueueMove(entities[0], dst))
	require.NoError(t, w.EnqueueDestroyEntity(entities[0]))
	require.NoError(t, w.EnqueueDestroyEntity(entities[0]))
	require.NoError(t, w.EnqueueMove(entities[0], dst))
	w.Unlock()

	assert.True(t, entities[0].Disposed())
	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 1, src.Len())
}

func TestEnqueueMoveRejectsPooledArchetype(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()

	entities, err := w.NewEntities(1, posComp)
	require.NoError(t, err)
	lonely, err := w.NewEntities(1, velComp)
	require.NoError(t, err)
	pooled := lonely[0].Archetype()
	require.NoError(t, w.DestroyEntity(lonely[0]))

	w.Lock()
	err = w.EnqueueMove(entities[0], pooled)
	assert.True(t, IsInvariantViolation(err))
	assert.False(t, entities[0].Dirty())
	assert.NotPanics(t, w.Unlock)
	assert.Equal(t, 1, entities[0].Archetype().Len())
}

func TestQueuedMoveResolvesPooledDestination(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()
	velComp := FactoryNewComponent[Velocity]()
	healthComp := FactoryNewComponent[Health]()

	as, err := w.NewEntities(1, posComp)
	require.NoError(t, err)
	bs, err := w.NewEntities(1, velComp)
	require.NoError(t, err)
	a, b := as[0], bs[0]
	y := b.Archetype()
	ySignature := y.Mask()
	z, err := w.NewOrExistingArchetype(healthComp)
	require.NoError(t, err)

	w.Lock()
	// b is the only member of y, so moving it out pools y before a moves in.
	require.NoError(t, w.EnqueueMove(b, z))
	require.NoError(t, w.EnqueueMove(a, y))
	require.NotPanics(t, w.Unlock)

	assert.Same(t, z, b.Archetype())
	require.NotNil(t, a.Archetype())
	assert.Equal(t, ySignature, a.Archetype().Mask())
	assert.True(t, a.Archetype().Contains(a))
	assert.Equal(t, 1, a.Archetype().Len())
	assert.False(t, a.Dirty())
	assert.False(t, b.Dirty())

	// Nothing is replayed by a later flush.
	w.Lock()
	assert.NotPanics(t, w.Unlock)
	assert.Same(t, z, b.Archetype())
	assert.Equal(t, 1, z.Len())
}

func TestUnlockPanicsOnBrokenQueue(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()

	w.Lock()
	require.NoError(t, w.EnqueueNewEntities(2, posComp))
	w.Dispose()
	assert.Panics(t, w.Unlock)

	// The failed flush emptied the queue.
	w.Lock()
	assert.NotPanics(t, w.Unlock)
}

func TestNewEntitiesZeroPoolsEmptyArchetype(t *testing.T) {
	w := Factory.NewWorld()
	posComp := FactoryNewComponent[Position]()

	entities, err := w.NewEntities(0, posComp)
	require.NoError(t, err)

	assert.Empty(t, entities)
	assert.Equal(t, 0, w.ArchetypesCount())
	assert.Equal(t, 1, w.PooledCount())

	// A populated archetype is left alone.
	_, err = w.NewEntities(2, posComp)
	require.NoError(t, err)
	_, err = w.NewEntities(0, posComp)
	require.NoError(t, err)
	assert.Equal(t, 1, w.ArchetypesCount())
	assert.Equal(t, 0, w.PooledCount())
}
