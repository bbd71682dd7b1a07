package depot

import "github.com/bits-and-blooms/bitset"

func (m MembershipMode) String() string {
	switch m {
	case Sparse:
		return "sparse"
	case Dense:
		return "dense"
	}
	return "unknown"
}

func newMembership() membership {
	return membership{
		mode:   Sparse,
		sparse: bitset.New(Config.sparseCapacity),
	}
}

func (m *membership) count() int {
	if m.mode == Dense {
		return len(m.dense)
	}
	if m.sparse == nil {
		return 0
	}
	return int(m.sparse.Count())
}

// has reports membership of id. slot is only consulted in Dense mode, where a
// member's cached slot is exact.
func (m *membership) has(id uint32, slot int) bool {
	if m.mode == Dense {
		return slot >= 0 && slot < len(m.dense) && m.dense[slot] == id
	}
	return m.sparse != nil && m.sparse.Test(uint(id))
}

// insert adds id and returns its dense slot, or -1 in Sparse mode
func (m *membership) insert(id uint32) int {
	if m.mode == Dense {
		slot := len(m.dense)
		m.dense = append(m.dense, id)
		return slot
	}
	m.sparse.Set(uint(id))
	return -1
}

func (m *membership) unset(id uint32) {
	m.sparse.Clear(uint(id))
}

// swapRemove drops the dense slot by moving the last member into it.
// moved is false when slot was already the last one.
func (m *membership) swapRemove(slot int) (movedID uint32, moved bool) {
	last := len(m.dense) - 1
	if slot != last {
		m.dense[slot] = m.dense[last]
		movedID, moved = m.dense[slot], true
	}
	m.dense = m.dense[:last]
	return movedID, moved
}

// densify switches to Dense, packing members in ascending id order
func (m *membership) densify() []uint32 {
	dense := make([]uint32, 0, max(Config.denseCapacity, int(m.sparse.Count())))
	for i, ok := m.sparse.NextSet(0); ok; i, ok = m.sparse.NextSet(i + 1) {
		dense = append(dense, uint32(i))
	}
	m.sparse.ClearAll()
	m.dense = dense
	m.mode = Dense
	return dense
}

// reset returns the store to an empty Sparse set. Dense storage is dropped,
// not reused.
func (m *membership) reset() {
	m.mode = Sparse
	if m.sparse == nil {
		m.sparse = bitset.New(Config.sparseCapacity)
	}
	m.sparse.ClearAll()
	m.dense = nil
}

func (m *membership) release() {
	m.mode = Sparse
	if m.sparse != nil {
		m.sparse.ClearAll()
	}
	m.sparse = nil
	m.dense = nil
}

// next yields the member at or after pos and the position to resume from
func (m *membership) next(pos uint) (id uint32, resume uint, ok bool) {
	if m.mode == Dense {
		if pos < uint(len(m.dense)) {
			return m.dense[pos], pos + 1, true
		}
		return 0, pos, false
	}
	if m.sparse == nil {
		return 0, pos, false
	}
	i, found := m.sparse.NextSet(pos)
	if !found {
		return 0, pos, false
	}
	return uint32(i), i + 1, true
}
