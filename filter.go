package depot

import "github.com/TheBitDrifter/mask"

// NewFilter registers a filter for archetypes holding every component in with
// and none in without. It is attached right away to matching live archetypes
// and later to every matching archetype that gets activated.
func (w *World) NewFilter(with []Component, without ...Component) *Filter {
	f := &Filter{
		world:   w,
		include: w.signatureOf(with...),
		exclude: w.signatureOf(without...),
	}
	w.filters = append(w.filters, f)
	for _, arch := range w.archetypes {
		if f.Matches(arch) {
			arch.AddFilter(f)
		}
	}
	return f
}

// DropFilter detaches f from every archetype, live or pooled
func (w *World) DropFilter(f *Filter) {
	for i, registered := range w.filters {
		if registered == f {
			w.filters = append(w.filters[:i], w.filters[i+1:]...)
			break
		}
	}
	for _, arch := range w.archetypes {
		arch.RemoveFilter(f)
	}
	for _, arch := range w.removedArchetypes {
		arch.RemoveFilter(f)
	}
	f.dropped = true
}

// reconcileFilters replaces whatever an archetype was subscribed to before
// pooling with the filters matching its current signature
func (w *World) reconcileFilters(arch *Archetype) {
	stale := len(arch.filters)
	clear(arch.filters)
	for _, f := range w.filters {
		if f.Matches(arch) {
			arch.AddFilter(f)
		}
	}
	if stale > 0 {
		w.log.Debug().
			Int32("archetype_id", int32(arch.id)).
			Int("stale_filters", stale).
			Int("filters", len(arch.filters)).
			Msg("archetype filters reconciled")
	}
}

// Matches evaluates the filter against an archetype signature
func (f *Filter) Matches(a *Archetype) bool {
	signature := a.Mask()
	if !signature.ContainsAll(f.include) {
		return false
	}
	var empty mask.Mask
	if f.exclude == empty {
		return true
	}
	return signature.ContainsNone(f.exclude)
}

// Dropped reports whether the filter was removed from its world
func (f *Filter) Dropped() bool {
	return f.dropped
}

// Count sums the members of every live archetype the filter is attached to
func (f *Filter) Count() int {
	if f.dropped {
		return 0
	}
	total := 0
	for _, arch := range f.world.archetypes {
		if arch.HasFilter(f) {
			total += arch.Len()
		}
	}
	return total
}
