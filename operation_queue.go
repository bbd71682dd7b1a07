package depot

import (
	"github.com/TheBitDrifter/mask"
	"github.com/rotisserie/eris"
)

type operation struct {
	typ    operationType
	amount int
	comps  []Component
	entity *Entity
	// Signature of the destination, resolved at flush time.
	dst mask.Mask
}

type operationType int

const (
	opNoop operationType = iota - 1
	opCreate
	opMove
	opDestroy
)

type opQueue struct {
	createOps      []operation
	moveOps        []operation
	destroyOps     []operation
	pendingDestroy map[*Entity]struct{}
	pendingMoves   map[*Entity]int
}

func newOpQueue() opQueue {
	return opQueue{
		pendingDestroy: make(map[*Entity]struct{}),
		pendingMoves:   make(map[*Entity]int),
	}
}

func (q *opQueue) enqueueOp(op operation) {
	switch op.typ {
	case opCreate:
		q.createOps = append(q.createOps, op)
	case opMove:
		q.moveOps = append(q.moveOps, op)
	case opDestroy:
		q.destroyOps = append(q.destroyOps, op)
	}
}

func (q *opQueue) empty() bool {
	return len(q.createOps) == 0 &&
		len(q.moveOps) == 0 &&
		len(q.destroyOps) == 0
}

// reset empties the queue and clears the dirty flag of every entity it held
func (q *opQueue) reset() {
	for _, op := range q.moveOps {
		op.entity.dirty = false
	}
	for _, op := range q.destroyOps {
		op.entity.dirty = false
	}
	q.createOps = q.createOps[:0]
	q.moveOps = q.moveOps[:0]
	q.destroyOps = q.destroyOps[:0]
	clear(q.pendingDestroy)
	clear(q.pendingMoves)
}

// processOperationQueue applies and empties the queue. The queue is emptied
// even when an operation fails so nothing is replayed by a later flush.
func (w *World) processOperationQueue() error {
	q := &w.opQueue
	if q.empty() {
		return nil
	}
	defer q.reset()
	created, moved, destroyed := len(q.createOps), len(q.moveOps), len(q.destroyOps)

	// Creates first, destroys last.
	for _, op := range q.createOps {
		if _, err := w.NewEntities(op.amount, op.comps...); err != nil {
			return eris.Wrap(err, "failed to process queued entity creation")
		}
	}

	for _, op := range q.moveOps {
		if op.typ == opNoop {
			continue
		}
		op.entity.dirty = false
		if err := w.moveToSignature(op.entity, op.dst); err != nil {
			return eris.Wrapf(err, "failed to process queued move of entity %v", op.entity.id)
		}
	}

	for _, op := range q.destroyOps {
		op.entity.dirty = false
		if err := w.DestroyEntity(op.entity); err != nil {
			return eris.Wrapf(err, "failed to process queued destroy of entity %v", op.entity.id)
		}
	}

	w.log.Debug().
		Int("created", created).
		Int("moved", moved).
		Int("destroyed", destroyed).
		Msg("operation queue flushed")
	return nil
}

// EnqueueDestroy queues a destroy once per entity and cancels any move still
// pending for it
func (q *opQueue) EnqueueDestroy(e *Entity) {
	if _, exists := q.pendingDestroy[e]; exists {
		return
	}
	q.pendingDestroy[e] = struct{}{}
	if idx, hasMove := q.pendingMoves[e]; hasMove {
		q.moveOps[idx].typ = opNoop
		delete(q.pendingMoves, e)
	}
	e.dirty = true
	q.enqueueOp(operation{typ: opDestroy, entity: e})
}

// EnqueueMove queues a move to the archetype of signature dst. A later move
// of the same entity replaces the earlier destination; entities pending
// destroy are ignored.
func (q *opQueue) EnqueueMove(e *Entity, dst mask.Mask) {
	if _, isDestroyed := q.pendingDestroy[e]; isDestroyed {
		return
	}
	if idx, exists := q.pendingMoves[e]; exists {
		q.moveOps[idx].dst = dst
		return
	}
	q.pendingMoves[e] = len(q.moveOps)
	e.dirty = true
	q.enqueueOp(operation{typ: opMove, entity: e, dst: dst})
}
