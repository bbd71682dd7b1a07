package depot

import (
	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute that can be attached to entities.
// The set of components an entity carries decides its archetype.
type Component interface {
	table.ElementType
}
