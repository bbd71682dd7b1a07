package depot

import "github.com/TheBitDrifter/table"

type factory struct{}

var Factory factory

// NewWorld creates a world with its own component schema
func (f factory) NewWorld() *World {
	return newWorld(table.Factory.NewSchema())
}

// NewWorldWithSchema creates a world sharing an existing component schema
func (f factory) NewWorldWithSchema(schema table.Schema) *World {
	return newWorld(schema)
}

func (f factory) NewCursor(filter *Filter) *Cursor {
	return newCursor(filter)
}

func FactoryNewComponent[T any]() Component {
	return table.FactoryNewElementType[T]()
}
