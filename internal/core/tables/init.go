// Package tables registers the inventory resource definitions with the core
// registry. Import it for side effects wherever the service is built.
package tables

import "github.com/JonMunkholm/inventory/internal/core"

func init() {
	registerEquipment()
	registerSoftware()
	registerSubscriptions()
}

// text is shorthand for an optional length-limited text field.
func text(name string, maxLen int, headers ...string) core.FieldSpec {
	return core.FieldSpec{Name: name, Type: core.FieldText, MaxLen: maxLen, CSVHeaders: headers}
}
