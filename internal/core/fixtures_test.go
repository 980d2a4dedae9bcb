package core

// gadgetDefinition is a small resource used by tests that need a definition
// without the registry.
func gadgetDefinition() *ResourceDefinition {
	return &ResourceDefinition{
		Info: ResourceInfo{
			Key:         "gadgets",
			Label:       "Gadgets",
			Path:        "gadgets",
			Table:       "gadgets",
			IDColumn:    "gadget_id",
			IDPrefix:    "GD",
			IDSort:      []string{"gadget_id_num"},
			DefaultSort: "name",
		},
		FieldSpecs: []FieldSpec{
			{Name: "gadget_id", Type: FieldText, ReadOnly: true, CSVHeaders: []string{"Gadget ID"}, Export: true, Search: true, Sort: true, Group: "always"},
			{Name: "name", Type: FieldText, Required: true, MaxLen: 10, CSVHeaders: []string{"Name", "Gadget Name"}, Export: true, Search: true, Sort: true, Group: "always"},
			{Name: "kind", Type: FieldEnum, EnumValues: []string{"Small", "Large"}, Immutable: true, CSVHeaders: []string{"Kind"}, Export: true, Group: "specs"},
			{Name: "bought", Type: FieldDate, CSVHeaders: []string{"Bought"}, Export: true, Sort: true, Group: "specs"},
			{Name: "price", Type: FieldNumeric, NonNegative: true, CSVHeaders: []string{"Price"}, Export: true, Group: "specs"},
			{Name: "rating", Type: FieldInt, CSVHeaders: []string{"Rating"}, Export: true, Sort: true},
			{Name: "loaned", Type: FieldBool, CSVHeaders: []string{"Loaned?"}, Export: true},
			{Name: "owner", Type: FieldText, Normalizer: TitleCase, DBColumn: "owner_name", CSVHeaders: []string{"Owner"}, Search: true, Group: "specs"},
			{Name: "ip", Type: FieldText, Validator: ValidateIPv4, CSVHeaders: []string{"IP"}},
			{Name: "combined", Type: FieldText, Virtual: true, CSVHeaders: []string{"Combined"}},
		},
		Filters: []NamedFilter{
			{Param: "kind", Column: "kind", Mode: FilterExact, Type: FieldEnum},
			{Param: "owner", Column: "owner_name", Mode: FilterContains},
			{Param: "min_rating", Column: "rating", Mode: FilterMin, Type: FieldInt},
		},
		Groups: []ViewGroup{
			{Key: "specs", Label: "Specs"},
			{Key: "empty", Label: "Empty"},
		},
	}
}
