package core

// FieldType represents the expected data type for a record field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldInt
	FieldBool
)

// FilterMode controls how a named list filter compares values.
type FilterMode int

const (
	FilterExact FilterMode = iota
	FilterContains
	FilterMin
	FilterMax
)

// FieldSpec defines one field of a resource: how it is stored, validated,
// imported, exported and shown.
type FieldSpec struct {
	Name        string              // JSON key and API field name
	DBColumn    string              // Database column (defaults to Name)
	Type        FieldType           // Expected data type
	Required    bool                // Must be non-empty on create
	MaxLen      int                 // Maximum rune length for text (0 = unlimited)
	NonNegative bool                // Numeric/int values must be >= 0
	EnumValues  []string            // Valid values for FieldEnum (case-insensitive)
	Normalizer  func(string) string // Applied to non-empty text before validation
	Validator   func(string) error  // Extra check on the normalized text
	ReadOnly    bool                // Never written from input (generated)
	Immutable   bool                // Set on create, ignored on update

	CSVHeaders []string // Accepted import headers (first one is used on export)
	Export     bool     // Included in CSV export and template
	Virtual    bool     // Import-only field with no column of its own

	Search bool   // Matched by the free-text search
	Sort   bool   // Accepted as sort_by
	Group  string // View group key; "" = not shown, "always" = always visible
	Label  string // Column label for views
}

// Column returns the database column for the field.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return f.Name
}

// Header returns the preferred CSV header for the field.
func (f FieldSpec) Header() string {
	if len(f.CSVHeaders) > 0 {
		return f.CSVHeaders[0]
	}
	return f.Name
}

// NamedFilter maps a list query parameter onto a column comparison.
type NamedFilter struct {
	Param  string
	Column string
	Mode   FilterMode
	Type   FieldType
}

// ViewGroup is a named bundle of optional columns a grid can toggle on.
type ViewGroup struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Fields []string `json:"fields"`
}

// ResourceInfo contains display and storage information about a resource.
type ResourceInfo struct {
	Key      string // Registry key: "equipment", "software", "subscriptions"
	Label    string // Display name
	Path     string // URL segment under /api/v1
	Table    string // Base table
	IDColumn string // Public ID column (equipment_id, software_id, ...)
	IDPrefix string // Public ID prefix for single-sequence resources

	// IDSort lists the columns that order the public ID numerically.
	IDSort []string

	DefaultSort string // Field name used when sort_by is absent or unknown

	// MatchFields identify an existing record on import. A file carrying
	// one of them may leave out required columns; those are then checked
	// per row when a record has to be created.
	MatchFields []string
}

// isMatchField reports whether name identifies existing records on import.
func (i ResourceInfo) isMatchField(name string) bool {
	for _, f := range i.MatchFields {
		if f == name {
			return true
		}
	}
	return false
}

// ResourceDefinition contains everything needed to query, validate, import
// and export a resource.
type ResourceDefinition struct {
	Info       ResourceInfo
	FieldSpecs []FieldSpec
	Filters    []NamedFilter
	Groups     []ViewGroup // Group order and labels
}

// Field returns the spec named name.
func (d *ResourceDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.FieldSpecs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// SearchColumns returns the columns matched by free-text search.
func (d *ResourceDefinition) SearchColumns() []string {
	var cols []string
	for _, f := range d.FieldSpecs {
		if f.Search && !f.Virtual {
			cols = append(cols, f.Column())
		}
	}
	return cols
}

// SortColumns returns the ORDER BY columns for a sort field. The public ID
// sorts by its numeric parts; unknown or unsortable fields fall back to the
// default sort.
func (d *ResourceDefinition) SortColumns(field string) []string {
	if field == "" {
		field = d.Info.DefaultSort
	}
	if field == d.Info.IDColumn && len(d.Info.IDSort) > 0 {
		return d.Info.IDSort
	}
	if f, ok := d.Field(field); ok && f.Sort && !f.Virtual {
		return []string{f.Column()}
	}
	if field != d.Info.DefaultSort {
		return d.SortColumns(d.Info.DefaultSort)
	}
	return []string{"id"}
}

// ExportFields returns the exported fields in declaration order.
func (d *ResourceDefinition) ExportFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.FieldSpecs {
		if f.Export {
			out = append(out, f)
		}
	}
	return out
}

// Views describes which fields a grid always shows and which optional groups
// it can toggle.
type Views struct {
	Resource string      `json:"resource"`
	Always   []string    `json:"always"`
	Groups   []ViewGroup `json:"groups"`
}

// ViewGroups collects fields into the definition's view groups.
func (d *ResourceDefinition) ViewGroups() Views {
	v := Views{Resource: d.Info.Key, Always: []string{}, Groups: []ViewGroup{}}
	byKey := make(map[string][]string)
	var trailing []string
	for _, f := range d.FieldSpecs {
		switch f.Group {
		case "":
		case "always":
			v.Always = append(v.Always, f.Name)
		case "always_last":
			trailing = append(trailing, f.Name)
		default:
			byKey[f.Group] = append(byKey[f.Group], f.Name)
		}
	}
	v.Always = append(v.Always, trailing...)

	for _, g := range d.Groups {
		g.Fields = byKey[g.Key]
		if g.Fields == nil {
			g.Fields = []string{}
		}
		v.Groups = append(v.Groups, g)
	}
	return v
}
