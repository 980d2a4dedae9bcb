package tables

import "github.com/JonMunkholm/inventory/internal/core"

func registerSoftware() {
	f := func(spec core.FieldSpec, label, group string, search, sort bool) core.FieldSpec {
		spec.Label, spec.Group, spec.Search, spec.Sort = label, group, search, sort
		spec.Export = true
		return spec
	}

	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:         core.ResourceSoftware,
			Label:       "Software",
			Path:        "software",
			Table:       "software",
			IDColumn:    "software_id",
			IDPrefix:    "SW",
			IDSort:      []string{"software_id_num"},
			DefaultSort: "software_id",
		},
		FieldSpecs: []core.FieldSpec{
			f(core.FieldSpec{
				Name: "software_id", Type: core.FieldText, ReadOnly: true,
				CSVHeaders: []string{"software_id", "Software ID"},
			}, "Software ID", "always", true, true),
			f(text("category", 100, "category", "Category"), "Category", "always", true, true),
			f(core.FieldSpec{
				Name: "name", Type: core.FieldText, Required: true, MaxLen: 200,
				CSVHeaders: []string{"name", "Name", "Software", "Software Name"},
			}, "Name", "always", true, true),
			f(text("version", 50, "version", "Version"), "Version", "license", false, true),
			f(core.FieldSpec{
				Name: "key", DBColumn: "license_key", Type: core.FieldText, MaxLen: 500,
				CSVHeaders: []string{"key", "Key", "License Key"},
			}, "License Key", "license", true, false),
			f(text("type", 100, "type", "Type", "License Type"), "Type", "license", false, true),
			f(core.FieldSpec{
				Name: "purchase_date", Type: core.FieldDate,
				CSVHeaders: []string{"purchase_date", "Purchase Date"},
			}, "Purchased", "purchase", false, true),
			f(text("purchaser", 200, "purchaser", "Purchaser"), "Purchaser", "purchase", true, true),
			f(text("vendor", 200, "vendor", "Vendor"), "Vendor", "purchase", true, true),
			f(core.FieldSpec{
				Name: "cost", Type: core.FieldNumeric, NonNegative: true,
				CSVHeaders: []string{"cost", "Cost"},
			}, "Cost", "purchase", false, true),
			f(text("deployment", 200, "deployment", "Deployment"), "Deployment", "details", true, true),
			f(text("install_location", 500, "install_location", "Install Location"), "Install Location", "details", false, true),
			f(text("status", 50, "status", "Status"), "Status", "always_last", false, true),
			f(text("comments", 0, "comments", "Comments", "Notes"), "Comments", "details", true, false),
		},
		Filters: []core.NamedFilter{
			{Param: "category", Column: "category", Mode: core.FilterExact},
			{Param: "status", Column: "status", Mode: core.FilterExact},
			{Param: "type", Column: "type", Mode: core.FilterExact},
			{Param: "vendor", Column: "vendor", Mode: core.FilterContains},
			{Param: "purchaser", Column: "purchaser", Mode: core.FilterContains},
			{Param: "deployment", Column: "deployment", Mode: core.FilterContains},
		},
		Groups: []core.ViewGroup{
			{Key: "license", Label: "License"},
			{Key: "purchase", Label: "Purchase"},
			{Key: "details", Label: "Details"},
		},
	})
}
