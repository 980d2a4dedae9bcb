package tables

import "github.com/JonMunkholm/inventory/internal/core"

// registerSubscriptions declares vendor subscriptions. Export columns use
// field names; the later headers are the aliases found in legacy tracking
// spreadsheets.
func registerSubscriptions() {
	f := func(spec core.FieldSpec, label, group string) core.FieldSpec {
		spec.Label, spec.Group = label, group
		spec.Export = true
		return spec
	}

	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:         core.ResourceSubscriptions,
			Label:       "Subscriptions",
			Path:        "subscriptions",
			Table:       "subscriptions",
			IDColumn:    "subscription_id",
			IDPrefix:    "SUB",
			IDSort:      []string{"subscription_id_num"},
			DefaultSort: "subscription_id",
		},
		FieldSpecs: []core.FieldSpec{
			f(core.FieldSpec{
				Name: "subscription_id", Type: core.FieldText, ReadOnly: true,
				CSVHeaders: []string{"subscription_id", "Subscription ID"},
				Search:     true, Sort: true,
			}, "Subscription ID", "always"),
			f(core.FieldSpec{
				Name: "provider", Type: core.FieldText, Required: true, MaxLen: 200,
				CSVHeaders: []string{"provider", "Provider", "Vendor"},
				Search:     true, Sort: true,
			}, "Provider", "always"),
			{Name: "category_id", Type: core.FieldInt, Label: "Category ID"},
			{Name: "subcategory_id", Type: core.FieldInt, Label: "Subcategory ID"},
			// Names come from the subscription_details view; imports resolve
			// them to ids.
			f(core.FieldSpec{
				Name: "category_name", Type: core.FieldText, ReadOnly: true, MaxLen: 100,
				CSVHeaders: []string{"category_name", "Category"},
				Sort:       true,
			}, "Category", "always"),
			f(core.FieldSpec{
				Name: "subcategory_name", Type: core.FieldText, ReadOnly: true, MaxLen: 100,
				CSVHeaders: []string{"subcategory_name", "Sector / Subject", "Sector /Subject", "Subcategory"},
				Sort:       true,
			}, "Subcategory", "always"),
			f(text("link", 500, "link", "Link", "URL"), "Link", "access"),
			f(text("authentication", 200, "authentication", "Authentication", "Authentication Method"), "Authentication", "access"),
			f(core.FieldSpec{
				Name: "username", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"username", "Username", "User"},
				Search:     true,
			}, "Username", "access"),
			f(text("password", 500, "password", "Password"), "Password", ""),
			{Name: "password_masked", Type: core.FieldText, Virtual: true, ReadOnly: true, Label: "Password", Group: "access"},
			f(core.FieldSpec{
				Name: "in_lastpass", Type: core.FieldBool,
				CSVHeaders: []string{"in_lastpass", "In Lastpass?", "In LastPass"},
			}, "In LastPass", "access"),
			f(core.FieldSpec{
				Name: "status", Type: core.FieldEnum, EnumValues: []string{"Active", "Inactive"},
				CSVHeaders: []string{"status", "Status"},
				Sort:       true,
			}, "Status", "always_last"),
			f(core.FieldSpec{
				Name: "description_value", Type: core.FieldText,
				CSVHeaders: []string{"description_value", "Description & Value to CCM", "Description"},
				Search:     true,
			}, "Description", "details"),
			f(core.FieldSpec{
				Name: "value_level", Type: core.FieldEnum, EnumValues: []string{"H", "M", "L"},
				CSVHeaders: []string{"value_level", "Value"},
				Sort:       true,
			}, "Value", "details"),
			f(core.FieldSpec{
				Name: "ccm_owner", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"ccm_owner", "CCM Owner", "Owner"},
				Search:     true, Sort: true,
			}, "Owner", "always"),
			f(text("subscription_log", 0, "subscription_log", "Subscription Log"), "Log", "details"),
			f(text("payment_method", 200, "payment_method", "Payment Method"), "Payment Method", "financial"),
			f(text("cost", 100, "cost", "Payment Amount", "Cost"), "Cost", "financial"),
			f(core.FieldSpec{
				Name: "annual_cost", Type: core.FieldNumeric, NonNegative: true,
				CSVHeaders: []string{"annual_cost", "Annual Cost"},
				Sort:       true,
			}, "Annual Cost", "financial"),
			f(core.FieldSpec{
				Name: "payment_frequency", Type: core.FieldEnum, EnumValues: []string{"Monthly", "Annual", "Other"},
				CSVHeaders: []string{"payment_frequency", "Payment Frequency", "Frequency"},
				Sort:       true,
			}, "Frequency", "financial"),
			f(core.FieldSpec{
				Name: "renewal_date", Type: core.FieldDate,
				CSVHeaders: []string{"renewal_date", "Renew Date", "Renewal Date"},
				Sort:       true,
			}, "Renewal", "always"),
			f(core.FieldSpec{
				Name: "subscriber_email", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"subscriber_email", "Destination email", "Subscriber Email"},
				Search:     true,
			}, "Subscriber Email", "communication"),
			f(text("forward_to", 200, "forward_to", "Forward to"), "Forward To", "communication"),
			f(text("email_routing", 100, "email_routing", "RR email routing", "Email Routing"), "Email Routing", "communication"),
			f(text("email_volume_per_week", 100, "email_volume_per_week", "Email volume / week"), "Emails / Week", "communication"),
			f(core.FieldSpec{
				Name: "main_vendor_contact", Type: core.FieldText, MaxLen: 500,
				CSVHeaders: []string{"main_vendor_contact", "Main contact", "Vendor Contact"},
				Search:     true,
			}, "Vendor Contact", "communication"),
			f(text("actions_todos", 0, "actions_todos", "Actions", "To Dos"), "Actions", "details"),
			f(core.FieldSpec{
				Name: "last_confirmed_alive", Type: core.FieldDate,
				CSVHeaders: []string{"last_confirmed_alive", "Last confirmed alive"},
				Sort:       true,
			}, "Last Confirmed", "details"),
			f(text("access_level_required", 200, "access_level_required", "Access Level Required"), "Access Level", "access"),
			{Name: "notes", Type: core.FieldText, CSVHeaders: []string{"notes", "Notes"}, Label: "Notes", Group: "details"},
			f(core.FieldSpec{
				Name: "is_deleted", Type: core.FieldBool, ReadOnly: true,
				CSVHeaders: []string{"is_deleted"},
			}, "Deleted", ""),
		},
		Filters: []core.NamedFilter{
			{Param: "status", Column: "status", Mode: core.FilterExact, Type: core.FieldEnum},
			{Param: "category_id", Column: "category_id", Mode: core.FilterExact, Type: core.FieldInt},
			{Param: "subcategory_id", Column: "subcategory_id", Mode: core.FilterExact, Type: core.FieldInt},
			{Param: "value_level", Column: "value_level", Mode: core.FilterExact, Type: core.FieldEnum},
			{Param: "ccm_owner", Column: "ccm_owner", Mode: core.FilterContains},
		},
		Groups: []core.ViewGroup{
			{Key: "access", Label: "Access"},
			{Key: "financial", Label: "Financial"},
			{Key: "communication", Label: "Communication"},
			{Key: "details", Label: "Details"},
		},
	})
}
