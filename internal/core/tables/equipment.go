package tables

import "github.com/JonMunkholm/inventory/internal/core"

// registerEquipment declares computers, monitors, scanners and printers.
// Fields are listed in export column order.
func registerEquipment() {
	score := func(name, header string) core.FieldSpec {
		return core.FieldSpec{
			Name: name, Type: core.FieldInt, NonNegative: true,
			CSVHeaders: []string{header}, Export: true, Sort: true,
			Group: "machinePerformance", Label: header,
		}
	}

	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:         core.ResourceEquipment,
			Label:       "Equipment",
			Path:        "computers",
			Table:       "equipment",
			IDColumn:    "equipment_id",
			IDSort:      []string{"equipment_type", "equipment_id_num"},
			DefaultSort: "equipment_name",
			MatchFields: []string{"equipment_id", "serial_number"},
		},
		FieldSpecs: []core.FieldSpec{
			{
				Name: "equipment_id", Type: core.FieldText, ReadOnly: true,
				Normalizer: core.NormalizeEquipmentID, Validator: core.ValidateEquipmentID,
				CSVHeaders: []string{"Equipment ID"}, Export: true,
				Search: true, Sort: true, Group: "always", Label: "Equipment ID",
			},
			{
				Name: "equipment_type", Type: core.FieldEnum, Required: true, Immutable: true,
				EnumValues: core.EquipmentTypes,
				CSVHeaders: []string{"Equipment Type", "Type"}, Export: true,
				Sort: true, Label: "Type",
			},
			{
				Name: "serial_number", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"Serial Number", "Serial"}, Export: true,
				Search: true, Sort: true, Label: "Serial Number",
			},
			{
				Name: "model", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"Model"}, Export: true,
				Search: true, Sort: true, Label: "Model",
			},
			{
				Name: "manufacturer", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"Manufacturer"}, Export: true,
				Search: true, Sort: true, Group: "summary", Label: "Manufacturer",
			},
			{
				Name: "computer_subtype", Type: core.FieldText, MaxLen: 50,
				Normalizer: core.TitleCase,
				CSVHeaders: []string{"Computer Subtype", "Subtype"}, Export: true,
				Sort: true, Group: "always", Label: "Subtype",
			},
			{
				Name: "cpu_model", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"CPU Model", "CPU"}, Export: true,
				Search: true, Sort: true, Group: "machineSpec", Label: "CPU Model",
			},
			{
				Name: "cpu_speed", Type: core.FieldText, MaxLen: 50,
				Normalizer: core.NormalizeCPUSpeed, Validator: core.ValidateCPUSpeed,
				CSVHeaders: []string{"CPU Speed"}, Export: true,
				Sort: true, Group: "machineSpec", Label: "CPU Speed",
			},
			{
				Name: "operating_system", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"Operating System", "OS"}, Export: true,
				Search: true, Sort: true, Group: "machineSpec", Label: "Operating System",
			},
			{
				Name: "ram", Type: core.FieldText, MaxLen: 50,
				CSVHeaders: []string{"RAM", "Memory"}, Export: true,
				Sort: true, Group: "machineSpec", Label: "RAM",
			},
			{
				Name: "storage", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"Storage"}, Export: true,
				Sort: true, Group: "machineSpec", Label: "Storage",
			},
			{
				Name: "video_card", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"Video Card", "GPU"}, Export: true,
				Sort: true, Group: "machineSpec", Label: "Video Card",
			},
			{
				Name: "display_resolution", Type: core.FieldText, MaxLen: 50,
				CSVHeaders: []string{"Display Resolution", "Resolution"}, Export: true,
				Sort: true, Group: "machineSpec", Label: "Display Resolution",
			},
			// Single CSV column holding both adapters; split by SplitMACs.
			{
				Name: "mac_address", Type: core.FieldText, Virtual: true,
				CSVHeaders: []string{"MAC Address", "MAC"}, Export: true,
				Label: "MAC Address",
			},
			{
				Name: "mac_lan", Type: core.FieldText, MaxLen: 17,
				Normalizer: core.NormalizeMAC, Validator: core.ValidateMAC,
				CSVHeaders: []string{"MAC LAN", "LAN MAC"},
				Search: true, Group: "machineSpec", Label: "MAC (LAN)",
			},
			{
				Name: "mac_wlan", Type: core.FieldText, MaxLen: 17,
				Normalizer: core.NormalizeMAC, Validator: core.ValidateMAC,
				CSVHeaders: []string{"MAC WLAN", "WLAN MAC", "WiFi MAC"},
				Search: true, Group: "machineSpec", Label: "MAC (WLAN)",
			},
			{
				Name: "manufacturing_date", Type: core.FieldDate,
				CSVHeaders: []string{"Manufacturing Date"}, Export: true,
				Sort: true, Group: "summary", Label: "Manufactured",
			},
			{
				Name: "acquisition_date", Type: core.FieldDate,
				CSVHeaders: []string{"Acquisition Date", "Purchase Date"}, Export: true,
				Sort: true, Group: "summary", Label: "Acquired",
			},
			{
				Name: "location", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"Location"}, Export: true,
				Search: true, Sort: true, Group: "summary", Label: "Location",
			},
			{
				Name: "cost", Type: core.FieldNumeric, NonNegative: true,
				CSVHeaders: []string{"Cost", "Price"}, Export: true,
				Sort: true, Group: "summary", Label: "Cost",
			},
			{
				Name: "purpose", Type: core.FieldText, MaxLen: 100,
				Normalizer: core.TitleCase,
				CSVHeaders: []string{"Purpose"},
				Sort: true, Group: "assignment", Label: "Purpose",
			},
			{
				Name: "ownership", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"Ownership"},
				Sort: true, Group: "summary", Label: "Ownership",
			},
			score("cpu_score", "CPU Score"),
			score("score_2d", "2D Score"),
			score("score_3d", "3D Score"),
			score("memory_score", "Memory Score"),
			score("disk_score", "Disk Score"),
			score("overall_rating", "Overall Rating"),
			{
				Name: "equipment_name", Type: core.FieldText, MaxLen: 100,
				CSVHeaders: []string{"Equipment Name", "Computer Name", "Hostname"}, Export: true,
				Search: true, Sort: true, Group: "always", Label: "Name",
			},
			{
				Name: "ip_address", Type: core.FieldText, MaxLen: 45,
				Validator:  core.ValidateIPv4,
				CSVHeaders: []string{"IP Address", "IP"}, Export: true,
				Search: true, Sort: true, Group: "assignment", Label: "IP Address",
			},
			{
				Name: "assignment_date", Type: core.FieldDate,
				CSVHeaders: []string{"Assignment Date"}, Export: true,
				Sort: true, Group: "assignment", Label: "Assigned",
			},
			{
				Name: "primary_user", Type: core.FieldText, MaxLen: 200,
				CSVHeaders: []string{"Primary User", "User", "Assigned To"}, Export: true,
				Search: true, Sort: true, Group: "always", Label: "Primary User",
			},
			{
				Name: "usage_type", Type: core.FieldText, MaxLen: 50,
				Normalizer: core.TitleCase,
				CSVHeaders: []string{"Usage Type", "Usage"}, Export: true,
				Sort: true, Group: "assignment", Label: "Usage",
			},
			{
				Name: "status", Type: core.FieldText, MaxLen: 50,
				Normalizer: core.TitleCase,
				CSVHeaders: []string{"Status"}, Export: true,
				Sort: true, Group: "always_last", Label: "Status",
			},
			{
				Name: "notes", Type: core.FieldText,
				CSVHeaders: []string{"Notes", "Comments"}, Export: true,
				Search: true, Group: "summary", Label: "Notes",
			},
		},
		Filters: []core.NamedFilter{
			{Param: "status", Column: "status", Mode: core.FilterExact},
			{Param: "equipment_type", Column: "equipment_type", Mode: core.FilterExact, Type: core.FieldEnum},
			{Param: "usage_type", Column: "usage_type", Mode: core.FilterExact},
			{Param: "location", Column: "location", Mode: core.FilterContains},
			{Param: "primary_user", Column: "primary_user", Mode: core.FilterContains},
			{Param: "model", Column: "model", Mode: core.FilterContains},
			{Param: "min_rating", Column: "overall_rating", Mode: core.FilterMin, Type: core.FieldInt},
			{Param: "max_rating", Column: "overall_rating", Mode: core.FilterMax, Type: core.FieldInt},
		},
		Groups: []core.ViewGroup{
			{Key: "summary", Label: "Summary"},
			{Key: "machineSpec", Label: "Machine Spec"},
			{Key: "machinePerformance", Label: "Machine Performance"},
			{Key: "assignment", Label: "Assignment"},
		},
	})
}
