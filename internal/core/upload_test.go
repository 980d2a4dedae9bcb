package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ----------------------------------------------------------------------------
// File name and header matching
// ----------------------------------------------------------------------------

func TestCheckCSVName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"inventory.csv", false},
		{"INVENTORY.CSV", false},
		{"export 2024.csv", false},
		{"inventory.xlsx", true},
		{"csv", true},
		{"", true},
	}
	for _, tt := range tests {
		err := CheckCSVName(tt.name)
		if tt.wantErr && !errors.Is(err, ErrNotCSV) {
			t.Errorf("CheckCSVName(%q) = %v, want ErrNotCSV", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("CheckCSVName(%q) unexpected error: %v", tt.name, err)
		}
	}
}

func TestMatchHeader(t *testing.T) {
	def := gadgetDefinition()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Name", "name", true},
		{"gadget name", "name", true},
		{"  PRICE ", "price", true},
		{`="Kind"`, "kind", true},
		{"Loaned", "loaned", true}, // snake form of the field name
		{"gadget id", "gadget_id", true},
		{"Colour", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			f, ok := def.MatchHeader(tt.header)
			if ok != tt.ok || f.Name != tt.want {
				t.Errorf("MatchHeader(%q) = (%q, %v), want (%q, %v)", tt.header, f.Name, ok, tt.want, tt.ok)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseCSV
// ----------------------------------------------------------------------------

func TestParseCSV_FindsHeaderBelowTitleRows(t *testing.T) {
	def := gadgetDefinition()
	data := "\xEF\xBB\xBFGadget report\n,,\nName,Kind,Price,Unknown\nLamp,small,$5,x\n\nDesk,Large,120,y\n"

	file, err := def.ParseCSV([]byte(data), 10, 0)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if file.HeaderLine != 3 {
		t.Errorf("HeaderLine = %d, want 3", file.HeaderLine)
	}
	if diff := cmp.Diff([]string{"name", "kind", "price", ""}, file.Columns); diff != "" {
		t.Errorf("Columns (-want +got):\n%s", diff)
	}
	if len(file.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(file.Rows))
	}
	if file.Rows[0].Line != 4 || file.Rows[1].Line != 6 {
		t.Errorf("row lines = %d, %d; want 4, 6", file.Rows[0].Line, file.Rows[1].Line)
	}

	want := map[string]string{"name": "Lamp", "kind": "small", "price": "$5"}
	if diff := cmp.Diff(want, file.Record(file.Rows[0])); diff != "" {
		t.Errorf("Record (-want +got):\n%s", diff)
	}
}

func TestParseCSV_FirstDuplicateColumnWins(t *testing.T) {
	def := gadgetDefinition()
	file, err := def.ParseCSV([]byte("Name,Gadget Name\nfirst,second\n"), 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := file.Record(file.Rows[0])["name"]; got != "first" {
		t.Errorf("name = %q, want first", got)
	}
}

func TestParseCSV_RaggedRows(t *testing.T) {
	def := gadgetDefinition()
	file, err := def.ParseCSV([]byte("Name,Kind,Price\nLamp\nDesk,Large,1,extra,cells\n"), 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"name": "Lamp"}, file.Record(file.Rows[0])); diff != "" {
		t.Errorf("short row (-want +got):\n%s", diff)
	}
	if got := file.Record(file.Rows[1]); len(got) != 3 {
		t.Errorf("long row = %v", got)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	def := gadgetDefinition()

	tests := []struct {
		name       string
		data       string
		searchRows int
		maxRows    int
		wantIs     error
		wantSubstr string
	}{
		{name: "empty", data: "", searchRows: 5, wantIs: ErrEmptyFile},
		{name: "whitespace", data: "  \n \n", searchRows: 5, wantIs: ErrEmptyFile},
		{name: "header only", data: "Name,Kind\n", searchRows: 5, wantIs: ErrEmptyFile},
		{name: "header only with blank rows", data: "Name,Kind\n,,\n", searchRows: 5, wantIs: ErrEmptyFile},
		{name: "no header", data: "a,b\nc,d\n", searchRows: 5, wantSubstr: "header not found"},
		{name: "header beyond search window", data: "x\ny\nz\nName\nLamp\n", searchRows: 2, wantSubstr: "header not found"},
		{name: "missing required column", data: "Kind,Price\nSmall,1\n", searchRows: 5, wantSubstr: "missing required column: Name"},
		{name: "too many rows", data: "Name\na\nb\nc\n", searchRows: 5, maxRows: 2, wantSubstr: "too many rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := def.ParseCSV([]byte(tt.data), tt.searchRows, tt.maxRows)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantSubstr != "" && !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSubstr)
			}
		})
	}
}

func TestParseCSV_InvalidUTF8(t *testing.T) {
	def := gadgetDefinition()
	file, err := def.ParseCSV([]byte("Name\nCaf\xe9\n"), 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := file.Record(file.Rows[0])["name"]; got != "Caf�" {
		t.Errorf("name = %q, want replacement character", got)
	}
}
