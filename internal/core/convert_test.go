package core

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPgNumeric Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: "123"},
		{name: "zero", input: "0", wantValid: true, wantValue: "0"},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: "-456"},
		{name: "decimal number", input: "123.45", wantValid: true, wantValue: "123.45"},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: "0.99"},

		// Currency and separators
		{name: "dollar sign", input: "$1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "euro sign", input: "€1234.56", wantValid: true, wantValue: "1234.56"},
		{name: "pound sign", input: "£1234.56", wantValid: true, wantValue: "1234.56"},
		{name: "thousands separator", input: "1,234,567.89", wantValid: true, wantValue: "1234567.89"},

		// Accounting format
		{name: "accounting negative", input: "(123.45)", wantValid: true, wantValue: "-123.45"},
		{name: "accounting negative with currency", input: "($1,234.56)", wantValid: true, wantValue: "-1234.56"},

		{name: "leading whitespace", input: "  123", wantValid: true, wantValue: "123"},

		// Invalid
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "mixed", input: "12abc", wantValid: false},
		{name: "two decimal points", input: "1.2.3", wantValid: false},
		{name: "currency only", input: "$", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			if s := NumericString(got); s != tt.wantValue {
				t.Errorf("ToPgNumeric(%q) = %s, want %s", tt.input, s, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgInt4 Tests
// ----------------------------------------------------------------------------

func TestToPgInt4(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      int32
	}{
		{"42", true, 42},
		{"-7", true, -7},
		{"85.0", true, 85},
		{"1,000", true, 1000},
		{"85.5", false, 0},
		{"abc", false, 0},
		{"", false, 0},
		{"99999999999", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgInt4(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgInt4(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Int32 != tt.want {
				t.Errorf("ToPgInt4(%q) = %d, want %d", tt.input, got.Int32, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgBool Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	trueValues := []string{"true", "TRUE", "t", "yes", "Y", "1", " yes "}
	falseValues := []string{"false", "F", "no", "n", "0"}
	invalid := []string{"", "maybe", "2", "on"}

	for _, v := range trueValues {
		if got := ToPgBool(v); !got.Valid || !got.Bool {
			t.Errorf("ToPgBool(%q) = %+v, want true", v, got)
		}
	}
	for _, v := range falseValues {
		if got := ToPgBool(v); !got.Valid || got.Bool {
			t.Errorf("ToPgBool(%q) = %+v, want false", v, got)
		}
	}
	for _, v := range invalid {
		if got := ToPgBool(v); got.Valid {
			t.Errorf("ToPgBool(%q) = %+v, want invalid", v, got)
		}
	}
}

// ----------------------------------------------------------------------------
// Date Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"2024/03/15", "2024-03-15", true},
		{"3/15/2024", "2024-03-15", true},
		{"03/15/2024", "2024-03-15", true},
		{"03-15-2024", "2024-03-15", true},
		{"03/15/24", "2024-03-15", true},
		{"Mar 15, 2024", "2024-03-15", true},
		{"15 Mar 2024", "2024-03-15", true},
		{"20240315", "2024-03-15", true},
		{"2024-03-15T10:30:00Z", "2024-03-15", true},
		{"", "", false},
		{"not a date", "", false},
		{"13/45/2024", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.Format(DateLayout) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(DateLayout), tt.want)
			}
		})
	}
}

func TestParseDate_TwoDigitYearPivot(t *testing.T) {
	// Years more than TwoDigitYearPivot ahead of now fall back a century.
	farFuture := time.Now().Year() + TwoDigitYearPivot + 5
	input := time.Date(farFuture, 1, 1, 0, 0, 0, 0, time.UTC).Format("01/02/06")

	got, ok := ParseDate(input)
	if !ok {
		t.Fatalf("ParseDate(%q) failed", input)
	}
	if got.Year() != farFuture-100 {
		t.Errorf("ParseDate(%q) year = %d, want %d", input, got.Year(), farFuture-100)
	}
}

func TestDateString(t *testing.T) {
	if got := DateString(pgtype.Date{}); got != "" {
		t.Errorf("DateString(NULL) = %q", got)
	}
	d := ToPgDate("12/31/2025")
	if got := DateString(d); got != "2025-12-31" {
		t.Errorf("DateString = %q, want 2025-12-31", got)
	}
}

// ----------------------------------------------------------------------------
// Text, UUID and display helpers
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	if got := ToPgText("  "); got.Valid {
		t.Errorf("ToPgText(blank) should be NULL, got %+v", got)
	}
	if got := ToPgText("  hello "); !got.Valid || got.String != "hello" {
		t.Errorf("ToPgText = %+v, want trimmed hello", got)
	}
}

func TestToPgUUID_RoundTrip(t *testing.T) {
	const id = "0b5f8a9e-3c1d-4e2f-9a7b-6c5d4e3f2a1b"
	u := ToPgUUID(id)
	if !u.Valid {
		t.Fatal("ToPgUUID rejected a valid UUID")
	}
	if got := PgUUIDToString(u); got != id {
		t.Errorf("PgUUIDToString = %q, want %q", got, id)
	}
	if ToPgUUID("nope").Valid || ToPgUUID("").Valid {
		t.Error("ToPgUUID accepted an invalid UUID")
	}
	if PgUUIDToString(pgtype.UUID{}) != "" {
		t.Error("PgUUIDToString(NULL) should be empty")
	}
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		in   pgtype.Bool
		want string
	}{
		{pgtype.Bool{}, ""},
		{pgtype.Bool{Bool: true, Valid: true}, "Yes"},
		{pgtype.Bool{Bool: false, Valid: true}, "No"},
	}
	for _, tt := range tests {
		if got := YesNo(tt.in); got != tt.want {
			t.Errorf("YesNo(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInt4String(t *testing.T) {
	if Int4String(pgtype.Int4{}) != "" {
		t.Error("Int4String(NULL) should be empty")
	}
	if got := Int4String(pgtype.Int4{Int32: 12, Valid: true}); got != "12" {
		t.Errorf("Int4String = %q", got)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  plain  `, "plain"},
		{`="00123"`, "00123"},
		{`=SUM`, "SUM"},
		{`"quoted"`, "quoted"},
		{``, ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
