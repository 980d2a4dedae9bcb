package core

// convert.go moves values between user input (CSV cells, JSON strings) and
// PostgreSQL types.
//
// All ToPg* functions return pgtype values with Valid=false for empty or
// invalid input so the database stores NULL. The *String helpers go the
// other way for CSV export and change tracking.

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years that
// would land more than this many years in the future go back a century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// DateLayout is the wire and export format of dates.
const DateLayout = "2006-01-02"

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ParseDate parses the supported date layouts, ISO first, then US month/day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ToPgDate converts a string to pgtype.Date.
func ToPgDate(s string) pgtype.Date {
	t, ok := ParseDate(s)
	if !ok {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// cleanNumber strips currency symbols, thousands separators and the
// accounting form "(123.45)".
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	return s
}

// ToPgNumeric converts a string to pgtype.Numeric.
func ToPgNumeric(s string) pgtype.Numeric {
	s = cleanNumber(s)
	if s == "" || !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgInt4 converts a string to pgtype.Int4. Whole-number decimals such as
// "85.0" are accepted.
func ToPgInt4(s string) pgtype.Int4 {
	s = cleanNumber(s)
	if s == "" {
		return pgtype.Int4{Valid: false}
	}
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return pgtype.Int4{Int32: int32(i), Valid: true}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int32(f)) {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(f), Valid: true}
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts true/false, yes/no, t/f, y/n and 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// TextString returns the text or "" when NULL.
func TextString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// DateString formats a date as YYYY-MM-DD or "" when NULL.
func DateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// NumericString formats a numeric without exponent, or "" when NULL.
func NumericString(n pgtype.Numeric) string {
	if !n.Valid || n.NaN {
		return ""
	}
	if n.Int == nil {
		return "0"
	}
	r := new(big.Rat).SetInt(n.Int)
	if n.Exp > 0 {
		r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)))
		return r.FloatString(0)
	}
	scale := int(-n.Exp)
	r.Quo(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)))
	return r.FloatString(scale)
}

// Int4String formats an int4 or "" when NULL.
func Int4String(i pgtype.Int4) string {
	if !i.Valid {
		return ""
	}
	return strconv.Itoa(int(i.Int32))
}

// YesNo formats a nullable bool as Yes/No, or "" when NULL.
func YesNo(b pgtype.Bool) string {
	if !b.Valid {
		return ""
	}
	if b.Bool {
		return "Yes"
	}
	return "No"
}

// CleanCell removes common CSV artifacts from a cell value: surrounding
// whitespace, the Excel formula prefix (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"`))
}
