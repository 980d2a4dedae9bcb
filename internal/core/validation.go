package core

// validation.go checks and converts field values before they are written.
//
// Every write path (JSON create/update, CSV preview, CSV import) funnels
// through NormalizeValue so a value accepted by one is accepted by all. The
// normalized text is what previews show; PgValue turns it into the pgtype
// value stored in the column.

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// WriteMode distinguishes creates, which enforce required fields, from
// partial updates.
type WriteMode int

const (
	WriteCreate WriteMode = iota
	WriteUpdate
)

// RawString renders a decoded JSON value (or CSV cell) as text. The second
// result is false for JSON null.
func RawString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// NormalizeValue normalizes and validates one value for spec. Empty input is
// valid and means NULL; required checks happen in BuildValues.
func NormalizeValue(spec FieldSpec, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}
	if spec.Normalizer != nil {
		s = spec.Normalizer(s)
	}

	switch spec.Type {
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, s) {
				return ev, nil
			}
		}
		return s, fmt.Errorf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))

	case FieldDate:
		t, ok := ParseDate(s)
		if !ok {
			return s, fmt.Errorf("invalid date format (use YYYY-MM-DD or MM/DD/YYYY)")
		}
		return t.Format(DateLayout), nil

	case FieldNumeric:
		n := ToPgNumeric(s)
		if !n.Valid {
			return s, fmt.Errorf("invalid number format")
		}
		if spec.NonNegative && n.Int != nil && n.Int.Sign() < 0 {
			return s, fmt.Errorf("must be zero or greater")
		}
		return NumericString(n), nil

	case FieldInt:
		i := ToPgInt4(s)
		if !i.Valid {
			return s, fmt.Errorf("invalid number format (expected a whole number)")
		}
		if spec.NonNegative && i.Int32 < 0 {
			return s, fmt.Errorf("must be zero or greater")
		}
		return strconv.Itoa(int(i.Int32)), nil

	case FieldBool:
		b := ToPgBool(s)
		if !b.Valid {
			return s, fmt.Errorf("must be yes/no, true/false, or 1/0")
		}
		return strconv.FormatBool(b.Bool), nil
	}

	if spec.MaxLen > 0 && utf8.RuneCountInString(s) > spec.MaxLen {
		return s, fmt.Errorf("must be at most %d characters", spec.MaxLen)
	}
	if spec.Validator != nil {
		if err := spec.Validator(s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// PgValue converts normalized text into the pgtype value for spec's column.
func PgValue(spec FieldSpec, normalized string) any {
	switch spec.Type {
	case FieldDate:
		return ToPgDate(normalized)
	case FieldNumeric:
		return ToPgNumeric(normalized)
	case FieldInt:
		return ToPgInt4(normalized)
	case FieldBool:
		if normalized == "" {
			return pgtype.Bool{}
		}
		return ToPgBool(normalized)
	default:
		return ToPgText(normalized)
	}
}

// BuildValues validates a JSON payload against the definition and returns a
// column -> value map for the keys present. Unknown, virtual and read-only
// keys are ignored so clients may send back whole records. An explicit null
// or empty string clears the column.
func (d *ResourceDefinition) BuildValues(payload map[string]any, mode WriteMode) (map[string]any, ValidationErrors) {
	values := make(map[string]any)
	var errs ValidationErrors

	for _, spec := range d.FieldSpecs {
		if spec.Virtual || spec.ReadOnly || (mode == WriteUpdate && spec.Immutable) {
			continue
		}

		raw, present := payload[spec.Name]
		if !present {
			if mode == WriteCreate && spec.Required {
				errs.Add(spec.Name, "", "required field is empty")
			}
			continue
		}

		s, _ := RawString(raw)
		norm, err := NormalizeValue(spec, s)
		if err != nil {
			errs.Add(spec.Name, s, err.Error())
			continue
		}
		if norm == "" && spec.Required {
			errs.Add(spec.Name, "", "required field is empty")
			continue
		}
		values[spec.Column()] = PgValue(spec, norm)
	}

	return values, errs
}

// NormalizeRow validates a CSV-shaped row keyed by field name, returning
// normalized text for every known field and the problems found. Required
// fields are enforced.
func (d *ResourceDefinition) NormalizeRow(data map[string]string) (map[string]string, ValidationErrors) {
	out := make(map[string]string, len(data))
	var errs ValidationErrors

	for _, spec := range d.FieldSpecs {
		raw, ok := data[spec.Name]
		if !ok && !spec.Required {
			continue
		}
		norm, err := NormalizeValue(spec, raw)
		if err != nil {
			errs.Add(spec.Name, strings.TrimSpace(raw), err.Error())
			continue
		}
		if norm == "" && spec.Required {
			errs.Add(spec.Name, "", "required field is empty")
			continue
		}
		if ok {
			out[spec.Name] = norm
		}
	}
	return out, errs
}

// RowValues converts a normalized row into a column -> value map. Fields
// absent from the row are left out, so updates only touch what the file
// carries.
func (d *ResourceDefinition) RowValues(normalized map[string]string, mode WriteMode) map[string]any {
	values := make(map[string]any, len(normalized))
	for _, spec := range d.FieldSpecs {
		if spec.Virtual || spec.ReadOnly || (mode == WriteUpdate && spec.Immutable) {
			continue
		}
		if v, ok := normalized[spec.Name]; ok {
			values[spec.Column()] = PgValue(spec, v)
		}
	}
	return values
}
