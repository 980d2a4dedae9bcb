package core

// query.go turns list-endpoint query parameters into SQL predicates. It is
// the server-side form of the grid's search box, filter bar and column sort,
// so a shared URL reproduces the same view.

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// FilterOperator represents a comparison operator for column filters.
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "eq"
	OpStartsWith FilterOperator = "starts"
	OpEndsWith   FilterOperator = "ends"
	OpGreaterEq  FilterOperator = "gte"
	OpLessEq     FilterOperator = "lte"
	OpGreater    FilterOperator = "gt"
	OpLess       FilterOperator = "lt"
	OpIn         FilterOperator = "in"
)

var validOperators = map[FilterOperator]bool{
	OpContains: true, OpEquals: true, OpStartsWith: true, OpEndsWith: true,
	OpGreaterEq: true, OpLessEq: true, OpGreater: true, OpLess: true, OpIn: true,
}

// ColumnFilter represents a single filter condition on a column.
type ColumnFilter struct {
	Field    string
	DBColumn string
	Operator FilterOperator
	Value    string
	Type     FieldType
}

// ListQuery is a parsed list request.
type ListQuery struct {
	Search         string
	Regex          bool
	Filters        []ColumnFilter
	SortBy         string
	SortDesc       bool
	IncludeDeleted bool
	DeletedOnly    bool
	Limit          uint64
	Offset         uint64
}

// maxListLimit caps limit so one request cannot pull an unbounded page.
const maxListLimit = 10000

// ParseListQuery reads search, filter, sort and paging parameters. Named
// filters come from the definition; generic filters use
// filter[field]=op:value. Unknown filter fields or operators and invalid
// regex patterns are rejected with ErrInvalidInput.
func ParseListQuery(def *ResourceDefinition, v url.Values) (ListQuery, error) {
	q := ListQuery{
		Search: strings.TrimSpace(v.Get("search")),
		SortBy: v.Get("sort_by"),
	}

	var err error
	if q.Regex, err = parseBoolParam(v, "regex"); err != nil {
		return q, err
	}
	if q.IncludeDeleted, err = parseBoolParam(v, "include_deleted"); err != nil {
		return q, err
	}

	switch strings.ToLower(v.Get("sort_order")) {
	case "", "asc":
	case "desc":
		q.SortDesc = true
	default:
		return q, invalidf("sort_order must be asc or desc")
	}

	if q.Regex && q.Search != "" {
		if _, err := regexp.Compile("(?i)" + q.Search); err != nil {
			return q, invalidf("invalid regex: %v", err)
		}
	}

	for _, nf := range def.Filters {
		raw := strings.TrimSpace(v.Get(nf.Param))
		if raw == "" {
			continue
		}
		op := OpEquals
		switch nf.Mode {
		case FilterContains:
			op = OpContains
		case FilterMin:
			op = OpGreaterEq
		case FilterMax:
			op = OpLessEq
		}
		f := ColumnFilter{Field: nf.Param, DBColumn: nf.Column, Operator: op, Value: raw, Type: nf.Type}
		if _, err := f.typedValue(raw); err != nil {
			return q, invalidf("%s: %v", nf.Param, err)
		}
		q.Filters = append(q.Filters, f)
	}

	var filterKeys []string
	for key := range v {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			filterKeys = append(filterKeys, key)
		}
	}
	sort.Strings(filterKeys)

	for _, key := range filterKeys {
		vals := v[key]
		field := key[len("filter[") : len(key)-1]
		spec, ok := def.Field(field)
		if !ok || spec.Virtual {
			return q, invalidf("unknown filter field %q", field)
		}
		for _, raw := range vals {
			f, err := parseColumnFilter(spec, raw)
			if err != nil {
				return q, err
			}
			q.Filters = append(q.Filters, f)
		}
	}

	if q.Limit, err = parseUintParam(v, "limit"); err != nil {
		return q, err
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset, err = parseUintParam(v, "offset"); err != nil {
		return q, err
	}

	return q, nil
}

func parseColumnFilter(spec FieldSpec, raw string) (ColumnFilter, error) {
	f := ColumnFilter{Field: spec.Name, DBColumn: spec.Column(), Type: spec.Type}

	op, value, found := strings.Cut(raw, ":")
	if found && validOperators[FilterOperator(op)] {
		f.Operator = FilterOperator(op)
		f.Value = value
	} else {
		f.Value = raw
		f.Operator = OpEquals
		if spec.Type == FieldText {
			f.Operator = OpContains
		}
	}

	switch f.Operator {
	case OpContains, OpStartsWith, OpEndsWith:
		if spec.Type != FieldText && spec.Type != FieldEnum {
			return f, invalidf("operator %s is not supported for field %q", f.Operator, spec.Name)
		}
	case OpIn:
		for _, part := range strings.Split(f.Value, "|") {
			if _, err := f.typedValue(part); err != nil {
				return f, invalidf("%s: %v", spec.Name, err)
			}
		}
		return f, nil
	}

	if _, err := f.typedValue(f.Value); err != nil {
		return f, invalidf("%s: %v", spec.Name, err)
	}
	return f, nil
}

// typedValue converts a filter value to the column's Go type so comparisons
// happen on the column type rather than text.
func (f ColumnFilter) typedValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case FieldInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return i, nil
	case FieldNumeric:
		n := ToPgNumeric(raw)
		if !n.Valid {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return n, nil
	case FieldDate:
		d := ToPgDate(raw)
		if !d.Valid {
			return nil, fmt.Errorf("invalid date %q", raw)
		}
		return d, nil
	case FieldBool:
		b := ToPgBool(raw)
		if !b.Valid {
			return nil, fmt.Errorf("invalid boolean %q", raw)
		}
		return b.Bool, nil
	default:
		return raw, nil
	}
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Sqlizer renders the filter as a predicate.
func (f ColumnFilter) Sqlizer() sq.Sqlizer {
	col := f.DBColumn
	switch f.Operator {
	case OpContains:
		return sq.Expr(col+"::text ILIKE ?", "%"+escapeLike(f.Value)+"%")
	case OpStartsWith:
		return sq.Expr(col+"::text ILIKE ?", escapeLike(f.Value)+"%")
	case OpEndsWith:
		return sq.Expr(col+"::text ILIKE ?", "%"+escapeLike(f.Value))
	case OpIn:
		parts := strings.Split(f.Value, "|")
		vals := make([]any, 0, len(parts))
		for _, p := range parts {
			v, _ := f.typedValue(p)
			vals = append(vals, v)
		}
		return sq.Eq{col: vals}
	}

	v, _ := f.typedValue(f.Value)
	if f.Operator == OpEquals && (f.Type == FieldText || f.Type == FieldEnum) {
		return sq.Expr("lower("+col+") = lower(?)", v)
	}
	switch f.Operator {
	case OpGreaterEq:
		return sq.GtOrEq{col: v}
	case OpLessEq:
		return sq.LtOrEq{col: v}
	case OpGreater:
		return sq.Gt{col: v}
	case OpLess:
		return sq.Lt{col: v}
	default:
		return sq.Eq{col: v}
	}
}

// Where renders the whole query as a predicate.
func (q ListQuery) Where(def *ResourceDefinition) sq.Sqlizer {
	where := sq.And{}

	switch {
	case q.DeletedOnly:
		where = append(where, sq.Eq{"is_deleted": true})
	case !q.IncludeDeleted:
		where = append(where, sq.Eq{"is_deleted": false})
	}

	if q.Search != "" {
		match := sq.Or{}
		for _, col := range def.SearchColumns() {
			if q.Regex {
				match = append(match, sq.Expr(col+"::text ~* ?", q.Search))
			} else {
				match = append(match, sq.Expr(col+"::text ILIKE ?", "%"+escapeLike(q.Search)+"%"))
			}
		}
		if len(match) > 0 {
			where = append(where, match)
		}
	}

	for _, f := range q.Filters {
		where = append(where, f.Sqlizer())
	}
	return where
}

// OrderBy renders sort_by/sort_order, with id as the tie-breaker.
func (q ListQuery) OrderBy(def *ResourceDefinition) []string {
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	cols := def.SortColumns(q.SortBy)
	out := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		out = append(out, c+" "+dir+" NULLS LAST")
	}
	return append(out, "id "+dir)
}

// Params converts the query into database list parameters.
func (q ListQuery) Params(def *ResourceDefinition) db.ListParams {
	return db.ListParams{
		Where:   q.Where(def),
		OrderBy: q.OrderBy(def),
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
}

func parseBoolParam(v url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return false, nil
	}
	b := ToPgBool(raw)
	if !b.Valid {
		return false, invalidf("%s must be true or false", name)
	}
	return b.Bool, nil
}

func parseUintParam(v url.Values, name string) (uint64, error) {
	raw := strings.TrimSpace(v.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, invalidf("%s must be a non-negative integer", name)
	}
	return n, nil
}
