package core

// upload.go reads uploaded CSV files. Files are size-capped before they get
// here, so they are parsed whole: the BOM is stripped, invalid UTF-8 is
// replaced, and the header row is located among the first rows by matching
// the resource's known header aliases.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyFile is returned for files with no data rows.
	ErrEmptyFile = errors.New("empty file: no data rows found")

	// ErrNotCSV is returned when the upload name lacks a .csv extension.
	ErrNotCSV = errors.New("invalid csv: only .csv files are accepted")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRow is one data row with its 1-based line number in the file.
type CSVRow struct {
	Line  int
	Cells []string
}

// CSVFile is a parsed upload.
type CSVFile struct {
	Header     []string
	HeaderLine int

	// Columns maps each header position to a field name, or "" when the
	// header is not recognized. The first column mapped to a field wins.
	Columns []string
	Rows    []CSVRow
}

// CheckCSVName rejects uploads whose file name is not .csv.
func CheckCSVName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return ErrNotCSV
	}
	return nil
}

// MatchHeader maps a CSV header to a field: first by its aliases
// (case-insensitive), then by its lower_snake form matching the field name.
func (d *ResourceDefinition) MatchHeader(header string) (FieldSpec, bool) {
	h := CleanCell(header)
	if h == "" {
		return FieldSpec{}, false
	}
	for _, f := range d.FieldSpecs {
		for _, alias := range f.CSVHeaders {
			if strings.EqualFold(alias, h) {
				return f, true
			}
		}
	}
	return d.Field(snakeHeader(h))
}

// snakeHeader lower-cases a header and joins its words with underscores.
func snakeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// ParseCSV parses an upload for def. searchRows bounds how far down the
// header may be; maxRows caps the data rows accepted.
func (d *ResourceDefinition) ParseCSV(data []byte, searchRows, maxRows int) (*CSVFile, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		file    *CSVFile
		scanned int
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		line, _ := r.FieldPos(0)

		if file == nil {
			scanned++
			if cols, ok := d.headerColumns(rec); ok {
				file = &CSVFile{Header: rec, HeaderLine: line, Columns: cols}
				continue
			}
			if scanned >= searchRows {
				return nil, d.headerError()
			}
			continue
		}

		if isEmptyRow(rec) {
			continue
		}
		if maxRows > 0 && len(file.Rows) >= maxRows {
			return nil, fmt.Errorf("too many rows: the limit is %d per file", maxRows)
		}
		file.Rows = append(file.Rows, CSVRow{Line: line, Cells: rec})
	}

	if file == nil {
		return nil, d.headerError()
	}
	if missing := file.missingRequired(d); len(missing) > 0 {
		return nil, fmt.Errorf("missing required column: %s", strings.Join(missing, ", "))
	}
	if len(file.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return file, nil
}

func (d *ResourceDefinition) headerError() error {
	var want []string
	for _, f := range d.FieldSpecs {
		if f.Required {
			want = append(want, f.Header())
		}
	}
	return fmt.Errorf("header not found: expected a row naming %s", strings.Join(want, ", "))
}

// headerColumns maps a candidate header row. A row qualifies when it names
// a required or matching field, or at least two fields.
func (d *ResourceDefinition) headerColumns(rec []string) ([]string, bool) {
	cols := make([]string, len(rec))
	seen := make(map[string]bool)
	matched, required := 0, false
	for i, h := range rec {
		f, ok := d.MatchHeader(h)
		if !ok || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		cols[i] = f.Name
		matched++
		required = required || f.Required || d.Info.isMatchField(f.Name)
	}
	return cols, required || matched >= 2
}

// missingRequired lists the required columns the file lacks. Files naming a
// match field skip the check.
func (f *CSVFile) missingRequired(d *ResourceDefinition) []string {
	have := make(map[string]bool, len(f.Columns))
	for _, c := range f.Columns {
		have[c] = true
	}
	for _, name := range d.Info.MatchFields {
		if have[name] {
			return nil
		}
	}
	var missing []string
	for _, spec := range d.FieldSpecs {
		if spec.Required && !have[spec.Name] {
			missing = append(missing, spec.Header())
		}
	}
	return missing
}

// Record returns the row's cells keyed by field name. Ragged rows are
// tolerated: missing cells are absent, extra cells ignored.
func (f *CSVFile) Record(row CSVRow) map[string]string {
	out := make(map[string]string, len(f.Columns))
	for i, name := range f.Columns {
		if name == "" || i >= len(row.Cells) {
			continue
		}
		out[name] = CleanCell(row.Cells[i])
	}
	return out
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("�"))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
