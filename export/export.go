// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// ErrNoData is returned for an empty dataset.
var ErrNoData = errors.New("no data to export")

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Filename returns the download name of a dataset, e.g. "users_export.csv".
func Filename(dataset, format string) string {
	return dataset + "_export." + format
}

// Write serializes rows in the given format.
func Write(w io.Writer, format string, rows any) error {
	switch format {
	case FormatCSV:
		return CSV(w, rows)
	case FormatJSON:
		return JSON(w, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// JSON writes rows as a pretty-printed array.
func JSON(w io.Writer, rows any) error {
	if _, err := rowValues(rows); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// CSV writes a header row of JSON field names followed by one line per
// row. Lines are joined with CRLF. Strings are quoted with embedded
// quotes doubled, nulls become "" and numbers and booleans are bare.
func CSV(w io.Writer, rows any) error {
	v, err := rowValues(rows)
	if err != nil {
		return err
	}

	cols := columns(indirectType(v.Type().Elem()))
	if len(cols) == 0 {
		return fmt.Errorf("export: %s has no exported fields", v.Type().Elem())
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	lines := make([]string, 0, v.Len()+1)
	lines = append(lines, strings.Join(names, ","))

	cells := make([]string, len(cols))
	for i := 0; i < v.Len(); i++ {
		row := reflect.Indirect(v.Index(i))
		for j, c := range cols {
			cell, err := formatCell(fieldByIndex(row, c.index))
			if err != nil {
				return fmt.Errorf("export row %d field %s: %w", i, c.name, err)
			}
			cells[j] = cell
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	_, err = io.WriteString(w, strings.Join(lines, "\r\n"))
	return err
}

func rowValues(rows any) (reflect.Value, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("export: expected a slice, got %T", rows)
	}
	if v.Len() == 0 {
		return reflect.Value{}, ErrNoData
	}
	if indirectType(v.Type().Elem()).Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("export: expected a slice of structs, got %T", rows)
	}
	return v, nil
}

type column struct {
	name  string
	index []int
}

// columns lists the JSON-visible fields of t, flattening embedded structs.
func columns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && name == "" && indirectType(f.Type).Kind() == reflect.Struct {
			for _, c := range columns(indirectType(f.Type)) {
				c.index = append([]int{i}, c.index...)
				cols = append(cols, c)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		cols = append(cols, column{name: name, index: []int{i}})
	}
	return cols
}

// fieldByIndex walks index, returning an invalid Value at a nil embedded
// pointer.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func formatCell(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return `""`, nil
	}
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return "", err
	}
	if string(raw) == "null" {
		return `""`, nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return Quote(s), nil
	}
	return string(raw), nil
}

// Quote wraps s in double quotes, doubling any embedded quote.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
