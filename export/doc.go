// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export serializes admin datasets for download.

	var buf bytes.Buffer
	err := export.Write(&buf, export.FormatCSV, rows)

Rows must be a non-empty slice of structs; an empty slice yields ErrNoData.
CSV columns follow the structs' JSON field names. JSON output is an
indented array.
*/
package export
