package ingest

import "strings"

// columns resolves target fields against a header row. Imported sheets come
// from many hands, so every field carries an ordered list of acceptable
// spellings: exact match wins, then case-insensitive, then empty string.
// A missing column is never an error.
type columns struct {
	headers []string
}

func newColumns(headers []string) *columns {
	return &columns{headers: headers}
}

// index returns the column index for the first alias that matches a header,
// or -1.
func (c *columns) index(aliases ...string) int {
	for _, alias := range aliases {
		for i, h := range c.headers {
			if h == alias {
				return i
			}
		}
	}
	for _, alias := range aliases {
		for i, h := range c.headers {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i
			}
		}
	}
	return -1
}

// field is a bound column: resolve once per sheet, read per row.
type field struct {
	idx int
}

func (c *columns) field(aliases ...string) field {
	return field{idx: c.index(aliases...)}
}

// value reads the field from a row, returning "" for unresolved columns and
// for rows shorter than the column index (trailing blanks are not padded by
// the XLSX reader).
func (f field) value(row []string) string {
	if f.idx < 0 || f.idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[f.idx])
}

// allEmpty reports whether every value is empty: a fully blank row is
// discarded, a partial row is a valid record.
func allEmpty(values ...string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
