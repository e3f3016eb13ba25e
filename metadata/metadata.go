/*
Package metadata implements the lookup table of displayed names and category
identifiers keyed by source image filename.

The table is normally populated from a CSV file of the form:

	filename,displayed name,category

and is read-only once loaded so it can be shared between any number of
conversion workers.
*/
package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// NameLength is the size in bytes of the displayed name field
	NameLength = 32
)

var errFields = errors.New("metadata: expected filename, name and category")

// Record is the metadata stored in each picture file.
type Record struct {
	Name     string
	Category uint8
}

// Default is the record used for any file not present in the table.
var Default = Record{
	Name:     "Default Image",
	Category: 0,
}

// Table maps source filenames to records.
type Table struct {
	records map[string]Record
}

// New returns an empty table
func New() *Table {
	return &Table{
		records: make(map[string]Record),
	}
}

// Length returns the number of records in the table
func (t *Table) Length() int {
	return len(t.records)
}

// Set stores the record for the given filename. The first record for a
// filename wins.
func (t *Table) Set(filename string, r Record) {
	if _, ok := t.records[filename]; !ok {
		t.records[filename] = r
	}
}

// Lookup returns the record for filename, or Default if there isn't one.
func (t *Table) Lookup(filename string) Record {
	if t == nil {
		return Default
	}
	if r, ok := t.records[filename]; ok {
		return r
	}
	return Default
}

// Each calls fn for every record in the table in no particular order.
func (t *Table) Each(fn func(string, Record) error) error {
	for k, v := range t.records {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ParseCSV reads a table from r. Blank lines are ignored and any field may be
// surrounded with whitespace.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := New()
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(fields) < 3 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w on line %d", errFields, line)
		}

		category, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 8)
		if err != nil {
			line, _ := cr.FieldPos(2)
			return nil, fmt.Errorf("metadata: bad category on line %d: %w", line, err)
		}

		t.Set(strings.TrimSpace(fields[0]), Record{
			Name:     strings.TrimSpace(fields[1]),
			Category: uint8(category),
		})
	}

	return t, nil
}
