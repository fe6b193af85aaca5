package kvtab

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one entity instance: a table, an assigned id and an
// attribute map. Ids are unique within a table and immutable once
// assigned. Records are plain values; mutations go through DB.Update.
type Record struct {
	table  *Table
	id     int64
	values map[string]any
}

func (r *Record) Table() *Table {
	return r.table
}

func (r *Record) ID() int64 {
	return r.id
}

// Get returns the attribute's value, or nil if absent.
func (r *Record) Get(attr string) any {
	a := r.table.attr(attr)
	if a == nil {
		return nil
	}
	return r.values[a.Name]
}

// String returns the attribute's value in string form ("" if absent).
func (r *Record) String(attr string) string {
	v := r.Get(attr)
	if v == nil {
		return ""
	}
	return scalarString(v)
}

// Int returns the attribute's value parsed as an integer (0 if absent
// or non-numeric).
func (r *Record) Int(attr string) int64 {
	n, _ := strconv.ParseInt(r.String(attr), 10, 64)
	return n
}

// Values returns a copy of the attribute map.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r *Record) GoString() string {
	names := make([]string, 0, len(r.values))
	for k := range r.values {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d{", r.table.name, r.id)
	for i, k := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
