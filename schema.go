package kvtab

import (
	"fmt"
	"regexp"
	"strings"
)

// Schema is the set of tables a DB knows about. Built once at startup
// via AddTable and treated as immutable, read-only configuration
// thereafter.
type Schema struct {
	tables            []*Table
	tablesByLowerName map[string]*Table
}

func NewSchema() *Schema {
	return &Schema{
		tablesByLowerName: make(map[string]*Table),
	}
}

func (scm *Schema) Tables() []*Table {
	return append([]*Table(nil), scm.tables...)
}

// TableNamed returns the table registered under name (case-insensitive),
// or nil.
func (scm *Schema) TableNamed(name string) *Table {
	return scm.tablesByLowerName[strings.ToLower(name)]
}

// Attr declares one attribute of a table.
//
// Indexed attributes must hold flat scalar values: index normalization
// is only meaningful for strings. Complex attributes hold arbitrary
// nested structures and are serialized on write. Pattern, when set,
// constrains the value's string form and is enforced before any key is
// written.
type Attr struct {
	Name     string
	Indexed  bool
	Complex  bool
	Optional bool
	Pattern  *regexp.Regexp
}

// Table holds the per-table metadata: attribute list, index flags and
// complex flags. Lifecycle: defined once via AddTable, read-only after.
type Table struct {
	name    string
	attrs   []Attr
	byName  map[string]*Attr
	indexed []string
}

// AddTable registers a table. Invalid declarations are programmer
// errors and panic: duplicate table names, reserved or malformed
// attribute names, and indexed complex attributes.
func AddTable(scm *Schema, name string, attrs []Attr) *Table {
	if name == "" || strings.ContainsAny(name, keySep+"*") {
		panic(fmt.Errorf("invalid table name %q", name))
	}
	lower := strings.ToLower(name)
	if scm.tablesByLowerName[lower] != nil {
		panic(fmt.Errorf("table %q already registered", name))
	}

	tbl := &Table{
		name:   name,
		attrs:  make([]Attr, 0, len(attrs)),
		byName: make(map[string]*Attr, len(attrs)),
	}
	for _, a := range attrs {
		validateAttr(name, a)
		key := strings.ToLower(a.Name)
		if tbl.byName[key] != nil {
			panic(fmt.Errorf("%s: duplicate attribute %q", name, a.Name))
		}
		tbl.attrs = append(tbl.attrs, a)
		tbl.byName[key] = &tbl.attrs[len(tbl.attrs)-1]
		if a.Indexed {
			tbl.indexed = append(tbl.indexed, a.Name)
		}
	}

	scm.tables = append(scm.tables, tbl)
	scm.tablesByLowerName[lower] = tbl
	return tbl
}

func validateAttr(table string, a Attr) {
	if a.Name == "" {
		panic(fmt.Errorf("%s: empty attribute name", table))
	}
	if strings.EqualFold(a.Name, "id") || strings.HasPrefix(a.Name, reservedMark) {
		panic(fmt.Errorf("%s: attribute name %q is reserved", table, a.Name))
	}
	if strings.ContainsAny(a.Name, keySep+"*") || wsRun.MatchString(a.Name) {
		panic(fmt.Errorf("%s: malformed attribute name %q", table, a.Name))
	}
	if a.Indexed && a.Complex {
		panic(fmt.Errorf("%s: attribute %q cannot be both indexed and complex", table, a.Name))
	}
}

func (tbl *Table) Name() string {
	return tbl.name
}

// Attributes returns the declared attribute names in declaration order.
// Reserved names ("id", anything starting with "_") can never appear
// here; they are rejected at registration.
func (tbl *Table) Attributes() []string {
	out := make([]string, len(tbl.attrs))
	for i, a := range tbl.attrs {
		out[i] = a.Name
	}
	return out
}

func (tbl *Table) IndexedAttributes() []string {
	return append([]string(nil), tbl.indexed...)
}

func (tbl *Table) IsIndexed(attr string) bool {
	a := tbl.attr(attr)
	return a != nil && a.Indexed
}

func (tbl *Table) IsComplex(attr string) bool {
	a := tbl.attr(attr)
	return a != nil && a.Complex
}

func (tbl *Table) attr(name string) *Attr {
	return tbl.byName[strings.ToLower(name)]
}
