package kvtab

import (
	"regexp"
	"sort"
	"strings"
)

// A Cond is one filter clause against a single attribute. Conds are a
// closed set of variants: equality, prefix, regexp and predicate.
type Cond interface {
	isCond()
}

type (
	eqCond     struct{ value any }
	prefixCond struct{ prefix string }
	regexCond  struct{ re *regexp.Regexp }
	predCond   struct{ fn func(value any) bool }
)

func (eqCond) isCond()     {}
func (prefixCond) isCond() {}
func (regexCond) isCond()  {}
func (predCond) isCond()   {}

// Eq matches an attribute exactly (case-sensitive). On an indexed
// attribute this resolves through the index instead of a table scan.
func Eq(value any) Cond {
	return eqCond{value}
}

// HasPrefix matches an attribute whose string form starts with prefix.
func HasPrefix(prefix string) Cond {
	return prefixCond{prefix}
}

// Matches matches an attribute whose string form matches re.
func Matches(re *regexp.Regexp) Cond {
	return regexCond{re}
}

// Satisfies tests an attribute's raw value with fn.
func Satisfies(fn func(value any) bool) Cond {
	return predCond{fn}
}

// Filter maps attribute names to conditions.
type Filter map[string]Cond

type SearchOptions struct {
	// Or makes a record match if any single clause passes, instead of
	// requiring all of them.
	Or bool
}

// Search compiles the filter into a cursor over matching records. The
// candidate id set is computed eagerly; records are fetched and
// filtered lazily as the cursor advances.
func (db *DB) Search(table string, filter Filter, opt SearchOptions) (*Cursor, error) {
	tbl, err := db.table(table)
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		db:   db,
		tbl:  tbl,
		spec: searchSpec{filter: filter, opt: opt},
	}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// SearchFunc runs a full-table search with a single post-fetch
// predicate applied to each record.
func (db *DB) SearchFunc(table string, pred func(*Record) bool) (*Cursor, error) {
	tbl, err := db.table(table)
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		db:   db,
		tbl:  tbl,
		spec: searchSpec{pred: pred},
	}
	if err := c.Reset(); err != nil {
		return nil, err
	}
	return c, nil
}

type searchSpec struct {
	filter Filter
	pred   func(*Record) bool
	opt    SearchOptions
}

type recordTest func(*Record) bool

// compileSearch turns the search spec into a candidate subset (nil for
// a full scan) plus the post-fetch tests and the number of passes a
// record needs.
//
// In AND mode each indexed equality clause contributes a candidate id
// set and the cursor iterates their intersection; an id must appear in
// every indexed clause. In OR mode indexed clauses are only usable as a
// set union when the whole filter is index-resolvable; otherwise they
// degrade to equality tests over a full scan. OR with zero tests passes
// every candidate.
func (db *DB) compileSearch(tbl *Table, spec searchSpec) (subset []int64, maxID int64, tests []recordTest, need int, err error) {
	names := make([]string, 0, len(spec.filter))
	for name := range spec.filter {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if tbl.attr(name) == nil {
			return nil, 0, nil, 0, validationErrf(tbl.name, name, "attribute not declared")
		}
	}

	indexable := func(name string) (eqCond, bool) {
		eq, isEq := spec.filter[name].(eqCond)
		return eq, isEq && tbl.attr(name).Indexed
	}

	if spec.opt.Or {
		// The union path only applies when every clause resolves
		// through the index; decide that before issuing any lookup so
		// a mixed filter costs no wasted KEYS round trips.
		allIndexable := spec.pred == nil && len(names) > 0
		for _, name := range names {
			if _, ok := indexable(name); !ok {
				allIndexable = false
				break
			}
		}
		if allIndexable {
			var idSets [][]int64
			for _, name := range names {
				eq, _ := indexable(name)
				ids, err := db.indexLookup(tbl, tbl.attr(name).Name, eq.value)
				if err != nil {
					return nil, 0, nil, 0, err
				}
				idSets = append(idSets, ids)
			}
			return unionIDs(idSets), 0, nil, 0, nil
		}
		for _, name := range names {
			tests = append(tests, compileTest(tbl.attr(name).Name, spec.filter[name]))
		}
		if spec.pred != nil {
			tests = append(tests, spec.pred)
		}
		need = 0
		if len(tests) > 0 {
			need = 1
		}
	} else {
		var idSets [][]int64
		for _, name := range names {
			a := tbl.attr(name)
			if eq, ok := indexable(name); ok {
				ids, err := db.indexLookup(tbl, a.Name, eq.value)
				if err != nil {
					return nil, 0, nil, 0, err
				}
				idSets = append(idSets, ids)
				continue // enforced by the intersection, no test needed
			}
			tests = append(tests, compileTest(a.Name, spec.filter[name]))
		}
		if spec.pred != nil {
			tests = append(tests, spec.pred)
		}
		need = len(tests)
		if len(idSets) > 0 {
			return intersectIDs(idSets), 0, tests, need, nil
		}
	}

	// Full sequential scan up to the counter's high-water mark.
	maxID, err = db.counterValue(tbl)
	if err != nil {
		return nil, 0, nil, 0, err
	}
	return nil, maxID, tests, need, nil
}

func compileTest(attr string, cond Cond) recordTest {
	switch cond := cond.(type) {
	case eqCond:
		want := scalarString(cond.value)
		return func(rec *Record) bool {
			return rec.String(attr) == want
		}
	case prefixCond:
		return func(rec *Record) bool {
			return strings.HasPrefix(rec.String(attr), cond.prefix)
		}
	case regexCond:
		return func(rec *Record) bool {
			return cond.re.MatchString(rec.String(attr))
		}
	case predCond:
		return func(rec *Record) bool {
			return cond.fn(rec.Get(attr))
		}
	default:
		panic("unknown cond")
	}
}

// indexLookup resolves an indexed equality clause to record ids purely
// from key listing, with no record fetches.
func (db *DB) indexLookup(tbl *Table, attr string, value any) ([]int64, error) {
	keys, err := db.store.Keys(db.indexSearchPattern(tbl, attr, value))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		if id := db.recordIDFromKey(tbl, k); id >= 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (db *DB) counterValue(tbl *Table) (int64, error) {
	raw, ok, err := db.store.Get(db.counterKey(tbl))
	if err != nil || !ok {
		return 0, err
	}
	return parseID(raw), nil
}

func intersectIDs(sets [][]int64) []int64 {
	counts := make(map[int64]int)
	for _, set := range sets {
		seen := make(map[int64]bool, len(set))
		for _, id := range set {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}
	out := []int64{} // non-nil: an empty subset is not a full scan
	for id, n := range counts {
		if n == len(sets) {
			out = append(out, id)
		}
	}
	sortIDs(out)
	return out
}

func unionIDs(sets [][]int64) []int64 {
	seen := make(map[int64]bool)
	out := []int64{} // non-nil: an empty subset is not a full scan
	for _, set := range sets {
		for _, id := range set {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
