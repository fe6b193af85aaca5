package kvtab

import (
	"regexp"
	"strings"
	"testing"
)

func seedUsers(t testing.TB, db *DB) (u1, u2, u3 *Record) {
	t.Helper()
	u1 = must(db.Create("Users", map[string]any{"email": "foo@example.com", "name": "foo", "age": 30}))
	u2 = must(db.Create("Users", map[string]any{"email": "bar@example.com", "name": "bar", "age": 40}))
	u3 = must(db.Create("Users", map[string]any{"email": "baz@example.com", "name": "bar", "age": 50}))
	return
}

func ids(recs []*Record) []int64 {
	out := []int64{}
	for _, r := range recs {
		out = append(out, r.ID())
	}
	return out
}

func TestSearchIndexedEquality(t *testing.T) {
	db := setup(t)
	_, u2, _ := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"email": Eq("bar@example.com")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u2.ID()})

	// Index lookup is exact and case-sensitive.
	c = must(db.Search("Users", Filter{"email": Eq("BAR@example.com")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{})

	// Values with whitespace normalize into the index key and back out.
	rec := must(db.Create("TestTable2", map[string]any{
		"attr_str":  "Some Value",
		"attr_int":  1,
		"attr_hash": map[string]any{},
	}))
	c = must(db.Search("TestTable2", Filter{"attr_str": Eq("Some Value")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{rec.ID()})
}

func TestSearchPrefix(t *testing.T) {
	db := setup(t)
	_, u2, u3 := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"name": HasPrefix("ba")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u2.ID(), u3.ID()})

	c = must(db.Search("Users", Filter{"name": HasPrefix("zzz")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{})
}

func TestSearchRegexAndPredicate(t *testing.T) {
	db := setup(t)
	u1, _, u3 := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"email": Matches(regexp.MustCompile(`^(foo|baz)@`))}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u1.ID(), u3.ID()})

	c = must(db.Search("Users", Filter{"age": Satisfies(func(v any) bool {
		return scalarString(v) >= "40"
	})}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{2, 3})
}

func TestSearchAndIntersection(t *testing.T) {
	db := setup(t)

	p1 := must(db.Create("Pets", map[string]any{"kind": "cat", "color": "black"}))
	must(db.Create("Pets", map[string]any{"kind": "cat", "color": "white"}))
	must(db.Create("Pets", map[string]any{"kind": "dog", "color": "black"}))

	// Two indexed clauses in AND mode: a record must appear in both
	// candidate sets.
	c := must(db.Search("Pets", Filter{"kind": Eq("cat"), "color": Eq("black")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{p1.ID()})

	// Empty intersection yields no records, not a table scan.
	c = must(db.Search("Pets", Filter{"kind": Eq("dog"), "color": Eq("white")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{})
}

func TestSearchAndMixedClauses(t *testing.T) {
	db := setup(t)
	_, u2, _ := seedUsers(t, db)

	// Indexed clause narrows the candidates, non-indexed clause filters
	// post-fetch.
	c := must(db.Search("Users", Filter{
		"name":  Eq("bar"), // not indexed
		"email": Eq("bar@example.com"),
	}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u2.ID()})
}

func TestSearchOr(t *testing.T) {
	db := setup(t)
	u1, u2, u3 := seedUsers(t, db)

	// OR over two indexed clauses: union of the candidate sets.
	c := must(db.Search("Users", Filter{
		"email": Eq("foo@example.com"),
	}, SearchOptions{Or: true}))
	deepEqual(t, ids(must(c.All())), []int64{u1.ID()})

	// Mixed OR: any clause passing admits the record.
	c = must(db.Search("Users", Filter{
		"email": Eq("foo@example.com"),
		"name":  Eq("bar"),
	}, SearchOptions{Or: true}))
	deepEqual(t, ids(must(c.All())), []int64{u1.ID(), u2.ID(), u3.ID()})
}

func TestSearchOrAllIndexedUnion(t *testing.T) {
	db := setup(t)

	p1 := must(db.Create("Pets", map[string]any{"kind": "cat", "color": "black"}))
	p2 := must(db.Create("Pets", map[string]any{"kind": "dog", "color": "white"}))
	must(db.Create("Pets", map[string]any{"kind": "fish", "color": "gold"}))

	c := must(db.Search("Pets", Filter{
		"kind":  Eq("cat"),
		"color": Eq("white"),
	}, SearchOptions{Or: true}))
	deepEqual(t, ids(must(c.All())), []int64{p1.ID(), p2.ID()})
}

// keysSpy records every pattern passed to Keys.
type keysSpy struct {
	*MemStore
	patterns []string
}

func (s *keysSpy) Keys(pattern string) ([]string, error) {
	s.patterns = append(s.patterns, pattern)
	return s.MemStore.Keys(pattern)
}

func TestSearchOrMixedSkipsIndexLookups(t *testing.T) {
	spy := &keysSpy{MemStore: NewMemStore()}
	db := New(spy, testSchema(), Options{Prefix: "kvt", Logf: t.Logf})
	t.Cleanup(func() { db.Close() })
	u1, u2, u3 := seedUsers(t, db)

	spy.patterns = nil
	c := must(db.Search("Users", Filter{
		"email": Eq("foo@example.com"),
		"name":  Eq("bar"),
	}, SearchOptions{Or: true}))
	deepEqual(t, ids(must(c.All())), []int64{u1.ID(), u2.ID(), u3.ID()})

	// Mixed OR degrades to a full scan; the indexed clause must not
	// issue its own KEYS lookup along the way.
	for _, p := range spy.patterns {
		if strings.Contains(p, ":_:email:") {
			t.Errorf("** unexpected index lookup %q", p)
		}
	}
}

func TestSearchEmptyFilterScansAll(t *testing.T) {
	db := setup(t)
	seedUsers(t, db)

	c := must(db.Search("Users", Filter{}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{1, 2, 3})

	c = must(db.Search("Users", Filter{}, SearchOptions{Or: true}))
	deepEqual(t, ids(must(c.All())), []int64{1, 2, 3})
}

func TestSearchFunc(t *testing.T) {
	db := setup(t)
	_, _, u3 := seedUsers(t, db)

	c := must(db.SearchFunc("Users", func(r *Record) bool {
		return r.String("email") == "baz@example.com"
	}))
	deepEqual(t, ids(must(c.All())), []int64{u3.ID()})
}

func TestSearchUndeclaredAttr(t *testing.T) {
	db := setup(t)
	_, err := db.Search("Users", Filter{"bogus": Eq(1)}, SearchOptions{})
	wantValidationErr(t, err, "bogus")
}
