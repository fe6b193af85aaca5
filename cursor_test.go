package kvtab

import (
	"testing"
)

func TestCursorSkipsMissingIDs(t *testing.T) {
	db := setup(t)
	u1, u2, u3 := seedUsers(t, db)
	ensureNoErr(t, db.Remove(u2))

	c := must(db.Search("Users", Filter{}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u1.ID(), u3.ID()})
}

func TestCursorLazyNext(t *testing.T) {
	db := setup(t)
	u1, u2, u3 := seedUsers(t, db)

	c := must(db.Search("Users", Filter{}, SearchOptions{}))
	r := must(c.Next())
	isnonnil(t, r)
	eq(t, r.ID(), u1.ID())

	// Mutations after construction are visible to later Next calls:
	// candidates are fetched on demand.
	ensureNoErr(t, db.Remove(u2))

	r = must(c.Next())
	isnonnil(t, r)
	eq(t, r.ID(), u3.ID())
	isnil(t, must(c.Next()))
	isnil(t, must(c.Next()))
}

func TestCursorReset(t *testing.T) {
	db := setup(t)
	u1, u2, u3 := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"name": Eq("bar")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{u2.ID(), u3.ID()})

	// Reset re-runs the search; mutations in between change the result
	// set, including its size.
	must(db.Update(u1, map[string]any{"name": "bar"}))
	ensureNoErr(t, db.Remove(u3))

	ensureNoErr(t, c.Reset())
	deepEqual(t, ids(must(c.All())), []int64{u1.ID(), u2.ID()})
}

func TestCursorResetRebuildsIndexCandidates(t *testing.T) {
	db := setup(t)

	p1 := must(db.Create("Pets", map[string]any{"kind": "cat", "color": "black"}))
	c := must(db.Search("Pets", Filter{"kind": Eq("cat")}, SearchOptions{}))
	deepEqual(t, ids(must(c.All())), []int64{p1.ID()})

	p2 := must(db.Create("Pets", map[string]any{"kind": "cat", "color": "white"}))
	ensureNoErr(t, c.Reset())
	deepEqual(t, ids(must(c.All())), []int64{p1.ID(), p2.ID()})
}

func TestCursorUpdateAll(t *testing.T) {
	db := setup(t)
	_, u2, u3 := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"name": Eq("bar")}, SearchOptions{}))
	n := must(c.UpdateAll(map[string]any{"age": 99}))
	eq(t, n, 2)

	eq(t, must(db.Find("Users", u2.ID())).String("age"), "99")
	eq(t, must(db.Find("Users", u3.ID())).String("age"), "99")

	// A drained cursor stays exhausted until Reset.
	isnil(t, must(c.Next()))
	ensureNoErr(t, c.Reset())
	eq(t, len(must(c.All())), 2)
}

func TestCursorRemoveAll(t *testing.T) {
	db := setup(t)
	u1, _, _ := seedUsers(t, db)

	c := must(db.Search("Users", Filter{"name": Eq("bar")}, SearchOptions{}))
	n := must(c.RemoveAll())
	eq(t, n, 2)

	eq(t, must(db.Count("Users")), 1)
	isnonnil(t, must(db.Find("Users", u1.ID())))
}

func TestCursorRecordsIterator(t *testing.T) {
	db := setup(t)
	seedUsers(t, db)

	c := must(db.Search("Users", Filter{}, SearchOptions{}))
	var got []int64
	for rec, err := range c.Records() {
		ensureNoErr(t, err)
		got = append(got, rec.ID())
	}
	deepEqual(t, got, []int64{1, 2, 3})
}
