package kvtab

import (
	"iter"
)

// Cursor is a lazy, restartable iterator over a search's matching
// records. The candidate id set is fixed when the cursor is built (or
// Reset); records are fetched and filtered one at a time as the cursor
// advances. A cursor holds a non-owning reference to its DB and must
// not be shared across goroutines without synchronization.
type Cursor struct {
	db   *DB
	tbl  *Table
	spec searchSpec

	subset []int64 // candidate ids; nil means full sequential scan
	maxID  int64   // scan bound when subset is nil
	tests  []recordTest
	need   int
	pos    int
}

// Next returns the next matching record, or (nil, nil) when the cursor
// is exhausted. Candidate ids with no live record (removed, or below a
// counter that outlived its rows) are silently skipped.
func (c *Cursor) Next() (*Record, error) {
	for {
		c.pos++
		var id int64
		if c.subset != nil {
			if c.pos >= len(c.subset) {
				return nil, nil
			}
			id = c.subset[c.pos]
		} else {
			id = int64(c.pos)
			if id > c.maxID {
				return nil, nil
			}
		}

		rec, err := c.db.findIn(c.tbl, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}

		ok := 0
		for _, test := range c.tests {
			if test(rec) {
				ok++
			}
		}
		if ok >= c.need {
			return rec, nil
		}
	}
}

// All drains the cursor into a slice.
func (c *Cursor) All() ([]*Record, error) {
	var out []*Record
	for {
		rec, err := c.Next()
		if err != nil {
			return out, err
		}
		if rec == nil {
			return out, nil
		}
		out = append(out, rec)
	}
}

// Records iterates the remaining matches. Iteration stops after the
// first error.
func (c *Cursor) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := c.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if rec == nil {
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Reset re-runs the original search to rebuild the candidate set and
// filters, then rewinds. This is not a stable re-iteration: mutations
// between iterations change the result set, and iteration counts may
// legitimately differ.
func (c *Cursor) Reset() error {
	subset, maxID, tests, need, err := c.db.compileSearch(c.tbl, c.spec)
	if err != nil {
		return err
	}
	c.subset, c.maxID, c.tests, c.need = subset, maxID, tests, need
	c.pos = -1
	return nil
}

// UpdateAll drains the cursor, applying fields to every match. Returns
// the number of records updated. Reset before reusing the cursor.
func (c *Cursor) UpdateAll(fields map[string]any) (int, error) {
	var n int
	for {
		rec, err := c.Next()
		if err != nil {
			return n, err
		}
		if rec == nil {
			return n, nil
		}
		if _, err := c.db.Update(rec, fields); err != nil {
			return n, err
		}
		n++
	}
}

// RemoveAll drains the cursor, removing every match. Returns the number
// of records removed.
func (c *Cursor) RemoveAll() (int, error) {
	var n int
	for {
		rec, err := c.Next()
		if err != nil {
			return n, err
		}
		if rec == nil {
			return n, nil
		}
		if err := c.db.Remove(rec); err != nil {
			return n, err
		}
		n++
	}
}
