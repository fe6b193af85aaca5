package kvtab

import (
	"strings"
)

// Find reconstructs a record by listing every key under its id. There
// is no single "row" read: each attribute is a separate GET. A missing
// record is an absence, not an error: the result is (nil, nil).
func (db *DB) Find(table string, id int64) (*Record, error) {
	tbl, err := db.table(table)
	if err != nil {
		return nil, err
	}
	return db.findIn(tbl, id)
}

func (db *DB) findIn(tbl *Table, id int64) (*Record, error) {
	keys, err := db.store.Keys(db.recordPattern(tbl, id))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		if db.verbose {
			db.logf("db: FIND.NOTFOUND %s/%d", tbl.name, id)
		}
		return nil, nil
	}

	base := db.recordKeyPrefix(tbl, id)
	values := make(map[string]any)
	for _, k := range keys {
		suffix := strings.TrimPrefix(k, base)
		if strings.HasPrefix(suffix, reservedMark) {
			continue // holder and index keys
		}
		a := tbl.attr(suffix)
		if a == nil {
			continue // not in this schema; leave untouched
		}
		raw, ok, err := db.store.Get(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue // deleted between KEYS and GET
		}
		if a.Complex {
			v, err := decodeComplex([]byte(raw))
			if err != nil {
				return nil, err
			}
			values[a.Name] = v
		} else {
			values[a.Name] = raw
		}
	}

	rec := &Record{table: tbl, id: id, values: values}
	if db.verbose {
		db.logf("db: FIND %s/%d => %s", tbl.name, id, rec.GoString())
	}
	return rec, nil
}

// Count counts holder keys, so it is O(table size) rather than a
// counter read: the counter only tracks the high-water mark, removed
// ids are never reclaimed from it.
func (db *DB) Count(table string) (int, error) {
	tbl, err := db.table(table)
	if err != nil {
		return 0, err
	}
	keys, err := db.store.Keys(db.tablePattern(tbl))
	if err != nil {
		return 0, err
	}

	base := buildKey(db.prefix, tbl.name) + keySep
	var n int
	for _, k := range keys {
		// A holder key is exactly <base><id>:_ — two segments. The
		// glob also returns attribute, index and counter keys.
		suffix := strings.TrimPrefix(k, base)
		segs := strings.Split(suffix, keySep)
		if len(segs) == 2 && segs[1] == reservedMark && isNumeric(segs[0]) {
			n++
		}
	}
	return n, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
