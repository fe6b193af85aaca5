package kvtab

import (
	"strconv"
)

// Create validates fields against the table's schema, mints a new id
// from the table counter and fans the record out into its keys: holder,
// one index key per indexed attribute, one value key per attribute.
//
// The fan-out is not atomic. Validation happens before any write, but a
// store failure mid-sequence leaves the keys written so far in place.
func (db *DB) Create(table string, fields map[string]any) (*Record, error) {
	tbl, err := db.table(table)
	if err != nil {
		return nil, err
	}
	values, err := tbl.buildValues(fields, nil)
	if err != nil {
		return nil, err
	}

	id, err := db.store.Incr(db.counterKey(tbl), 1)
	if err != nil {
		return nil, err
	}

	rec := &Record{table: tbl, id: id, values: values}
	if err := db.writeRecord(rec); err != nil {
		return nil, err
	}
	if db.verbose {
		db.logf("db: CREATE %s/%d => %s", tbl.name, id, rec.GoString())
	}
	return rec, nil
}

// Update recomputes the full attribute map from the record's current
// values overridden by any key present in overrides, then rewrites the
// record under its existing id. Index keys for overwritten values are
// cleaned and rewritten; the counter is untouched.
func (db *DB) Update(rec *Record, overrides map[string]any) (*Record, error) {
	tbl := rec.table
	values, err := tbl.buildValues(overrides, rec.values)
	if err != nil {
		return nil, err
	}

	out := &Record{table: tbl, id: rec.id, values: values}
	if err := db.writeRecord(out); err != nil {
		return nil, err
	}
	if db.verbose {
		db.logf("db: UPDATE %s/%d => %s", tbl.name, rec.id, out.GoString())
	}
	return out, nil
}

// buildValues assembles the full attribute map for a write: fields
// override base (nil base means create). All validation happens here,
// before the caller touches the store.
func (tbl *Table) buildValues(fields, base map[string]any) (map[string]any, error) {
	for name := range fields {
		if tbl.attr(name) == nil {
			return nil, validationErrf(tbl.name, name, "attribute not declared")
		}
	}

	out := make(map[string]any, len(tbl.attrs))
	for i := range tbl.attrs {
		a := &tbl.attrs[i]
		v, ok := fields[a.Name]
		if !ok && base != nil {
			v, ok = base[a.Name]
		}
		if !ok {
			if a.Optional {
				continue
			}
			return nil, validationErrf(tbl.name, a.Name, "missing attribute")
		}
		if a.Pattern != nil && !a.Pattern.MatchString(scalarString(v)) {
			return nil, validationErrf(tbl.name, a.Name, "value %q does not match %s", scalarString(v), a.Pattern)
		}
		out[a.Name] = v
	}
	return out, nil
}

func (db *DB) writeRecord(rec *Record) error {
	tbl, id := rec.table, rec.id
	now := db.now()
	ts := strconv.FormatInt(now.Unix(), 10)

	if err := db.store.Set(db.holderKey(tbl, id), ts); err != nil {
		return err
	}

	for i := range tbl.attrs {
		a := &tbl.attrs[i]
		v, ok := rec.values[a.Name]
		if !ok {
			continue
		}

		if a.Indexed {
			// Drop every prior index entry for this attribute first:
			// at most one live index key per (table, id, attribute).
			// The pattern delete also clears residual state from
			// earlier partial writes.
			stale, err := db.store.Keys(db.indexClearPattern(tbl, id, a.Name))
			if err != nil {
				return err
			}
			for _, k := range stale {
				if err := db.store.Del(k); err != nil {
					return err
				}
			}
			if err := db.store.Set(db.indexKey(tbl, id, a.Name, v), ts); err != nil {
				return err
			}
		}

		var raw string
		if a.Complex {
			raw = string(encodeComplex(v, now))
		} else {
			raw = scalarString(v)
		}
		if err := db.store.Set(db.attrKey(tbl, id, a.Name), raw); err != nil {
			return err
		}
	}
	return nil
}
