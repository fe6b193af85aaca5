package kvtab

// Remove deletes every key in the record's key family: holder,
// attribute values and all index entries. Not atomic; a partial failure
// can leave orphaned keys behind.
func (db *DB) Remove(rec *Record) error {
	tbl := rec.table
	keys, err := db.store.Keys(db.recordPattern(tbl, rec.id))
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := db.store.Del(k); err != nil {
			return err
		}
	}
	if db.verbose {
		db.logf("db: REMOVE %s/%d (%d keys)", tbl.name, rec.id, len(keys))
	}
	return nil
}

// Truncate deletes every key under the table, including the id counter,
// so the next Create mints id 1 again. Destructive and unconditional.
func (db *DB) Truncate(table string) error {
	tbl, err := db.table(table)
	if err != nil {
		return err
	}
	keys, err := db.store.Keys(db.tablePattern(tbl))
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := db.store.Del(k); err != nil {
			return err
		}
	}
	if db.verbose {
		db.logf("db: TRUNCATE %s (%d keys)", tbl.name, len(keys))
	}
	return nil
}
