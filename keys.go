package kvtab

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	keySep        = ":"
	reservedMark  = "_"
	counterSuffix = "_id"
	emptyIndexVal = "__"
)

var wsRun = regexp.MustCompile(`[\s]+`)

// buildKey joins key parts with ":", lowercasing each part and
// replacing whitespace runs with "_". An empty prefix contributes no
// segment. Index values are appended separately because they must keep
// their case (see normalizeIndexValue).
func buildKey(prefix string, parts ...string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(keyPart(prefix))
	}
	for _, p := range parts {
		if b.Len() > 0 {
			b.WriteString(keySep)
		}
		b.WriteString(keyPart(p))
	}
	return b.String()
}

func keyPart(s string) string {
	return wsRun.ReplaceAllString(strings.ToLower(s), "_")
}

// normalizeIndexValue produces the value segment of an index key:
// whitespace runs collapse to a single "_", case is preserved, and an
// empty value becomes the literal "__" so the key stays well-formed.
func normalizeIndexValue(v any) string {
	s := scalarString(v)
	if s == "" {
		return emptyIndexVal
	}
	return wsRun.ReplaceAllString(s, "_")
}

// scalarString renders a scalar attribute value in its store-native
// string form.
func scalarString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (db *DB) counterKey(tbl *Table) string {
	return buildKey(db.prefix, tbl.name, counterSuffix)
}

func (db *DB) holderKey(tbl *Table, id int64) string {
	return buildKey(db.prefix, tbl.name, strconv.FormatInt(id, 10), reservedMark)
}

func (db *DB) attrKey(tbl *Table, id int64, attr string) string {
	return buildKey(db.prefix, tbl.name, strconv.FormatInt(id, 10), attr)
}

func (db *DB) indexKey(tbl *Table, id int64, attr string, value any) string {
	base := buildKey(db.prefix, tbl.name, strconv.FormatInt(id, 10), reservedMark, attr)
	return base + keySep + normalizeIndexValue(value)
}

// recordKeyPrefix is the common prefix of every key belonging to one
// record, including the trailing separator.
func (db *DB) recordKeyPrefix(tbl *Table, id int64) string {
	return buildKey(db.prefix, tbl.name, strconv.FormatInt(id, 10)) + keySep
}

func (db *DB) recordPattern(tbl *Table, id int64) string {
	return db.recordKeyPrefix(tbl, id) + "*"
}

func (db *DB) tablePattern(tbl *Table) string {
	return buildKey(db.prefix, tbl.name) + keySep + "*"
}

func (db *DB) indexClearPattern(tbl *Table, id int64, attr string) string {
	return buildKey(db.prefix, tbl.name, strconv.FormatInt(id, 10), reservedMark, attr) + keySep + "*"
}

func (db *DB) indexSearchPattern(tbl *Table, attr string, value any) string {
	return buildKey(db.prefix, tbl.name) + keySep + "*" + keySep +
		reservedMark + keySep + keyPart(attr) + keySep + normalizeIndexValue(value)
}

// recordIDFromKey extracts the record id from a key under the table's
// namespace, or -1 if the key does not have a numeric id segment.
func (db *DB) recordIDFromKey(tbl *Table, key string) int64 {
	base := buildKey(db.prefix, tbl.name) + keySep
	rest, ok := strings.CutPrefix(key, base)
	if !ok {
		return -1
	}
	idStr, _, _ := strings.Cut(rest, keySep)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return -1
	}
	return id
}
