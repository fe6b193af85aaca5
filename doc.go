/*
Package kvtab implements a record-mapping layer on top of a flat
key-value store (Redis, Bolt, or an in-memory map).

We implement:

1. Tables, named collections of records sharing an explicit schema.

2. Attribute fan-out: each record is stored as one key per attribute,
plus a holder key marking the record's existence.

3. Secondary indices, emulated with derived keys that embed the indexed
attribute's normalized value, looked up via glob-style key listing.

4. Search, combining index-assisted candidate sets with post-fetch
filtering, iterated through a lazy, restartable cursor.

# Technical Details

**Key space.**
All durable state lives under flat string keys:

	<prefix>:<table>:_id                                  counter
	<prefix>:<table>:<id>:_                               holder (unix ts)
	<prefix>:<table>:<id>:<attrib>                        attribute value
	<prefix>:<table>:<id>:_:<attrib>:<normalized_value>   index (unix ts)

Structural key parts are lowercased with whitespace replaced by "_".
Normalized index values keep their case; only whitespace runs collapse
to a single "_", and an empty value becomes the literal "__".

**Ids.**
Record ids are minted by atomically incrementing the per-table counter
key. The counter is a high-water mark: removed ids are not reclaimed,
and only a table truncation (which deletes the counter key) resets it.

**Atomicity.**
Only single-key store operations are atomic. The multi-key fan-out of
create/update/remove is not transactional: a crash mid-operation can
leave partial state. Counter increments are the one primitive relied on
for correctness under concurrent writers.

**Complex values.**
Attributes declared complex are serialized with msgpack inside a small
envelope that also records the write timestamp. Scalar attributes are
stored in their native string representation.
*/
package kvtab
