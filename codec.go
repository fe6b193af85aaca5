package kvtab

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Complex attribute values are stored as a msgpack envelope carrying
// the value and the write timestamp. The timestamp is discarded on
// read; it exists so a stored blob is self-describing about when it was
// written, matching the holder and index keys.
type storedValue struct {
	Time  int64 `msgpack:"t"`
	Value any   `msgpack:"v"`
}

func encodeComplex(v any, now time.Time) []byte {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(storedValue{Time: now.Unix(), Value: v})
	msgpack.PutEncoder(enc)
	if err != nil {
		panic(fmt.Errorf("failed to encode %T using msgpack: %w", v, err))
	}
	return buf.Bytes()
}

// decodeComplex decodes the envelope as a raw map so a blob that is
// valid msgpack but not a complete envelope (no payload field) still
// fails loudly instead of yielding a silent nil.
func decodeComplex(data []byte) (any, error) {
	var env map[string]any
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(&env)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, err, "corrupt complex value")
	}
	v, ok := env["v"]
	if !ok {
		return nil, dataErrf(data, nil, "corrupt complex value: no payload field")
	}
	return v, nil
}
