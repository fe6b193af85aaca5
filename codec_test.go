package kvtab

import (
	"errors"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestComplexCodecRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	in := map[string]any{
		"name": "widget",
		"tags": []any{"a", "b"},
	}
	out, err := decodeComplex(encodeComplex(in, now))
	ensureNoErr(t, err)
	deepEqual(t, out, any(map[string]any{
		"name": "widget",
		"tags": []any{"a", "b"},
	}))
}

func TestComplexCodecDeterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := map[string]any{"b": "2", "a": "1", "c": "3"}
	first := string(encodeComplex(v, now))
	for i := 0; i < 10; i++ {
		eq(t, string(encodeComplex(v, now)), first)
	}
}

func TestComplexCodecMissingPayload(t *testing.T) {
	// Valid msgpack, but an envelope carrying only the timestamp.
	blob, err := msgpack.Marshal(map[string]any{"t": int64(1700000000)})
	ensureNoErr(t, err)

	_, err = decodeComplex(blob)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("got %T %v, wanted *DataError", err, err)
	}
}

func TestComplexCodecNilPayload(t *testing.T) {
	out, err := decodeComplex(encodeComplex(nil, time.Unix(1700000000, 0)))
	ensureNoErr(t, err)
	if out != nil {
		t.Fatalf("got %v, wanted nil payload", out)
	}
}

func TestComplexCodecCorruptData(t *testing.T) {
	_, err := decodeComplex([]byte("\x00\x01not msgpack"))
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("got %T %v, wanted *DataError", err, err)
	}
}
