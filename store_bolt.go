package kvtab

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var boltKVBucket = []byte("kv")

// BoltStore persists the key space in a single bucket of a Bolt file.
// Keys listing walks the bucket with a seek to the pattern's literal
// prefix, so table- and record-scoped patterns stay cheap.
type BoltStore struct {
	bdb *bbolt.DB
}

type BoltOptions struct {
	IsTesting bool
	MmapSize  int
}

func OpenBoltStore(path string, opt BoltOptions) (*BoltStore, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("kvtab: %w", err)
	}
	err = bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(boltKVBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("kvtab: %w", err)
	}
	return &BoltStore{bdb: bdb}, nil
}

func (s *BoltStore) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *BoltStore) Get(key string) (string, bool, error) {
	var value string
	var ok bool
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		raw := btx.Bucket(boltKVBucket).Get([]byte(key))
		if raw != nil {
			value, ok = string(raw), true
		}
		return nil
	})
	return value, ok, err
}

func (s *BoltStore) Set(key, value string) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(boltKVBucket).Put([]byte(key), []byte(value))
	})
}

func (s *BoltStore) Incr(key string, delta int64) (int64, error) {
	var out int64
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(boltKVBucket)
		var cur int64
		if raw := b.Get([]byte(key)); raw != nil {
			n, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("incr %q: value is not an integer", key)
			}
			cur = n
		}
		cur += delta
		out = cur
		return b.Put([]byte(key), []byte(strconv.FormatInt(cur, 10)))
	})
	return out, err
}

func (s *BoltStore) Del(key string) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(boltKVBucket).Delete([]byte(key))
	})
}

func (s *BoltStore) Keys(pattern string) ([]string, error) {
	prefix := []byte(globLiteralPrefix(pattern))
	var out []string
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		c := btx.Bucket(boltKVBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if globMatch(pattern, string(k)) {
				out = append(out, string(k))
			}
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Close() error {
	return s.bdb.Close()
}
