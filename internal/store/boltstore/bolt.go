// Package boltstore implements a persistent single-host store on bbolt.
//
// Scalars live in the "values" bucket as an 8 byte big-endian expiry
// (unix nanoseconds, zero for none) followed by the raw value. Each list is
// a nested bucket under "lists" whose keys are the 1-based element index.
package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/discochess/callcache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

var (
	valuesBucket = []byte("values")
	listsBucket  = []byte("lists")
)

const headerLen = 8

// Store is a bbolt-backed store. Writes are serialized by bbolt, which makes
// Incr and Append atomic.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Options configures Open.
type Options struct {
	// Timeout bounds how long Open waits for the file lock.
	// Default is one second.
	Timeout time.Duration

	// Now is the time source used for expiry. Default is time.Now.
	Now func() time.Time
}

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}
	if err := db.Update(createBuckets); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db, now: opts.Now}, nil
}

func createBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{valuesBucket, listsBucket} {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return nil
}

// Set stores value under key with no expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(key, value, 0)
}

// SetWithExpiry stores value under key until ttl has elapsed.
func (s *Store) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(key, value, s.now().Add(ttl).UnixNano())
}

func (s *Store) put(key string, value []byte, expiresAt int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		lists := tx.Bucket(listsBucket)
		if lists.Bucket([]byte(key)) != nil {
			if err := lists.DeleteBucket([]byte(key)); err != nil {
				return err
			}
		}
		return tx.Bucket(valuesBucket).Put([]byte(key), encode(value, expiresAt))
	})
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v, ok := s.live(tx, key)
		if !ok {
			if tx.Bucket(listsBucket).Bucket([]byte(key)) != nil {
				return store.ErrWrongType
			}
			return store.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Incr increments the counter at key, keeping any expiry.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(listsBucket).Bucket([]byte(key)) != nil {
			return store.ErrWrongType
		}

		var expiresAt int64
		if raw := tx.Bucket(valuesBucket).Get([]byte(key)); raw != nil && !s.expired(raw) {
			parsed, err := strconv.ParseInt(string(raw[headerLen:]), 10, 64)
			if err != nil {
				return store.ErrWrongType
			}
			n = parsed
			expiresAt = int64(binary.BigEndian.Uint64(raw[:headerLen]))
		}
		n++
		return tx.Bucket(valuesBucket).Put([]byte(key), encode([]byte(strconv.FormatInt(n, 10)), expiresAt))
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Append appends value to the list at key.
func (s *Store) Append(ctx context.Context, key string, value []byte) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if _, ok := s.live(tx, key); ok {
			return store.ErrWrongType
		}
		// Drop an expired scalar so the key is only a list.
		if err := tx.Bucket(valuesBucket).Delete([]byte(key)); err != nil {
			return err
		}
		list, err := tx.Bucket(listsBucket).CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		seq, err := list.NextSequence()
		if err != nil {
			return err
		}
		n = int64(seq)
		return list.Put(index(seq), value)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Range returns list elements between start and stop inclusive.
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	out := [][]byte{}
	err := s.db.View(func(tx *bolt.Tx) error {
		if _, ok := s.live(tx, key); ok {
			return store.ErrWrongType
		}
		list := tx.Bucket(listsBucket).Bucket([]byte(key))
		if list == nil {
			return nil
		}
		from, to, ok := store.Bounds(start, stop, int64(list.Sequence()))
		if !ok {
			return nil
		}
		for i := from; i <= to; i++ {
			out = append(out, append([]byte(nil), list.Get(index(uint64(i+1)))...))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FlushAll drops and recreates both buckets.
func (s *Store) FlushAll(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{valuesBucket, listsBucket} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return createBuckets(tx)
	})
}

// Ping reports whether the database is still open.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// live returns the unexpired scalar stored under key.
func (s *Store) live(tx *bolt.Tx, key string) ([]byte, bool) {
	raw := tx.Bucket(valuesBucket).Get([]byte(key))
	if raw == nil || s.expired(raw) {
		return nil, false
	}
	return raw[headerLen:], true
}

func (s *Store) expired(raw []byte) bool {
	expiresAt := int64(binary.BigEndian.Uint64(raw[:headerLen]))
	return expiresAt > 0 && s.now().UnixNano() >= expiresAt
}

func encode(value []byte, expiresAt int64) []byte {
	buf := make([]byte, headerLen+len(value))
	binary.BigEndian.PutUint64(buf[:headerLen], uint64(expiresAt))
	copy(buf[headerLen:], value)
	return buf
}

func index(i uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, i)
	return b
}
