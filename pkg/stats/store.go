package stats

import (
	"encoding/binary"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/srv6pot/potnode/pkg/errs"
)

const countersBucket = "counters"

// Store persists Counters snapshots to a bbolt database so a restart
// sees drop history as a discontinuity in rate, not a reset to zero.
type Store struct {
	db *bbolt.DB
}

// OpenStore opens (creating if necessary) the bbolt database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(countersBucket))
		return err
	}); err != nil {
		return nil, errs.Wrap(errs.Config, err)
	}
	return &Store{db: db}, nil
}

// Load reads a previously persisted snapshot and seeds counters with it.
// A missing or empty database leaves counters at zero.
func (s *Store) Load(counters *Counters) error {
	snap := Snapshot{
		Errors:    make(map[string]map[string]uint64),
		Delivered: make(map[string]uint64),
	}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(countersBucket))
		return b.ForEach(func(k, v []byte) error {
			if len(v) != 8 {
				return nil
			}
			n := binary.BigEndian.Uint64(v)
			key := string(k)
			switch {
			case strings.HasPrefix(key, "delivered:"):
				role := strings.TrimPrefix(key, "delivered:")
				snap.Delivered[role] = n
			case strings.HasPrefix(key, "error:"):
				rest := strings.TrimPrefix(key, "error:")
				role, kind, ok := strings.Cut(rest, ":")
				if !ok {
					return nil
				}
				if snap.Errors[role] == nil {
					snap.Errors[role] = make(map[string]uint64)
				}
				snap.Errors[role][kind] = n
			}
			return nil
		})
	})
	if err != nil {
		return errs.Wrap(errs.Config, err)
	}
	counters.restore(snap)
	return nil
}

// Persist writes the current counter values to the database. Called on a
// fixed interval and once more during shutdown.
func (s *Store) Persist(counters *Counters) error {
	snap := counters.Snapshot()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(countersBucket))
		for role, kinds := range snap.Errors {
			for kind, v := range kinds {
				key := fmt.Sprintf("error:%s:%s", role, kind)
				if err := putUint64(b, key, v); err != nil {
					return err
				}
			}
		}
		for role, v := range snap.Delivered {
			key := fmt.Sprintf("delivered:%s", role)
			if err := putUint64(b, key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func putUint64(b *bbolt.Bucket, key string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return b.Put([]byte(key), buf)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
