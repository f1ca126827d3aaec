package ledger

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBSpentStore is an optional durable SpentStore backed by goleveldb.
// AddAll writes its batch with a synchronous fsync before returning, so the
// mint never hands out promises for secrets that didn't make it to disk.
// The default mint configuration does not use this store; opting in is the
// caller's choice (see cmd/mintd's --db flag).
type LevelDBSpentStore struct {
	db *leveldb.DB
}

// OpenLevelDBSpentStore opens (creating if necessary) a goleveldb database
// at path to back the spent-set.
func OpenLevelDBSpentStore(path string) (*LevelDBSpentStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open spent-set database at %q: %w", path, err)
	}
	return &LevelDBSpentStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *LevelDBSpentStore) Close() error {
	return s.db.Close()
}

// Has implements SpentStore.
func (s *LevelDBSpentStore) Has(secretMsg string) (bool, error) {
	ok, err := s.db.Has([]byte(secretMsg), nil)
	if err != nil {
		return false, fmt.Errorf("ledger: spent-set lookup: %w", err)
	}
	return ok, nil
}

// AddAll implements SpentStore, writing the batch with a synchronous fsync.
func (s *LevelDBSpentStore) AddAll(secretMsgs []string) error {
	batch := new(leveldb.Batch)
	for _, sm := range secretMsgs {
		batch.Put([]byte(sm), []byte{1})
	}
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("ledger: commit spent-set batch: %w", err)
	}
	return nil
}
