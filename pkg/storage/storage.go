package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/korjavin/whatthefridge/pkg/logger"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("key not found")

// sequenceBandwidth is the number of ids leased from Badger at once
const sequenceBandwidth = 100

// Store represents a BadgerDB storage instance
type Store struct {
	db     *badger.DB
	logger *logger.Logger

	seqMu     sync.Mutex
	sequences map[string]*badger.Sequence
	stopGC    chan struct{}
	closeOnce sync.Once
}

// New creates a new BadgerDB storage instance
func New(dataDir string) (*Store, error) {
	// Ensure the data directory exists
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Open the Badger database
	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // Disable Badger's internal logger

	s, err := open(opts)
	if err != nil {
		return nil, err
	}

	lsm, vlog := s.db.Size()
	s.logger.Info("BadgerDB opened at %s (%s on disk)", absPath, humanize.Bytes(uint64(lsm+vlog)))
	return s, nil
}

// NewInMemory creates a store that keeps everything in memory
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &Store{
		db:        db,
		logger:    logger.New("storage"),
		sequences: make(map[string]*badger.Sequence),
		stopGC:    make(chan struct{}),
	}, nil
}

// Close releases id sequences and closes the BadgerDB database
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopGC)

		s.seqMu.Lock()
		for name, seq := range s.sequences {
			if rerr := seq.Release(); rerr != nil {
				s.logger.Error("Failed to release sequence %s: %v", name, rerr)
			}
		}
		s.sequences = nil
		s.seqMu.Unlock()

		if s.db != nil {
			err = s.db.Close()
		}
	})
	return err
}

// Set stores a value for a key
func (s *Store) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	return errors.Wrapf(err, "failed to set %s", key)
}

// Get retrieves a value for a key
func (s *Store) Get(key string, value interface{}) error {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return errors.Wrap(err, "failed to get value")
	}

	return json.Unmarshal(data, value)
}

// Delete removes a key from the database. Missing keys are reported as ErrNotFound.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return errors.Wrapf(err, "failed to delete %s", key)
}

// List returns all keys with a given prefix
func (s *Store) List(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			keys = append(keys, key)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

// NextID returns the next value of the named sequence, starting at 1
func (s *Store) NextID(name string) (int64, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	if s.sequences == nil {
		return 0, fmt.Errorf("store is closed")
	}

	seq, ok := s.sequences[name]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte("seq:"+name), sequenceBandwidth)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to open sequence %s", name)
		}
		s.sequences[name] = seq
	}

	n, err := seq.Next()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to advance sequence %s", name)
	}
	return int64(n) + 1, nil
}

// RunGC runs garbage collection on the database
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCRoutine starts a goroutine that periodically runs garbage collection
// until the store is closed.
func (s *Store) StartGCRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopGC:
				return
			case <-ticker.C:
				err := s.RunGC()
				// Only log when GC actually did something
				if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Error("BadgerDB GC error: %v", err)
				}
			}
		}
	}()
	s.logger.Info("Started BadgerDB GC routine with interval %v", interval)
}
