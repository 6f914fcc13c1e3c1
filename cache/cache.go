// Package cache persists extracted feature vectors in BadgerDB so repeated
// runs over the same corpus skip decoding and extraction. Entries are keyed
// by extraction settings and file path, and are discarded once the source
// file's size or modification time changes.
package cache

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
)

const keyPrefix = "features:"

// Options configures the store
type Options struct {
	// Dir holds the badger data files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory; used by tests
	InMemory bool

	// Logger receives badger output; nil uses the global logger
	Logger logging.Logger
}

// Store is a badger-backed feature vector store
type Store struct {
	db     *badger.DB
	logger logging.Logger
}

// entry is the msgpack value stored per file
type entry struct {
	Size    int64            `msgpack:"size"`
	ModTime int64            `msgpack:"mod_time"`
	Vector  *features.Vector `msgpack:"vector"`
}

// Open opens or creates a store
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Options.Dir is required for on-disk mode")
	}

	logger := logging.OrGlobal(opts.Logger).WithFields(logging.Fields{
		"component": "feature_cache",
	})

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open feature cache: %w", err)
	}

	logger.Debug("feature cache opened", logging.Fields{"dir": opts.Dir, "in_memory": opts.InMemory})
	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the store
func (s *Store) Close() error {
	return s.db.Close()
}

// Bucket returns the view of the store holding vectors extracted with cfg
func (s *Store) Bucket(cfg features.Config) (*Bucket, error) {
	ns, err := Namespace(cfg)
	if err != nil {
		return nil, err
	}
	return &Bucket{
		store:  s,
		prefix: []byte(keyPrefix + ns + ":"),
		logger: s.logger.WithFields(logging.Fields{"namespace": ns}),
	}, nil
}

// Namespace fingerprints the extraction settings. Vectors computed under
// different settings never share a namespace.
func Namespace(cfg features.Config) (string, error) {
	raw, err := msgpack.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("encode extraction config: %w", err)
	}
	h := fnv.New64a()
	h.Write(raw)
	return fmt.Sprintf("%s-%016x", cfg.Algorithm, h.Sum64()), nil
}

// Bucket reads and writes the vectors of one namespace
type Bucket struct {
	store  *Store
	prefix []byte
	logger logging.Logger
}

func (b *Bucket) key(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, b.prefix...), abs...), nil
}

// Get returns the cached vector for path. A miss, or an entry whose source
// file has changed since it was stored, yields errs.ErrNotFound.
func (b *Bucket) Get(path string) (*features.Vector, error) {
	key, err := b.key(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, path)
	}

	var raw []byte
	err = b.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: no cached vector for %s", errs.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode cached vector for %s: %w", path, err)
	}
	if e.Size != info.Size() || e.ModTime != info.ModTime().UnixNano() || e.Vector == nil {
		b.logger.Debug("stale cache entry", logging.Fields{"path": path})
		return nil, fmt.Errorf("%w: cached vector for %s is stale", errs.ErrNotFound, path)
	}
	return e.Vector, nil
}

// Put stores v under v.Path, stamped with the file's current size and mtime
func (b *Bucket) Put(v *features.Vector) error {
	key, err := b.key(v.Path)
	if err != nil {
		return err
	}
	info, err := os.Stat(v.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", v.Path, err)
	}

	raw, err := msgpack.Marshal(&entry{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Vector:  v,
	})
	if err != nil {
		return fmt.Errorf("encode vector for %s: %w", v.Path, err)
	}
	return b.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, raw)
	})
}

// Delete removes the entry for path; a missing entry is not an error
func (b *Bucket) Delete(path string) error {
	key, err := b.key(path)
	if err != nil {
		return err
	}
	err = b.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Len counts the entries of the bucket, stale ones included
func (b *Bucket) Len() (int, error) {
	n := 0
	err := b.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = b.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge deletes every entry of the bucket
func (b *Bucket) Purge() error {
	var keys [][]byte
	err := b.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = b.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(b.prefix); it.ValidForPrefix(b.prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := b.store.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	b.logger.Info("feature cache purged", logging.Fields{"entries": len(keys)})
	return nil
}

// badgerLogger routes badger's output to the application logger
type badgerLogger struct {
	logger logging.Logger
}

func (l badgerLogger) Errorf(f string, v ...any) {
	l.logger.Error(fmt.Errorf(f, v...), "badger")
}

func (l badgerLogger) Warningf(f string, v ...any) {
	l.logger.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (l badgerLogger) Infof(f string, v ...any) {
	l.logger.Debug(fmt.Sprintf("badger: "+f, v...))
}

func (l badgerLogger) Debugf(string, ...any) {}
