package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/nskv/pkg/crypto/adaptive"
	"github.com/yndnr/nskv/pkg/nskv"
)

// DefaultGCInterval is how often the value log is garbage collected.
const DefaultGCInterval = 10 * time.Minute

const gcDiscardRatio = 0.5

var keyPrefix = []byte("m/")

// ErrClosed is returned by operations on a closed Log.
var ErrClosed = errors.New("mirror: log closed")

// Options configures a Log.
type Options struct {
	// Dir is the Badger directory. Empty opens an in-memory log.
	Dir string
	// Key enables sealing when set (16, 24 or 32 bytes).
	Key []byte
	// GCInterval defaults to DefaultGCInterval. Negative disables GC.
	GCInterval time.Duration
	Logger     *slog.Logger
}

// Log is a Badger-backed mirror log. It is safe for concurrent use.
type Log struct {
	db     *badger.DB
	sealer *adaptive.Sealer
	logger *slog.Logger

	appended atomic.Uint64
	closed   atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

var _ nskv.MirrorWriter = (*Log)(nil)

// Open opens or creates a mirror log.
func Open(opts Options) (*Log, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mirror")

	var sealer *adaptive.Sealer
	if len(opts.Key) > 0 {
		s, err := adaptive.NewSealer(opts.Key)
		if err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
		sealer = s
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithInMemory(opts.Dir == "")
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("mirror: open %q: %w", opts.Dir, err)
	}

	l := &Log{
		db:     db,
		sealer: sealer,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	interval := opts.GCInterval
	if interval == 0 {
		interval = DefaultGCInterval
	}
	if opts.Dir == "" || interval < 0 {
		close(l.doneCh)
	} else {
		go l.gcLoop(interval)
	}

	logger.Info("mirror log opened", "dir", opts.Dir, "sealed", sealer != nil)
	return l, nil
}

// Mirror implements nskv.MirrorWriter by appending a record.
func (l *Log) Mirror(ctx context.Context, query string, params []any) error {
	_, err := l.Append(ctx, query, params)
	return err
}

// Append stores a record and returns its ID.
func (l *Log) Append(ctx context.Context, query string, params []any) (ulid.ULID, error) {
	if err := ctx.Err(); err != nil {
		return ulid.ULID{}, err
	}
	if l.closed.Load() {
		return ulid.ULID{}, ErrClosed
	}

	id := ulid.Make()
	data, err := encodeRecord(&Record{
		ID:     id,
		Time:   ulid.Time(id.Time()),
		Query:  query,
		Params: params,
	})
	if err != nil {
		return ulid.ULID{}, err
	}

	key := recordKey(id)
	if l.sealer != nil {
		if data, err = l.sealer.Seal(data, key); err != nil {
			return ulid.ULID{}, fmt.Errorf("mirror: seal: %w", err)
		}
	}

	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return ulid.ULID{}, fmt.Errorf("mirror: append: %w", err)
	}

	l.appended.Add(1)
	l.logger.Debug("mirror record appended", "id", id.String(), "query", query)
	return id, nil
}

// Get returns one record.
func (l *Log) Get(id ulid.ULID) (*Record, error) {
	var rec *Record
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = l.decode(id, recordKey(id), val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Range calls fn for every record at or after since, oldest first, until
// fn returns false.
func (l *Log) Range(ctx context.Context, since time.Time, fn func(*Record) bool) error {
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		start := keyPrefix
		if !since.IsZero() {
			start = recordKey(lowerBound(since))
		}
		for it.Seek(start); it.ValidForPrefix(keyPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id, ok := parseKey(item.Key())
			if !ok {
				continue
			}
			var rec *Record
			if err := item.Value(func(val []byte) error {
				var err error
				rec, err = l.decode(id, item.Key(), val)
				return err
			}); err != nil {
				return err
			}
			if !fn(rec) {
				return nil
			}
		}
		return nil
	})
}

// Len counts stored records.
func (l *Log) Len() (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Prune deletes records older than before and returns how many it removed.
func (l *Log) Prune(ctx context.Context, before time.Time) (int, error) {
	bound := recordKey(lowerBound(before))
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			if bytes.Compare(k, bound) >= 0 {
				break
			}
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("mirror: prune: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("mirror: prune: %w", err)
	}

	l.logger.Info("mirror records pruned", "before", before, "deleted", len(keys))
	return len(keys), nil
}

// Backup writes a Badger backup of the whole log to w.
func (l *Log) Backup(w io.Writer) error {
	if _, err := l.db.Backup(w, 0); err != nil {
		return fmt.Errorf("mirror: backup: %w", err)
	}
	return nil
}

// Restore loads a backup produced by Backup into the log.
func (l *Log) Restore(r io.Reader) error {
	if err := l.db.Load(r, 256); err != nil {
		return fmt.Errorf("mirror: restore: %w", err)
	}
	return nil
}

// GC runs value log garbage collection until nothing more can be reclaimed.
func (l *Log) GC() error {
	for {
		err := l.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		return fmt.Errorf("mirror: gc: %w", err)
	}
}

// Close stops background work and closes the database.
func (l *Log) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(l.stopCh)
	<-l.doneCh
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("mirror: close: %w", err)
	}
	l.logger.Info("mirror log closed")
	return nil
}

func (l *Log) decode(id ulid.ULID, key, val []byte) (*Record, error) {
	data := val
	if l.sealer != nil {
		var err error
		if data, err = l.sealer.Open(val, key); err != nil {
			return nil, fmt.Errorf("mirror: open record %s: %w", id, err)
		}
	}
	return decodeRecord(id, data)
}

func (l *Log) gcLoop(interval time.Duration) {
	defer close(l.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.GC(); err != nil {
				l.logger.Error("mirror gc failed", "error", err)
			}
		case <-l.stopCh:
			return
		}
	}
}

func recordKey(id ulid.ULID) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(id))
	k = append(k, keyPrefix...)
	return append(k, id[:]...)
}

func parseKey(k []byte) (ulid.ULID, bool) {
	var id ulid.ULID
	if len(k) != len(keyPrefix)+len(id) {
		return id, false
	}
	copy(id[:], k[len(keyPrefix):])
	return id, true
}

// lowerBound is the smallest ID carrying time t.
func lowerBound(t time.Time) ulid.ULID {
	var id ulid.ULID
	_ = id.SetTime(ulid.Timestamp(t))
	return id
}

// badgerLogger adapts slog to badger.Logger. Badger's info output is
// demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.logger.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.logger.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.logger.Debug(fmt.Sprintf(format, args...))
}
