// Package ledger records which files were submitted to which manifest, so
// repeated runs can skip files that are already in a manifest.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
)

// Ledger stores submissions per source and file URL
type Ledger interface {
	Has(ctx context.Context, source, fileURL string) (bool, error)
	Get(ctx context.Context, source, fileURL string) (*Submission, error)
	Record(ctx context.Context, sub Submission) error
	Forget(ctx context.Context, source, fileURL string) error
	List(ctx context.Context, source string) ([]Submission, error)
	Close() error
}

// Ensure the implementations satisfy Ledger
var (
	_ Ledger = (*BadgerLedger)(nil)
	_ Ledger = NopLedger{}
)

// gcInterval is how often the value log is compacted
const gcInterval = 5 * time.Minute

// BadgerLedger is a Ledger backed by BadgerDB
type BadgerLedger struct {
	db     *badger.DB
	ttl    time.Duration
	logger *utils.Logger
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewBadgerLedger opens a ledger. Without a directory the ledger lives in
// ~/.adenotifier/ledger.
func NewBadgerLedger(opts Options, logger *utils.Logger) (*BadgerLedger, error) {
	logger = logger.OrNop().WithComponent("ledger")

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			opts.Directory = filepath.Join(homeDir, ".adenotifier", "ledger")
		}
		if err := utils.EnsureDir(opts.Directory); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		badgerOpts = badger.DefaultOptions(opts.Directory)
	}
	badgerOpts = badgerOpts.WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	l := &BadgerLedger{
		db:     db,
		ttl:    opts.TTL,
		logger: logger,
		stop:   make(chan struct{}),
	}
	if !opts.InMemory {
		l.wg.Add(1)
		go l.runGC()
	}
	return l, nil
}

func (l *BadgerLedger) runGC() {
	defer l.wg.Done()
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			_ = l.db.RunValueLogGC(0.5)
		}
	}
}

// Has reports whether a submission is recorded for the file
func (l *BadgerLedger) Has(ctx context.Context, source, fileURL string) (bool, error) {
	_, err := l.Get(ctx, source, fileURL)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotRecorded):
		return false, nil
	default:
		return false, err
	}
}

// Get returns the recorded submission of the file
func (l *BadgerLedger) Get(ctx context.Context, source, fileURL string) (*Submission, error) {
	key := GenerateKey(source, fileURL)

	var sub Submission
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotRecorded
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &sub)
		})
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Record stores a submission, replacing any previous one for the file
func (l *BadgerLedger) Record(ctx context.Context, sub Submission) error {
	sub, err := prepare(sub)
	if err != nil {
		return err
	}

	value, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	key := GenerateKey(sub.Source, sub.FileURL)
	err = l.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if l.ttl > 0 {
			e = e.WithTTL(l.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return err
	}

	l.logger.Debug().
		Str("source", sub.Source).
		Str("file_url", sub.FileURL).
		Str("manifest_id", sub.ManifestID).
		Msg("Submission recorded")
	return nil
}

// Forget removes the submission of the file
func (l *BadgerLedger) Forget(ctx context.Context, source, fileURL string) error {
	key := GenerateKey(source, fileURL)
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// List returns every submission of a source in key order
func (l *BadgerLedger) List(ctx context.Context, source string) ([]Submission, error) {
	prefix := []byte(SourcePrefix(source))

	var subs []Submission
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sub Submission
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &sub)
			}); err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Size returns the number of records in the ledger
func (l *BadgerLedger) Size() int64 {
	var count int64
	_ = l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Clear removes every record
func (l *BadgerLedger) Clear() error {
	return l.db.DropAll()
}

// Close stops background compaction and closes the database
func (l *BadgerLedger) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		l.wg.Wait()
		err = l.db.Close()
	})
	return err
}

// prepare validates a submission and fills its version and time
func prepare(sub Submission) (Submission, error) {
	if sub.Source == "" || sub.FileURL == "" {
		return sub, errors.New("ledger: submission needs a source and a file url")
	}
	if sub.Version == 0 {
		sub.Version = SchemaVersion
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	return sub, nil
}

func decode(val []byte, sub *Submission) error {
	if err := json.Unmarshal(val, sub); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if sub.Version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, sub.Version, SchemaVersion)
	}
	return nil
}

// badgerLogger routes badger's own messages to zerolog. Informational
// messages are demoted to debug.
type badgerLogger struct {
	logger *utils.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.logger.Error().Msgf(trimNewline(format), args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.logger.Warn().Msgf(trimNewline(format), args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.logger.Debug().Msgf(trimNewline(format), args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.logger.Trace().Msgf(trimNewline(format), args...)
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}

// NopLedger records nothing and reports every file as new
type NopLedger struct{}

// NewNopLedger returns a disabled ledger
func NewNopLedger() NopLedger { return NopLedger{} }

func (NopLedger) Has(context.Context, string, string) (bool, error) { return false, nil }

func (NopLedger) Get(context.Context, string, string) (*Submission, error) {
	return nil, ErrNotRecorded
}

func (NopLedger) Record(context.Context, Submission) error { return nil }

func (NopLedger) Forget(context.Context, string, string) error { return nil }

func (NopLedger) List(context.Context, string) ([]Submission, error) { return nil, nil }

func (NopLedger) Close() error { return nil }
