package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/eleven-am/panther/internal/domain"
)

type BadgerConfig struct {
	Path     string
	InMemory bool
	TokenKey string
}

// BadgerStore keeps the access token in an embedded badger database so it survives
// process restarts.
type BadgerStore struct {
	db     *badger.DB
	key    []byte
	atKey  []byte
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewBadgerStore(config BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TokenKey == "" {
		config.TokenKey = domain.DefaultTokenKey
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, domain.NewComponentError("badger-store", "open", domain.ErrInvalidConfig)
		}
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, domain.NewComponentError("badger-store", "mkdir", err)
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "badger")}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.NewComponentError("badger-store", "open", err)
	}

	return &BadgerStore{
		db:     db,
		key:    []byte(config.TokenKey),
		atKey:  []byte(domain.StoredAtKey(config.TokenKey)),
		logger: logger.With("component", "badger-store"),
	}, nil
}

func (s *BadgerStore) Get(ctx context.Context) (domain.CachedToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.CachedToken{}, false, domain.ErrStoreClosed
	}

	var token domain.CachedToken
	var exists bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(value) == 0 {
			return nil
		}
		exists = true
		token.Value = string(value)

		atItem, err := txn.Get(s.atKey)
		if err == nil {
			raw, _ := atItem.ValueCopy(nil)
			token.StoredAt = parseStoredAt(string(raw))
		}
		return nil
	})
	if err != nil {
		return domain.CachedToken{}, false, domain.NewComponentError("badger-store", "get", err)
	}

	return token, exists, nil
}

func (s *BadgerStore) Put(ctx context.Context, token domain.CachedToken) error {
	if token.IsZero() {
		return domain.NewComponentError("badger-store", "put", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	if token.StoredAt.IsZero() {
		token.StoredAt = time.Now()
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.key, []byte(token.Value)); err != nil {
			return err
		}
		return txn.Set(s.atKey, []byte(formatStoredAt(token.StoredAt)))
	})
	if err != nil {
		return domain.NewComponentError("badger-store", "put", err)
	}

	s.logger.Debug("access token persisted", "key", string(s.key))
	return nil
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(s.key); err != nil {
			return err
		}
		return txn.Delete(s.atKey)
	})
	if err != nil {
		return domain.NewComponentError("badger-store", "clear", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func formatStoredAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStoredAt(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(f, v...))
}
