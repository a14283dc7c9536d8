package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"crypto-alert-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store persists alerts as a single JSON object, read and written whole.
//
// Load and Save are not atomic with respect to each other. Callers that
// read, change and write back the collection must use Update, which holds
// the store lock for the whole sequence; mixing bare Load/Save pairs from
// several goroutines loses updates.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads every alert. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context) (types.Alerts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Alerts{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read alerts from %s", s.path)
	}
	if len(data) == 0 {
		return types.Alerts{}, nil
	}

	var alerts types.Alerts
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, errors.Wrapf(err, "decode alerts from %s", s.path)
	}
	if alerts == nil {
		alerts = types.Alerts{}
	}
	return alerts, nil
}

// Save overwrites the file with alerts. The write goes through a temporary
// file in the same directory and a rename, so readers never see a partial file.
func (s *Store) Save(ctx context.Context, alerts types.Alerts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(alerts)
	if err != nil {
		return errors.Wrap(err, "encode alerts")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp alerts file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write alerts")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp alerts file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}

	log.Debugf("Saved %d alerts to %s", len(alerts), s.path)
	return nil
}

// Update runs load, fn, save under the store lock. If fn returns an error
// nothing is written. The collection is saved even when fn leaves it unchanged.
func (s *Store) Update(ctx context.Context, fn func(types.Alerts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(alerts); err != nil {
		return err
	}
	// fn has run; the save happens even if ctx is already done
	return s.Save(context.WithoutCancel(ctx), alerts)
}

// Snapshot loads under the store lock so it is ordered with respect to Update.
func (s *Store) Snapshot(ctx context.Context) (types.Alerts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Load(ctx)
}
