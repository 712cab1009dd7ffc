// Package wifidb persists the credentials of the last joined access point so
// the daemon can re-join after a restart.
package wifidb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// FileName is the database file created inside the data directory.
const FileName = "espwifi.db"

var (
	settingsBucket = []byte("settings")
	credentialsKey = []byte("credentials")
)

// ErrNoCredentials is returned when nothing was saved yet or the saved
// credentials were cleared.
var ErrNoCredentials = errors.New("wifidb: no credentials saved")

// Credentials identify an access point to join.
type Credentials struct {
	SSID     string    `json:"ssid"`
	Password string    `json:"password"`
	SavedAt  time.Time `json:"saved_at"`
}

// DB is a bbolt database holding the daemon settings.
type DB struct {
	*bbolt.DB
}

// Open opens or creates the database in dir. Only one process may hold it.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	bdb, err := bbolt.Open(filepath.Join(dir, FileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &DB{DB: bdb}, nil
}

func (db *DB) SetCredentials(c Credentials) error {
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now().UTC()
	}
	return db.setJSON(settingsBucket, credentialsKey, c)
}

// Credentials returns the saved credentials or ErrNoCredentials.
func (db *DB) Credentials() (Credentials, error) {
	var c Credentials
	found, err := db.getJSON(settingsBucket, credentialsKey, &c)
	if err != nil {
		return Credentials{}, err
	}
	if !found {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}

func (db *DB) ClearCredentials() error {
	return db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(settingsBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(credentialsKey)
	})
}

func (db *DB) setJSON(bucket, key []byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, payload)
	})
}

// getJSON decodes the value at key into v and reports whether one was found.
func (db *DB) getJSON(bucket, key []byte, v any) (bool, error) {
	found := false
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}

		payload := b.Get(key)
		if payload == nil || bytes.Equal(payload, []byte("null")) {
			return nil
		}
		// payload is only valid inside the transaction.
		if err := json.Unmarshal(payload, v); err != nil {
			return fmt.Errorf("could not unmarshal %s: %w", key, err)
		}
		found = true
		return nil
	})
	return found, err
}
