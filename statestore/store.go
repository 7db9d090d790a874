// Package statestore persists in-flight editing drafts in a local bbolt
// database so an interrupted session can resume without re-entering content.
// Drafts are advisory local state; the ledger record stays authoritative.
package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"golang.org/x/crypto/blake2b"

	"github.com/cubist-collective/cubist-games-go/pda"
	"github.com/cubist-collective/cubist-games-go/settings"
)

// ErrNotFound indicates no draft is stored under the key.
var ErrNotFound = errors.New("statestore: draft not found")

var (
	bucketSettings = []byte("settings_drafts")
	bucketTerms    = []byte("terms_drafts")
)

// Store wraps the bbolt database holding drafts.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the draft database at dbPath. The parent directory
// is created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statestore: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("statestore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSettings, bucketTerms} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("statestore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// settingsKey derives the fixed-size draft key for an authority.
func settingsKey(authority pda.PublicKey) []byte {
	sum := blake2b.Sum256(authority[:])
	return sum[:]
}

// termsKey derives the fixed-size draft key for one document of an authority.
func termsKey(authority pda.PublicKey, documentID string) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(authority[:])
	h.Write([]byte(documentID))
	return h.Sum(nil)
}

// SaveSettings stores the settings draft for an authority.
func (s *Store) SaveSettings(authority pda.PublicKey, record *settings.Settings) error {
	return s.put(bucketSettings, settingsKey(authority), record)
}

// LoadSettings returns the stored settings draft for an authority.
func (s *Store) LoadSettings(authority pda.PublicKey) (*settings.Settings, error) {
	var record settings.Settings
	if err := s.get(bucketSettings, settingsKey(authority), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteSettings removes the settings draft for an authority.
func (s *Store) DeleteSettings(authority pda.PublicKey) error {
	return s.delete(bucketSettings, settingsKey(authority))
}

// SaveTerms stores the terms draft for one document.
func (s *Store) SaveTerms(authority pda.PublicKey, draft *settings.TermsDraft) error {
	return s.put(bucketTerms, termsKey(authority, draft.ID), draft)
}

// LoadTerms returns the stored terms draft for one document.
func (s *Store) LoadTerms(authority pda.PublicKey, documentID string) (*settings.TermsDraft, error) {
	var draft settings.TermsDraft
	if err := s.get(bucketTerms, termsKey(authority, documentID), &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// DeleteTerms removes the terms draft for one document.
func (s *Store) DeleteTerms(authority pda.PublicKey, documentID string) error {
	return s.delete(bucketTerms, termsKey(authority, documentID))
}

func (s *Store) put(bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("statestore: encode draft: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *Store) get(bucket, key []byte, v interface{}) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("statestore: decode draft: %w", err)
		}
		return nil
	})
}

func (s *Store) delete(bucket, key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}
