// Package journal persiste en bbolt un registro por petición despachada al
// venue: comando, cuenta, resultado y tiempos. Las claves son los requestId
// (UUIDv7), que ordenan cronológicamente.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "requests"

// Estados de un registro.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Record entrada del journal.
type Record struct {
	RequestID   string `json:"requestId"`
	Command     string `json:"command"`
	AccountID   int64  `json:"accountId,omitempty"`
	PayloadType string `json:"payloadType,omitempty"`
	Status      string `json:"status"`
	ErrorKind   string `json:"errorKind,omitempty"`
	Error       string `json:"error,omitempty"`
	Reply       string `json:"reply,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	CompletedAt int64  `json:"completedAt,omitempty"`
}

// Store journal sobre bbolt.
type Store struct {
	db *bolt.DB
}

// Open abre o crea el fichero del journal.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir journal path: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra la base de datos.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserta o reemplaza un registro.
func (s *Store) Put(rec *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(rec.RequestID), data)
	})
}

// Complete cierra un registro con su resultado. Ignora ids desconocidos.
func (s *Store) Complete(requestID, status, errorKind, errMsg, reply string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		key := []byte(requestID)
		data := b.Get(key)
		if len(data) == 0 {
			return nil
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.Status = status
		rec.ErrorKind = errorKind
		rec.Error = errMsg
		rec.Reply = reply
		rec.CompletedAt = at.UnixMilli()
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key, updated)
	})
}

// Get busca un registro; nil si no existe.
func (s *Store) Get(requestID string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(requestID))
		if len(data) == 0 {
			return nil
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rec = &r
		return nil
	})
	return rec, err
}

// Recent devuelve hasta limit registros, del más reciente al más antiguo.
func (s *Store) Recent(limit int) ([]*Record, error) {
	results := make([]*Record, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			results = append(results, &rec)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	})
	return results, err
}

// Cleanup borra los registros creados antes de before y devuelve cuántos.
func (s *Store) Cleanup(before time.Time) (int, error) {
	cutoff := before.UnixMilli()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil || rec.CreatedAt < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}
