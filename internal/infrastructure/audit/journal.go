// Package audit keeps a local append-only journal of security-relevant
// events (registrations, logins, deletions). It is observability data, not a
// system of record: writes that fail are logged and dropped, never bubbled
// into the request outcome.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Event types recorded by the journal.
const (
	EventUserRegistered = "user_registered"
	EventLoginSucceeded = "login_succeeded"
	EventLoginFailed    = "login_failed"
	EventUserDeleted    = "user_deleted"
	EventTestCleanup    = "test_cleanup"
)

// Event is a single journal entry. Subject is a username where one is known;
// login failures record whatever the caller presented.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Journal wraps a BoltDB file holding events in timestamp order.
type Journal struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("events")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, bucket: bucket}, nil
}

// Record appends an event, filling in ID and timestamp when absent.
func (j *Journal) Record(event Event) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := []byte(eventKeyPrefix(event.At) + "|" + event.ID)
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(j.bucket).Put(key, payload)
	})
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(limit int) ([]Event, error) {
	if j == nil || j.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var events []Event
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(events) < limit; k, v = c.Prev() {
			var event Event
			if err := json.Unmarshal(v, &event); err != nil {
				continue
			}
			events = append(events, event)
		}
		return nil
	})
	return events, err
}

// Prune removes events recorded before the cutoff and returns how many.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	if j == nil || j.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}

	boundary := []byte(eventKeyPrefix(cutoff))
	var removed int
	err := j.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, _ := c.First(); k != nil && string(k) < string(boundary); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Size returns the number of journaled events.
func (j *Journal) Size() (int, error) {
	if j == nil || j.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := j.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(j.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// eventKeyPrefix renders a timestamp as zero-padded nanoseconds so the keys
// sort bytewise in chronological order.
func eventKeyPrefix(at time.Time) string {
	return fmt.Sprintf("%020d", at.UnixNano())
}

// Close releases the underlying BoltDB handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
