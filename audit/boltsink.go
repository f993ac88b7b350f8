package audit

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketTrails = []byte("trails")

// BoltSink archives trails in a local bbolt database. Used by deployments
// that have no log bucket but still want the trails kept somewhere.
type BoltSink struct {
	db *bbolt.DB
}

// NewBoltSink opens (or creates) the database at path.
func NewBoltSink(path string) (*BoltSink, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTrails)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit db: %w", err)
	}

	return &BoltSink{db: db}, nil
}

// Archive stores the trail keyed by its creation timestamp. Two trails
// created in the same nanosecond would collide; bbolt last-write-wins is
// acceptable for an archive.
func (s *BoltSink) Archive(ctx context.Context, t *Trail) error {
	body, err := t.MarshalBody()
	if err != nil {
		return fmt.Errorf("marshal trail: %w", err)
	}

	key := []byte(t.LoggedAt.Format("2006-01-02T15:04:05.000000000Z07:00"))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTrails).Put(key, body)
	})
	if err != nil {
		return fmt.Errorf("archive trail: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *BoltSink) Close() error {
	return s.db.Close()
}
