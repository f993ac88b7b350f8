package manifest

import (
	"context"
	"path"

	"github.com/relayops/mdmhook/audit"
)

// ObjectStore is the durable-storage contract the store reconciles against.
// Exists must report a missing key as (false, nil), not an error, so the
// caller can tell not-found from a real storage fault.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// Audit action names for store operations.
const (
	ActionCreate = "create_manifest"
	ActionDelete = "delete_manifest"
)

// Store performs idempotent create/delete of manifests in object storage.
type Store struct {
	store  ObjectStore
	folder string
	bucket string
}

// NewStore creates a manifest store writing under folder in bucket.
func NewStore(store ObjectStore, folder, bucket string) *Store {
	return &Store{store: store, folder: folder, bucket: bucket}
}

// Create persists the manifest unless one already exists under its key.
// An existing manifest wins: the outcome is a failure record with detail
// AlreadyExists, which upstream treats as a recorded fact, not an error.
//
// The existence check and the write are not atomic. Two concurrent
// enrollments for the same serial can both observe not-found and both
// write; the content is a pure function of the serial, so the second
// write is a harmless overwrite. Accepted limitation.
func (s *Store) Create(ctx context.Context, m Manifest) audit.Record {
	key := path.Join(s.folder, m.Name)
	info := audit.Detail{"name": key, "bucket": s.bucket}

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return audit.Failure(ActionCreate, info, audit.Detail{"error": err.Error()})
	}
	if exists {
		return audit.Failure(ActionCreate, info, audit.Detail{"reason": "AlreadyExists"})
	}

	body, err := m.Encode()
	if err != nil {
		return audit.Failure(ActionCreate, info, audit.Detail{"error": err.Error(), "manifest": m})
	}

	if err := s.store.Put(ctx, key, body); err != nil {
		return audit.Failure(ActionCreate, info, audit.Detail{"error": err.Error(), "manifest": m})
	}

	return audit.Success(ActionCreate, info, audit.Detail{"manifest": m})
}

// Delete removes the manifest for a serial number. Deleting a manifest
// that does not exist is a success; delete is idempotent.
func (s *Store) Delete(ctx context.Context, name string) audit.Record {
	key := path.Join(s.folder, name)
	info := audit.Detail{"name": key, "bucket": s.bucket}

	if err := s.store.Delete(ctx, key); err != nil {
		return audit.Failure(ActionDelete, info, audit.Detail{"error": err.Error()})
	}
	return audit.Success(ActionDelete, info, nil)
}
