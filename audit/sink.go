package audit

import (
	"context"
	"fmt"
	"path"
)

// Sink archives finalized trails. Archival is best-effort: the webhook
// response never depends on it.
type Sink interface {
	Archive(ctx context.Context, t *Trail) error
}

// ObjectPutter is the slice of the object-store contract a sink needs.
type ObjectPutter interface {
	Put(ctx context.Context, key string, body []byte) error
}

// S3Sink archives trails as JSON objects under a key prefix.
type S3Sink struct {
	store  ObjectPutter
	prefix string
}

// NewS3Sink creates a sink writing to the given object store.
func NewS3Sink(store ObjectPutter, prefix string) *S3Sink {
	return &S3Sink{store: store, prefix: prefix}
}

// Archive writes the trail keyed by its creation timestamp.
func (s *S3Sink) Archive(ctx context.Context, t *Trail) error {
	body, err := t.MarshalBody()
	if err != nil {
		return fmt.Errorf("marshal trail: %w", err)
	}

	key := path.Join(s.prefix, t.LoggedAt.Format("2006/01/02"), t.LoggedAt.Format("150405.000000000")+".json")
	if err := s.store.Put(ctx, key, body); err != nil {
		return fmt.Errorf("archive trail: %w", err)
	}
	return nil
}
