package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (f *fakePutter) Put(_ context.Context, key string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, body)
	return nil
}

func TestS3SinkArchivesUnderPrefix(t *testing.T) {
	putter := &fakePutter{}
	sink := NewS3Sink(putter, "webhook-logs")

	trail := NewTrail()
	trail.Record(Success("send_notification", nil, nil))

	require.NoError(t, sink.Archive(context.Background(), trail))
	require.Len(t, putter.keys, 1)
	assert.True(t, strings.HasPrefix(putter.keys[0], "webhook-logs/"))
	assert.True(t, strings.HasSuffix(putter.keys[0], ".json"))
	assert.Contains(t, string(putter.bodies[0]), "send_notification")
}

func TestS3SinkPropagatesStoreError(t *testing.T) {
	sink := NewS3Sink(&fakePutter{err: errors.New("denied")}, "logs")

	err := sink.Archive(context.Background(), NewTrail())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestBoltSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	sink, err := NewBoltSink(path)
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	trail := NewTrail()
	trail.SetRequest("device.enrolled", "2018-10-19T14:30:00.000+0000", nil)
	trail.Record(Failure("create_manifest", nil, Detail{"reason": "AlreadyExists"}))

	require.NoError(t, sink.Archive(context.Background(), trail))
}
