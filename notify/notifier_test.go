package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/mdmhook/audit"
)

func TestFormatEventTime(t *testing.T) {
	tests := []struct {
		name string
		at   string
		want string
	}{
		{
			name: "offset without colon",
			at:   "2018-10-19T14:30:00.000+0000",
			want: "Friday, October 19, 2018 at 14:30 UTC",
		},
		{
			name: "offset with colon is normalized",
			at:   "2018-10-19T14:30:00.000+00:00",
			want: "Friday, October 19, 2018 at 14:30 UTC",
		},
		{
			name: "no fractional seconds",
			at:   "2018-10-19T14:30:00+0000",
			want: "Friday, October 19, 2018 at 14:30 UTC",
		},
		{
			name: "unparseable timestamp passes through",
			at:   "not-a-timestamp",
			want: "not-a-timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEventTime(tt.at))
		})
	}
}

func TestMessageFormat(t *testing.T) {
	message := Message("C02ABC123", "enrolled", "2018-10-19T14:30:00.000+0000")

	assert.Contains(t, message, "C02ABC123")
	assert.Contains(t, message, "enrolled")
	assert.True(t, strings.HasSuffix(message, "on Friday, October 19, 2018 at 14:30 UTC."), message)
}

func TestNotifyDelivers(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	record := notifier.Notify(context.Background(), "C02ABC123", "enrolled", "2018-10-19T14:30:00.000+0000")

	assert.Equal(t, audit.StatusSuccess, record.Result.Status)
	assert.Equal(t, ActionNotify, record.Action)
	assert.Contains(t, received["text"], "C02ABC123 enrolled")
}

func TestNotifyRecordsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL)
	record := notifier.Notify(context.Background(), "C02ABC123", "enrolled", "2018-10-19T14:30:00.000+0000")

	assert.Equal(t, audit.StatusFailure, record.Result.Status)
	assert.Equal(t, http.StatusBadGateway, record.Result.Detail["code"])
}

func TestNotifyRecordsUnreachableEndpoint(t *testing.T) {
	notifier := NewWebhookNotifier("http://127.0.0.1:1")
	record := notifier.Notify(context.Background(), "C02ABC123", "unenrolled", "2018-10-19T14:30:00.000+0000")

	assert.Equal(t, audit.StatusFailure, record.Result.Status)
	assert.Contains(t, record.Result.Detail, "error")
}

func TestNotifyRecordsMalformedURL(t *testing.T) {
	notifier := NewWebhookNotifier("://not-a-url")
	record := notifier.Notify(context.Background(), "C02ABC123", "enrolled", "2018-10-19T14:30:00.000+0000")

	assert.Equal(t, audit.StatusFailure, record.Result.Status)
}
