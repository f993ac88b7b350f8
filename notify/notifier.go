// Package notify posts human-readable event notifications to a chat
// webhook. Delivery is best-effort and always last in the pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/relayops/mdmhook/audit"
)

// ActionNotify is the audit action name for notification delivery.
const ActionNotify = "send_notification"

// offsetColon matches a timezone offset with a colon separator, which the
// upstream platform sometimes sends and time.Parse's +0000 layout rejects.
var offsetColon = regexp.MustCompile(`([+-][0-9]{2}):([0-9]{2})$`)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

// FormatEventTime renders an event timestamp the way the notification
// message wants it, e.g. "Friday, October 19, 2018 at 14:30 UTC". An
// unparseable timestamp is returned verbatim rather than failing the
// notification.
func FormatEventTime(at string) string {
	normalized := offsetColon.ReplaceAllString(at, "$1$2")
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, normalized)
		if err != nil {
			continue
		}
		// A bare +0000 offset has no zone name; render it as UTC so the
		// message does not depend on the host's local zone.
		if _, offset := t.Zone(); offset == 0 {
			t = t.UTC()
		}
		return t.Format("Monday, January 02, 2006 at 15:04 MST")
	}
	return at
}

// Message builds the notification line for a device event.
func Message(serialNumber, event, at string) string {
	return fmt.Sprintf("MDM: Device %s %s on %s.", serialNumber, event, FormatEventTime(at))
}

// Notifier delivers event notifications.
type Notifier interface {
	Notify(ctx context.Context, serialNumber, event, at string) audit.Record
}

// WebhookNotifier posts messages to a chat webhook URL as JSON.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify formats and delivers the message. Any failure, from a malformed
// URL to a non-2xx response, is recorded and never propagated.
func (n *WebhookNotifier) Notify(ctx context.Context, serialNumber, event, at string) audit.Record {
	message := Message(serialNumber, event, at)
	info := audit.Detail{"url": n.url, "message": message}

	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return audit.Failure(ActionNotify, info, audit.Detail{"error": err.Error()})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return audit.Failure(ActionNotify, info, audit.Detail{"error": err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return audit.Failure(ActionNotify, info, audit.Detail{"error": err.Error()})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return audit.Failure(ActionNotify, info, audit.Detail{"code": resp.StatusCode})
	}
	return audit.Success(ActionNotify, info, nil)
}
