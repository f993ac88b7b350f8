package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/mdmhook/audit"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	notifier := &fakeNotifier{record: audit.Success("send_notification", nil, nil)}
	router := NewRouter(RouterConfig{}, nil, nil, notifier, nil, testLogger(), nil)
	server := httptest.NewServer(NewServeMux(router, testLogger()))
	t.Cleanup(server.Close)
	return server
}

func TestWebhookEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := `{"type":"device.enrolled","at":"2018-10-19T14:30:00.000+0000","data":{"device":{"id":42,"serial_number":"C02ABC123"}}}`
	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var trail map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trail))
	request := trail["request"].(map[string]any)
	assert.Equal(t, "device.enrolled", request["type"])
}

func TestWebhookEndpointBadRequest(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/webhook", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var trail map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trail))
	actions := trail["actions"].([]any)
	require.Len(t, actions, 1)
}

func TestWebhookEndpointRejectsGet(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/webhook")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
