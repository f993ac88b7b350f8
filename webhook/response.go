package webhook

import (
	"net/http"

	"github.com/relayops/mdmhook/audit"
)

// Response is the transport-level outcome of one invocation.
type Response struct {
	StatusCode int
	Body       []byte
}

// BuildResponse serializes the trail as the response body. The full trail
// goes back regardless of individual action failures; failure granularity
// lives in the body, not the status code.
func BuildResponse(trail *audit.Trail, statusCode int) Response {
	body, err := trail.MarshalBody()
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       []byte(`{"error":"failed to serialize audit trail"}`),
		}
	}
	return Response{StatusCode: statusCode, Body: body}
}
