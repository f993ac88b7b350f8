package webhook

import (
	"io"
	"net/http"

	"github.com/relayops/mdmhook/telemetry"
)

// maxBodyBytes bounds the inbound event body; platform events are small.
const maxBodyBytes = 1 << 20

// NewServeMux builds the HTTP surface: the webhook endpoint and a health
// check. The caller mounts /metrics alongside.
func NewServeMux(router *Router, logger *telemetry.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webhook", handleWebhook(router, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func handleWebhook(router *Router, logger *telemetry.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, span := telemetry.Tracer.Start(r.Context(), "webhook.handle")
		defer span.End()

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("failed to read request body")
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		trail, status := router.Handle(ctx, raw)
		resp := BuildResponse(trail, status)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := w.Write(resp.Body); err != nil {
			logger.WithContext(ctx).Error().Err(err).Msg("failed to write response")
		}
	})
}
