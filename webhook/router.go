package webhook

import (
	"context"
	"net/http"
	"strings"

	"github.com/relayops/mdmhook/audit"
	"github.com/relayops/mdmhook/directory"
	"github.com/relayops/mdmhook/manifest"
	"github.com/relayops/mdmhook/notify"
	"github.com/relayops/mdmhook/telemetry"
)

// ActionValidate is the audit action name for inbound event validation.
const ActionValidate = "check_event_data"

// RouterConfig carries the reconciliation defaults. The optional
// integrations are expressed by which collaborators are wired in, not by
// config lookups at call time.
type RouterConfig struct {
	// Catalog added to every new manifest.
	Catalog string
	// DefaultIncludedManifest is the template used when no classification
	// produced one.
	DefaultIncludedManifest string
}

// Router validates inbound events and dispatches reconciliation. Any of
// the three collaborators may be nil, which disables that branch; a
// disabled branch records nothing.
type Router struct {
	cfg       RouterConfig
	directory directory.Client
	manifests *manifest.Store
	notifier  notify.Notifier
	sink      audit.Sink
	logger    *telemetry.Logger
	metrics   *Metrics
}

// NewRouter wires the pipeline. sink, metrics, and any collaborator may
// be nil.
func NewRouter(
	cfg RouterConfig,
	dir directory.Client,
	manifests *manifest.Store,
	notifier notify.Notifier,
	sink audit.Sink,
	logger *telemetry.Logger,
	metrics *Metrics,
) *Router {
	if cfg.Catalog == "" {
		cfg.Catalog = manifest.DefaultCatalog
	}
	if cfg.DefaultIncludedManifest == "" {
		cfg.DefaultIncludedManifest = manifest.DefaultIncluded
	}
	return &Router{
		cfg:       cfg,
		directory: dir,
		manifests: manifests,
		notifier:  notifier,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle runs one invocation of the pipeline and returns the trail plus
// the transport status. Only validation failures yield 400; reconciliation
// failures live inside the trail and the status stays 200.
func (r *Router) Handle(ctx context.Context, raw []byte) (*audit.Trail, int) {
	trail := audit.NewTrail()

	event := r.validate(trail, raw)
	if event == nil {
		r.finish(ctx, trail, "invalid", http.StatusBadRequest)
		return trail, http.StatusBadRequest
	}

	switch event.Type {
	case EventEnrolled:
		r.handleEnrolled(ctx, trail, event)
	case EventUnenrolled:
		r.handleUnenrolled(ctx, trail, event)
	default:
		// Unrecognized kinds are accepted no-ops so the platform can add
		// event types before we act on them.
		r.logger.WithContext(ctx).Debug().
			Str("event_type", string(event.Type)).
			Msg("no handler for event type")
	}

	r.finish(ctx, trail, string(event.Type), http.StatusOK)
	return trail, http.StatusOK
}

// validate parses the raw event, recording a failure naming the missing
// fields when the request is incomplete. No side effect may run after a
// validation failure.
func (r *Router) validate(trail *audit.Trail, raw []byte) *Event {
	event, missing, err := parseEvent(raw)
	if err != nil {
		trail.Record(audit.Failure(ActionValidate, nil, audit.Detail{"error": err.Error()}))
		return nil
	}
	if len(missing) > 0 {
		trail.Record(audit.Failure(ActionValidate, nil, audit.Detail{
			"error": strings.Join(missing, ", ") + " not included in request",
		}))
		return nil
	}

	trail.SetRequest(string(event.Type), event.At, event.Data)
	return event
}

// handleEnrolled reconciles a newly enrolled device. The directory,
// storage, and notification branches are independent: each failure is
// recorded and the remaining branches still run. A manifest is always
// built; classification enriches it when the directory branch produced
// one.
func (r *Router) handleEnrolled(ctx context.Context, trail *audit.Trail, event *Event) {
	builder := manifest.NewBuilder(event.Device.SerialNumber).AddCatalog(r.cfg.Catalog)

	template := ""
	if r.directory != nil {
		template = r.classifyAndAssign(ctx, trail, event, builder)
	}
	if template == "" {
		template = r.cfg.DefaultIncludedManifest
	}
	builder.AddIncludedManifest(template)

	if r.manifests != nil {
		trail.Record(r.manifests.Create(ctx, builder.Build()))
	}

	if r.notifier != nil {
		trail.Record(r.notifier.Notify(ctx, event.Device.SerialNumber, "enrolled", event.At))
	}
}

// classifyAndAssign fetches device attributes, derives the hardware
// classification, and assigns the directory group. It returns the
// manifest template to inherit, or "" when no classification matched or
// the assignment did not go through.
func (r *Router) classifyAndAssign(ctx context.Context, trail *audit.Trail, event *Event, builder *manifest.Builder) string {
	device, record := r.directory.GetDevice(ctx, event.Device.ID.String())
	trail.Record(record)
	if device == nil {
		return ""
	}

	builder.SetDisplayName(device.Name)

	class, ok := directory.Classify(device.ModelName)
	if !ok {
		return ""
	}

	assign := r.directory.AssignGroup(ctx, event.Device.ID.String(), class.Group)
	trail.Record(assign)
	if assign.Result.Status != audit.StatusSuccess {
		return ""
	}
	return class.ManifestTemplate
}

// handleUnenrolled notifies about the departure. The manifest is
// deliberately left behind so device history survives a re-enrollment.
func (r *Router) handleUnenrolled(ctx context.Context, trail *audit.Trail, event *Event) {
	if r.notifier != nil {
		trail.Record(r.notifier.Notify(ctx, event.Device.SerialNumber, "unenrolled", event.At))
	}
}

// finish archives the trail and counts the invocation. Both are
// best-effort; neither can change the response.
func (r *Router) finish(ctx context.Context, trail *audit.Trail, eventType string, status int) {
	if r.sink != nil {
		if err := r.sink.Archive(ctx, trail); err != nil {
			r.logger.WithContext(ctx).Error().Err(err).Msg("failed to archive audit trail")
		}
	}

	r.metrics.ObserveRequest(eventType, status)
	for _, record := range trail.Actions {
		r.metrics.ObserveAction(record.Action, record.Result.Status)
	}

	r.logger.WithContext(ctx).Info().
		Str("event_type", eventType).
		Int("status", status).
		Int("actions", len(trail.Actions)).
		Bool("failed_actions", trail.Failed()).
		Msg("webhook handled")
}
