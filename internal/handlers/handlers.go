// ABOUTME: Shared payload helpers and provenance fact recording for the
// ABOUTME: capability handlers.

package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopnserve/blackboard/internal/capability"
	"github.com/shopnserve/blackboard/internal/provenance"
)

// stringField reads a trimmed string from a decoded payload. Missing or
// non-string values yield "".
func stringField(payload map[string]any, key string) string {
	v, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// intField reads an integer from a decoded payload. JSON numbers decode
// as float64; anything else yields 0.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// recordProvides records the architecture facts every handler shares: the
// backend component provides the capability, and the sender talks to that
// backend. Facts are advisory, so failures are logged and not fatal; the
// step record stays authoritative.
func recordProvides(ctx context.Context, prov provenance.Store, logger *slog.Logger, backend string, cap capability.Capability, req *capability.Request) {
	if err := prov.RecordEdge(ctx, provenance.KindBackendComponent, backend,
		provenance.KindCapability, cap.String(), provenance.EdgeProvides); err != nil {
		logger.Warn("recording provides fact failed", "error", err)
	}
	if ui := req.Sender.ComponentName(); ui != "" {
		if err := prov.RecordEdge(ctx, provenance.KindUIComponent, ui,
			provenance.KindBackendComponent, backend, provenance.EdgeCommunicatesWith); err != nil {
			logger.Warn("recording communicates fact failed", "error", err)
		}
	}
}
