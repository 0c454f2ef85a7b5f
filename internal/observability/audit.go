package observability

import (
	"log/slog"
	"net/http"
)

// Audit emits a structured audit record for security-relevant events such
// as account creation and login. Trace and span IDs are stamped by the
// logging pipeline; the user identifier is attached by the caller through
// attrs.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Header.Get("X-Request-Id"),
	}
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}
