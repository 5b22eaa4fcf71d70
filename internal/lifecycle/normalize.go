package lifecycle

import "strings"

// statusSynonyms maps the provider's free-text delivery statuses onto
// lifecycle states. The provider wording drifts between releases, so the
// table is deliberately generous and backed by a substring heuristic.
var statusSynonyms = map[string]string{
	"delivered":  StatusDelivered,
	"completed":  StatusDelivered,
	"complete":   StatusDelivered,
	"success":    StatusDelivered,
	"successful": StatusDelivered,
	"fulfilled":  StatusDelivered,
	"done":       StatusDelivered,

	"processing":     StatusProcessing,
	"processing_api": StatusProcessing,
	"pending":        StatusProcessing,
	"sent":           StatusProcessing,
	"in progress":    StatusProcessing,
	"in_progress":    StatusProcessing,
	"queued":         StatusProcessing,
	"submitted":      StatusProcessing,
	"accepted":       StatusProcessing,

	"failed":       StatusFailed,
	"failure":      StatusFailed,
	"fail":         StatusFailed,
	"error":        StatusFailed,
	"rejected":     StatusFailed,
	"declined":     StatusFailed,
	"unsuccessful": StatusFailed,
	"cancelled":    StatusFailed,
	"canceled":     StatusFailed,
}

// NormalizeProviderStatus maps a provider status string onto a lifecycle
// state. Unrecognized values return ok=false and must be quarantined by the
// caller, never coerced into a state.
func NormalizeProviderStatus(raw string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", false
	}

	if status, ok := statusSynonyms[cleaned]; ok {
		return status, true
	}

	// Fallback heuristic for wordings the table does not carry yet.
	// Failure markers are checked first: "unsuccessful" contains "success".
	switch {
	case containsAny(cleaned, "fail", "error", "reject", "declin"):
		return StatusFailed, true
	case containsAny(cleaned, "deliver", "success", "complet", "fulfil"):
		return StatusDelivered, true
	case containsAny(cleaned, "pend", "process", "progress", "queue", "submit"):
		return StatusProcessing, true
	}

	return "", false
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
