package httpapi

import "net/http"

// WebhookMessage is an ephemeral snapshot of one inbound request: header
// names mapped case-insensitively to their first value, plus the raw body
// as UTF-8 text. Created per request, discarded after the response.
type WebhookMessage struct {
	Headers map[string]string
	Body    string
}

// NewWebhookMessage snapshots a request. http.Header already canonicalizes
// names, so lookups are case-insensitive; only the first value of each
// header survives.
func NewWebhookMessage(r *http.Request, body []byte) WebhookMessage {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return WebhookMessage{Headers: headers, Body: string(body)}
}
