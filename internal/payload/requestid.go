package payload

import (
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const requestIDPrefix = "req-"

// ExtractRequestID derives the correlation id for one end-to-end request:
// "req-" + the payload's xid, falling back to id, falling back to a fresh
// UUIDv4 when neither is a non-empty string or the body is not JSON.
// Correlation ids are for humans and logs only, never for deduplication.
func ExtractRequestID(body []byte) string {
	if gjson.ValidBytes(body) {
		if xid := gjson.GetBytes(body, "xid"); xid.Type == gjson.String && xid.Str != "" {
			return requestIDPrefix + xid.Str
		}
		if id := gjson.GetBytes(body, "id"); id.Type == gjson.String && id.Str != "" {
			return requestIDPrefix + id.Str
		}
	}
	return requestIDPrefix + uuid.NewString()
}
