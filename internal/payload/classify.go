// Package payload decides what an inbound webhook body is and derives the
// correlation id and signing form from it.
package payload

import (
	"github.com/tidwall/gjson"
)

// interactiveReplyType marks a user-initiated interactive flow reply.
const interactiveReplyType = "nfm_reply"

// IsDeliveryReceipt reports whether the body is a delivery-receipt payload:
// a top-level "error" key (any value, including null), or at least one
// entry[*].changes[*].value.statuses node. Intermediate nodes of the wrong
// type yield no matches.
func IsDeliveryReceipt(body []byte) bool {
	if gjson.GetBytes(body, "error").Exists() {
		return true
	}

	entries := gjson.GetBytes(body, "entry")
	if !entries.IsArray() {
		return false
	}

	found := false
	entries.ForEach(func(_, entry gjson.Result) bool {
		changes := entry.Get("changes")
		if !changes.IsArray() {
			return true
		}
		changes.ForEach(func(_, change gjson.Result) bool {
			if change.Get("value.statuses").Exists() {
				found = true
			}
			return !found
		})
		return !found
	})
	return found
}

// IsInboundFlow reports whether any
// data.entry[*].changes[*].value.messages[*].interactive.type equals
// "nfm_reply".
func IsInboundFlow(body []byte) bool {
	entries := gjson.GetBytes(body, "data.entry")
	if !entries.IsArray() {
		return false
	}

	found := false
	entries.ForEach(func(_, entry gjson.Result) bool {
		changes := entry.Get("changes")
		if !changes.IsArray() {
			return true
		}
		changes.ForEach(func(_, change gjson.Result) bool {
			messages := change.Get("value.messages")
			if !messages.IsArray() {
				return true
			}
			messages.ForEach(func(_, msg gjson.Result) bool {
				t := msg.Get("interactive.type")
				if t.Type == gjson.String && t.Str == interactiveReplyType {
					found = true
				}
				return !found
			})
			return !found
		})
		return !found
	})
	return found
}
