// Package signing computes the bank's request signatures and timestamps.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/faisolarifin/custom-gateway/internal/apperr"
)

// timestampLayout renders millisecond precision with the zone offset, e.g.
// 2024-01-15T10:30:45.123+07:00.
const timestampLayout = "2006-01-02T15:04:05.000-07:00"

// jakarta is the fixed +07:00 offset the bank expects on every timestamp.
var jakarta = time.FixedZone("+07:00", 7*60*60)

// Timestamp formats t in the +07:00 zone with millisecond precision.
func Timestamp(t time.Time) string {
	return t.In(jakarta).Format(timestampLayout)
}

// Sign computes base64(HMAC-SHA256(staticKey, "key:timestamp:data")) with
// standard padding. Deterministic for identical inputs.
func Sign(staticKey, key, timestamp, data string) (string, error) {
	if staticKey == "" {
		return "", apperr.New(apperr.KindHMAC, "mac key must not be empty")
	}

	mac := hmac.New(sha256.New, []byte(staticKey))
	mac.Write([]byte(key + ":" + timestamp + ":" + data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
