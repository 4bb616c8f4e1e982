package payload

import (
	"bytes"
	"encoding/json"

	"github.com/faisolarifin/custom-gateway/internal/apperr"
)

// Compact removes insignificant whitespace from a JSON document. Key order
// and string contents are preserved; only whitespace between tokens goes.
// This is the canonical form the forwarder signs.
func Compact(body string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return "", apperr.Wrap(apperr.KindPayloadConversion, "payload is not valid JSON", err)
	}
	return buf.String(), nil
}
