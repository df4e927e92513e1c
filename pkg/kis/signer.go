package kis

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// Sign computes the hashkey header for a request payload: SHA-256 over the
// canonical JSON encoding, base64 encoded. The same canonical bytes must be
// transmitted as the request body for the brokerage to accept the signature.
func Sign(payload map[string]string) string {
	sum := sha256.Sum256(canonicalJSON(payload))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// canonicalJSON encodes payload with sorted keys, compact separators and without HTML escaping.
// encoding/json still writes U+2028 and U+2029 as \u2028 and \u2029 and replaces
// invalid UTF-8 with U+FFFD. The hashkey and the request body are both built
// from these bytes, so they agree even for such values.
func canonicalJSON(payload map[string]string) []byte {
	if payload == nil {
		payload = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// string maps always encode
	_ = enc.Encode(payload)
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}
