package client

import (
	"bytes"
	"encoding/json"
)

// envelope is the optional wrapper the backend puts around payloads:
// {"code": 0, "msg"|"message": "...", "data": ...}. Every field is kept raw so
// that absence can be told apart from zero values.
type envelope struct {
	Code    json.RawMessage `json:"code"`
	Msg     json.RawMessage `json:"msg"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
	Detail  json.RawMessage `json:"detail"`
}

// parseEnvelope reads body as an envelope. ok is false when body is not a
// JSON object (bare arrays, scalars, empty bodies).
func parseEnvelope(body []byte) (env envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// failed reports whether the envelope carries a code other than the number 0.
// A code key that is present counts even when null. Non-numeric codes, the
// string "0" included, count as failures.
func (e envelope) failed() bool {
	code := bytes.TrimSpace(e.Code)
	if len(code) == 0 {
		return false
	}
	if bytes.Equal(code, []byte("null")) {
		return true
	}
	var n float64
	if err := json.Unmarshal(code, &n); err != nil {
		return true
	}
	return n != 0
}

// message returns msg, then message, then "".
func (e envelope) message() string {
	for _, raw := range []json.RawMessage{e.Msg, e.Message} {
		if s := asString(raw); s != "" {
			return s
		}
	}
	return ""
}

// serverDetail returns whatever human-readable text an error body carries.
func (e envelope) serverDetail() string {
	if s := e.message(); s != "" {
		return s
	}
	return asString(e.Detail)
}

// unwrap returns data when present and non-null, otherwise the whole body.
func unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if env, ok := parseEnvelope(trimmed); ok && present(env.Data) {
		return env.Data
	}
	return json.RawMessage(trimmed)
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func asString(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
