package reverso

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnavailable is returned when the helper process cannot be reached at all.
	ErrUnavailable = errors.New("translator unavailable")

	// ErrMalformedOutput is returned when the helper exits cleanly but its
	// stdout is not a JSON object.
	ErrMalformedOutput = errors.New("translator returned malformed output")

	// ErrTimeout is returned when the helper does not finish in time.
	ErrTimeout = errors.New("translator timed out")
)

// Mode selects the helper's lookup strategy
type Mode string

const (
	// ModeTranslation asks for direct word translations.
	ModeTranslation Mode = "translation"
	// ModeContext asks for contextual usage examples.
	ModeContext Mode = "context"
)

// Request is the envelope sent to the helper on stdin
type Request struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
	Mode Mode   `json:"mode"`
}

// Payload is the JSON document produced by the helper. Its structure varies
// with the mode and the helper version, so it is kept raw and probed with gjson.
type Payload []byte

// Failure synthesizes a failure payload with the given message.
func Failure(message string) Payload {
	// Marshalling a struct of two plain fields cannot fail.
	data, _ := json.Marshal(struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}{OK: false, Message: message})

	return data
}

// Valid reports whether the payload is a well-formed JSON object.
func (p Payload) Valid() bool {
	return isObject(p)
}

// OK reports whether the helper flagged the payload as successful.
func (p Payload) OK() bool {
	return gjson.GetBytes(p, "ok").Bool()
}

// Message returns the failure message carried by the payload, if any.
func (p Payload) Message() string {
	return gjson.GetBytes(p, "message").String()
}

// MarshalJSON embeds the raw document. Invalid payloads encode as null.
func (p Payload) MarshalJSON() ([]byte, error) {
	if !gjson.ValidBytes(p) {
		return []byte("null"), nil
	}

	out := make([]byte, len(p))
	copy(out, p)

	return out, nil
}

func isObject(data []byte) bool {
	return gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject()
}
