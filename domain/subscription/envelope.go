package subscription

import (
	"bytes"
	"encoding/json"
)

// Shape identifies which known envelope a subscribed-concerts payload used.
type Shape int

const (
	// ShapeUnknown is never returned with a nil error.
	ShapeUnknown Shape = iota
	// ShapeSuccessWrapped is {success: true, data: {artists: [...]}}.
	ShapeSuccessWrapped
	// ShapeTruthySuccess is {success: <truthy, not true>, data: {artists: [...]}}.
	ShapeTruthySuccess
	// ShapeBareArtists is {artists: [...]}.
	ShapeBareArtists
	// ShapeDataOnly is {data: {artists: [...]}} without a truthy success.
	ShapeDataOnly
	// ShapeEmpty is an absent payload or {success: false} without data.
	ShapeEmpty
)

func (s Shape) String() string {
	switch s {
	case ShapeSuccessWrapped:
		return "success_wrapped"
	case ShapeTruthySuccess:
		return "truthy_success"
	case ShapeBareArtists:
		return "bare_artists"
	case ShapeDataOnly:
		return "data_only"
	case ShapeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// rawEnvelope keeps every candidate field undecoded so each shape can be
// tested independently.
type rawEnvelope struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
	Artists json.RawMessage `json:"artists"`
}

// shapeRule is one entry of the ordered shape table. match returns the part
// of the payload holding {artists: [...]} or nil.
type shapeRule struct {
	shape Shape
	match func(env rawEnvelope, raw json.RawMessage) json.RawMessage
}

var shapeRules = []shapeRule{
	{ShapeSuccessWrapped, func(env rawEnvelope, raw json.RawMessage) json.RawMessage {
		if isTrue(env.Success) && hasArtistsArray(env.Data) {
			return env.Data
		}
		return nil
	}},
	{ShapeTruthySuccess, func(env rawEnvelope, raw json.RawMessage) json.RawMessage {
		if truthy(env.Success) && hasArtistsArray(env.Data) {
			return env.Data
		}
		return nil
	}},
	{ShapeBareArtists, func(env rawEnvelope, raw json.RawMessage) json.RawMessage {
		if isArray(env.Artists) {
			return raw
		}
		return nil
	}},
	{ShapeDataOnly, func(env rawEnvelope, raw json.RawMessage) json.RawMessage {
		if hasArtistsArray(env.Data) {
			return env.Data
		}
		return nil
	}},
}

// ParseSubscribedConcerts normalizes a subscribed-concerts payload. The known
// shapes are tried in a fixed priority order; a payload matching none of them
// yields a *MalformedResponseError carrying the raw bytes.
func ParseSubscribedConcerts(raw []byte) (SubscribedConcerts, Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !truthy(trimmed) {
		return Empty(), ShapeEmpty, nil
	}

	if trimmed[0] != '{' {
		return SubscribedConcerts{}, ShapeUnknown, &MalformedResponseError{Raw: copyRaw(trimmed)}
	}

	var env rawEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return SubscribedConcerts{}, ShapeUnknown, &MalformedResponseError{Raw: copyRaw(trimmed), Err: err}
	}

	for _, rule := range shapeRules {
		payload := rule.match(env, trimmed)
		if payload == nil {
			continue
		}
		var out SubscribedConcerts
		if err := json.Unmarshal(payload, &out); err != nil {
			return SubscribedConcerts{}, ShapeUnknown, &MalformedResponseError{Raw: copyRaw(trimmed), Err: err}
		}
		if out.Artists == nil {
			out.Artists = []SubscribedArtist{}
		}
		return out, rule.shape, nil
	}

	if isFalse(env.Success) && !truthy(env.Data) {
		return Empty(), ShapeEmpty, nil
	}

	return SubscribedConcerts{}, ShapeUnknown, &MalformedResponseError{Raw: copyRaw(trimmed)}
}

func hasArtistsArray(data json.RawMessage) bool {
	d := bytes.TrimSpace(data)
	if len(d) == 0 || d[0] != '{' {
		return false
	}
	var inner struct {
		Artists json.RawMessage `json:"artists"`
	}
	if err := json.Unmarshal(d, &inner); err != nil {
		return false
	}
	return isArray(inner.Artists)
}

func isArray(v json.RawMessage) bool {
	d := bytes.TrimSpace(v)
	return len(d) > 0 && d[0] == '['
}

func isTrue(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("true"))
}

func isFalse(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("false"))
}

// truthy follows JSON-value truthiness: absent, null, false, 0 and "" are
// falsy; everything else, including empty arrays and objects, is truthy.
func truthy(v json.RawMessage) bool {
	d := bytes.TrimSpace(v)
	if len(d) == 0 {
		return false
	}
	switch string(d) {
	case "null", "false", `""`:
		return false
	}
	if d[0] == '-' || (d[0] >= '0' && d[0] <= '9') {
		var f float64
		if err := json.Unmarshal(d, &f); err == nil {
			return f != 0
		}
	}
	return true
}

func copyRaw(b []byte) json.RawMessage {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
