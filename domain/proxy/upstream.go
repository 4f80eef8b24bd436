package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// SplitSegments splits an escaped request path into its segments.
// Empty segments are dropped and each segment is unescaped exactly once.
func SplitSegments(escaped string) []string {
	return splitPath(escaped, func(s string) string {
		if unescaped, err := url.PathUnescape(s); err == nil {
			return unescaped
		}
		return s
	})
}

// SegmentsFromQuery returns the segments carried by the routing parameter,
// for platforms that pass the captured path in the query string instead of
// the URL path. Repeated values are concatenated in order.
func SegmentsFromQuery(raw string) []string {
	var segments []string
	for _, pair := range strings.Split(raw, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if unescapeQuery(k) != RoutingParam {
			continue
		}
		// The query decoding is the only unescape the value gets.
		segments = append(segments, splitPath(unescapeQuery(v), nil)...)
	}
	return segments
}

func splitPath(p string, decode func(string) string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s == "" {
			continue
		}
		if decode != nil {
			s = decode(s)
		}
		segments = append(segments, s)
	}
	return segments
}

// UpstreamPath joins segments under UpstreamPathPrefix.
//
//	["concerts", "5"] -> /api/concerts/5
//	[]                -> /api
func UpstreamPath(segments []string) string {
	if len(segments) == 0 {
		return UpstreamPathPrefix
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return UpstreamPathPrefix + "/" + strings.Join(escaped, "/")
}

// ParseQuery parses a raw query string preserving the original order of its
// pairs. The routing parameter is dropped.
func ParseQuery(raw string) []QueryParam {
	var params []QueryParam
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		k = unescapeQuery(k)
		if k == RoutingParam {
			continue
		}
		params = append(params, QueryParam{Key: k, Value: unescapeQuery(v)})
	}
	return params
}

func unescapeQuery(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// EncodeQuery form-encodes params in order. The routing parameter is skipped
// even if a caller put it back.
func EncodeQuery(params []QueryParam) string {
	var b strings.Builder
	for _, p := range params {
		if p.Key == RoutingParam {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// UpstreamURL builds <origin><path>[?<query>] for the request.
func UpstreamURL(origin string, req Request) string {
	u := strings.TrimRight(origin, "/") + UpstreamPath(req.Segments)
	if q := EncodeQuery(req.Query); q != "" {
		u += "?" + q
	}
	return u
}

// EncodeBody serializes an inbound body as JSON for forwarding.
// A body that is already JSON is forwarded unchanged; anything else is sent
// as a JSON string. A blank body yields nil.
func EncodeBody(body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if json.Valid(body) {
		return body, nil
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return encoded, nil
}

// ClassifyBody decides how an upstream body is relayed from its content type.
func ClassifyBody(contentType string, body []byte) BodyKind {
	if len(body) == 0 {
		return BodyEmpty
	}
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		return BodyJSON
	}
	return BodyText
}

// ValidateJSONBody checks that a body classified as JSON actually parses.
func ValidateJSONBody(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("parse upstream json: %w", err)
	}
	return nil
}
