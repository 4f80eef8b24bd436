// Package subscription provides artist subscription value types, the
// subscribed-concerts envelope parser and the local mock set rules.
package subscription

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/bandgate/domain/catalog"
)

// Record represents an artist subscription (value type).
type Record struct {
	SubscriptionID int64  `json:"subscriptionId"`
	MemberID       int64  `json:"memberId"`
	ArtiProfileID  int64  `json:"artiProfileId"`
	CreatedAt      string `json:"createdAt"`
}

// Request is the body of a subscribe call.
type Request struct {
	ArtiProfileID int64 `json:"artiProfileId"`
}

// SubscribedArtist is one artist entry of the subscribed-concerts feed.
type SubscribedArtist struct {
	ArtiProfileID   int64             `json:"artiProfileId"`
	ArtistName      string            `json:"artistName"`
	ProfileImageURL string            `json:"profileImageUrl,omitempty"`
	Concerts        []catalog.Concert `json:"concerts"`
}

// SubscribedConcerts is the normalized subscribed-concerts feed.
type SubscribedConcerts struct {
	Artists []SubscribedArtist `json:"artists"`
}

// Empty returns a feed with no artists.
func Empty() SubscribedConcerts {
	return SubscribedConcerts{Artists: []SubscribedArtist{}}
}

// Envelope is the backend's {success, data, message} wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// HasData reports whether data is present and not null.
func (e Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// DecodeData unmarshals the data field into v.
func (e Envelope) DecodeData(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// ErrUnauthenticated is returned when a mock mutation is attempted without a
// stored access token.
var ErrUnauthenticated = errors.New("login required")

// APIRejectedError is returned when the backend answers with success=false.
type APIRejectedError struct {
	Operation string
	Message   string
}

func (e *APIRejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Operation + " failed"
}

// Reject builds an APIRejectedError from an envelope.
func Reject(operation string, env Envelope) *APIRejectedError {
	return &APIRejectedError{Operation: operation, Message: env.Message}
}

// MalformedResponseError is returned when the subscribed-concerts payload
// matches none of the known envelope shapes.
type MalformedResponseError struct {
	Raw json.RawMessage
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response shape: %v: %s", e.Err, e.Raw)
	}
	return fmt.Sprintf("unexpected response shape: %s", e.Raw)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
