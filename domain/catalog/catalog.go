// Package catalog provides concert and album value types.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// PerformingDate is one date of a concert's performing schedule.
type PerformingDate struct {
	Date string `json:"date"`
}

// Concert represents a concert or event published by an artist (value type).
type Concert struct {
	ConcertID          int64            `json:"concertId"`
	Title              string           `json:"title"`
	Place              string           `json:"place"`
	PosterImageURL     string           `json:"posterImageUrl,omitempty"`
	Information        string           `json:"information,omitempty"`
	BookingURL         string           `json:"bookingUrl,omitempty"`
	BookingSchedule    string           `json:"bookingSchedule,omitempty"`
	PerformingSchedule []PerformingDate `json:"performingSchedule"`
}

// HasBooking returns true if the concert has a usable booking link and date.
// The backend sometimes sends the literal string "null" for a missing date.
func (c Concert) HasBooking() bool {
	return c.BookingURL != "" && c.BookingSchedule != "" && c.BookingSchedule != "null"
}

// ConcertInput is the payload for creating a concert.
type ConcertInput struct {
	Title              string           `json:"title"`
	Place              string           `json:"place"`
	PosterImageURL     string           `json:"posterImageUrl,omitempty"`
	Information        string           `json:"information,omitempty"`
	BookingURL         string           `json:"bookingUrl,omitempty"`
	BookingSchedule    string           `json:"bookingSchedule,omitempty"`
	PerformingSchedule []PerformingDate `json:"performingSchedule"`
}

// NewConcertInput builds a concert payload, formatting dates as RFC 3339 in
// UTC. Zero performing dates are skipped.
func NewConcertInput(title, place string, booking time.Time, performing []time.Time) ConcertInput {
	in := ConcertInput{
		Title:              title,
		Place:              place,
		PerformingSchedule: []PerformingDate{},
	}
	if !booking.IsZero() {
		in.BookingSchedule = formatDate(booking)
	}
	for _, d := range performing {
		if d.IsZero() {
			continue
		}
		in.PerformingSchedule = append(in.PerformingSchedule, PerformingDate{Date: formatDate(d)})
	}
	return in
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Validate checks the fields the backend requires.
func (in ConcertInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(in.Place) == "" {
		return errors.New("place is required")
	}
	return nil
}

// Album represents an album published by an artist (value type).
type Album struct {
	AlbumID       int64  `json:"albumId"`
	Name          string `json:"name"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
	ReleaseDate   string `json:"releaseDate,omitempty"`
	Description   string `json:"description,omitempty"`
}

// AlbumInput is the payload for creating an album.
type AlbumInput struct {
	Name          string `json:"name"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
	ReleaseDate   string `json:"releaseDate,omitempty"`
	Description   string `json:"description,omitempty"`
}

// Validate checks the fields the backend requires.
func (in AlbumInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
